package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Compute fills Gross and Net from the record's components, rounded to cents.
func Compute(r *Record) error {
	for _, v := range []decimal.Decimal{r.BaseSalary, r.Allowances, r.Deductions, r.LoanDeduction} {
		if v.IsNegative() {
			return ErrNegativeValue
		}
	}
	r.Gross = r.BaseSalary.Add(r.Allowances).Round(2)
	r.Net = r.Gross.Sub(r.Deductions).Sub(r.LoanDeduction).Round(2)
	if r.Net.IsNegative() {
		return ErrNegativeNet
	}
	return nil
}

func ValidPeriod(period string) bool {
	_, err := time.Parse("2006-01", period)
	return err == nil
}
