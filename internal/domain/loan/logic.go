package loan

import "github.com/shopspring/decimal"

// Schedule splits amount into n monthly installments rounded down to cents.
// The last installment absorbs the remainder, so it is never smaller than the
// others and no balance goes negative.
func Schedule(amount decimal.Decimal, n int) ([]Installment, error) {
	if err := validate(amount, n); err != nil {
		return nil, err
	}
	base := amount.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	out := make([]Installment, 0, n)
	remaining := amount
	for i := 1; i <= n; i++ {
		pay := base
		if i == n {
			pay = remaining
		}
		remaining = remaining.Sub(pay)
		out = append(out, Installment{Number: i, Amount: pay, Remaining: remaining})
	}
	return out, nil
}

func validate(amount decimal.Decimal, n int) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	if n < MinInstallments || n > MaxInstallments {
		return ErrInvalidInstallments
	}
	return nil
}

// Due is the amount payroll should deduct next: the monthly installment, or
// everything left once only the final installment remains.
func Due(r Request) decimal.Decimal {
	if !r.Outstanding.IsPositive() {
		return decimal.Zero
	}
	if r.Outstanding.LessThanOrEqual(finalInstallment(r)) || r.Outstanding.LessThan(r.MonthlyInstallment) {
		return r.Outstanding
	}
	return r.MonthlyInstallment
}

func finalInstallment(r Request) decimal.Decimal {
	earlier := decimal.NewFromInt(int64(max(r.Installments-1, 0)))
	return r.Amount.Sub(r.MonthlyInstallment.Mul(earlier))
}
