package payroll

import "errors"

var (
	ErrNotFound      = errors.New("payroll record not found")
	ErrDuplicate     = errors.New("payroll record already exists for this period")
	ErrFinalized     = errors.New("payroll record is finalized")
	ErrNotFinalized  = errors.New("payslip is available once the record is finalized")
	ErrInvalidPeriod = errors.New("period must be YYYY-MM")
	ErrNegativeValue = errors.New("amounts must not be negative")
	ErrNegativeNet   = errors.New("deductions exceed gross pay")
	ErrUnknownFormat = errors.New("export format must be csv or xlsx")
)
