package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusDraft     = "draft"
	StatusFinalized = "finalized"

	DefaultCurrency = "USD"
)

type Record struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName,omitempty"`
	EmployeeEmail string          `json:"-"`
	Period        string          `json:"period"`
	Currency      string          `json:"currency"`
	BaseSalary    decimal.Decimal `json:"baseSalary"`
	Allowances    decimal.Decimal `json:"allowances"`
	Deductions    decimal.Decimal `json:"deductions"`
	LoanDeduction decimal.Decimal `json:"loanDeduction"`
	Gross         decimal.Decimal `json:"gross"`
	Net           decimal.Decimal `json:"net"`
	Status        string          `json:"status"`
	FinalizedAt   *time.Time      `json:"finalizedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (r Record) Finalized() bool { return r.Status == StatusFinalized }

type CreateInput struct {
	EmployeeID string          `json:"employeeId" validate:"required,uuid"`
	Period     string          `json:"period" validate:"required"`
	Currency   string          `json:"currency" validate:"omitempty,len=3"`
	BaseSalary decimal.Decimal `json:"baseSalary"`
	Allowances decimal.Decimal `json:"allowances"`
	Deductions decimal.Decimal `json:"deductions"`
}

type UpdateInput struct {
	BaseSalary decimal.Decimal `json:"baseSalary"`
	Allowances decimal.Decimal `json:"allowances"`
	Deductions decimal.Decimal `json:"deductions"`
}

type Filter struct {
	Period     string
	EmployeeID string
	Status     string
}

// Repayment is one loan installment withheld by a payroll record.
type Repayment struct {
	LoanID string
	Amount decimal.Decimal
}
