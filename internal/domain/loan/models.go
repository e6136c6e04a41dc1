package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("loan request not found")
	ErrNoEmployee          = errors.New("user has no employee record")
	ErrInvalidAmount       = errors.New("amount must be positive with at most two decimals")
	ErrInvalidInstallments = errors.New("installments must be between 1 and 36")
)

const (
	MinInstallments = 1
	MaxInstallments = 36
)

type Request struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employeeId"`
	EmployeeName       string          `json:"employeeName,omitempty"`
	ManagerID          string          `json:"managerId,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Purpose            string          `json:"purpose"`
	Installments       int             `json:"installments"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	Outstanding        decimal.Decimal `json:"outstanding"`
	Status             string          `json:"status"`
	DecisionNote       string          `json:"decisionNote,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Installment is one row of a repayment schedule.
type Installment struct {
	Number    int             `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining"`
}

type SubmitInput struct {
	Amount       decimal.Decimal `json:"amount"`
	Purpose      string          `json:"purpose" validate:"required,max=1000"`
	Installments int             `json:"installments" validate:"min=1,max=36"`
}

type Filter struct {
	Status string
}

// Deduction is what payroll takes from one loan in one period.
type Deduction struct {
	LoanID string
	Amount decimal.Decimal
}
