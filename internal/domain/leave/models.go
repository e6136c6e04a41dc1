package leave

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("leave record not found")
	ErrNoEmployee          = errors.New("user has no employee record")
	ErrInvalidRange        = errors.New("invalid leave date range")
	ErrOverlap             = errors.New("overlaps an existing leave request")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrDuplicateType       = errors.New("leave type code already exists")
)

type LeaveType struct {
	ID                string    `json:"id"`
	Name              string    `json:"name" validate:"required,max=100"`
	Code              string    `json:"code" validate:"required,max=20"`
	IsPaid            bool      `json:"isPaid"`
	AnnualEntitlement float64   `json:"annualEntitlement" validate:"gte=0,lte=366"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Balance is one employee's position for a leave type.
type Balance struct {
	LeaveTypeID   string  `json:"leaveTypeId"`
	LeaveTypeName string  `json:"leaveTypeName"`
	IsPaid        bool    `json:"isPaid"`
	Entitlement   float64 `json:"entitlement"`
	Pending       float64 `json:"pending"`
	Used          float64 `json:"used"`
}

func (b Balance) Available() float64 {
	return b.Entitlement - b.Pending - b.Used
}

type Request struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employeeId"`
	EmployeeName  string    `json:"employeeName,omitempty"`
	ManagerID     string    `json:"managerId,omitempty"`
	LeaveTypeID   string    `json:"leaveTypeId"`
	LeaveTypeName string    `json:"leaveTypeName,omitempty"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	StartHalf     bool      `json:"startHalf"`
	EndHalf       bool      `json:"endHalf"`
	Days          float64   `json:"days"`
	Reason        string    `json:"reason"`
	Chain         []string  `json:"chain"`
	Status        string    `json:"status"`
	DecisionNote  string    `json:"decisionNote,omitempty"`
	// IsPaid is set on submit. The store refuses to book a paid request past
	// the available balance.
	IsPaid bool `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type SubmitInput struct {
	LeaveTypeID string    `json:"leaveTypeId" validate:"required,uuid"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	StartHalf   bool      `json:"startHalf"`
	EndHalf     bool      `json:"endHalf"`
	Reason      string    `json:"reason" validate:"max=1000"`
}

type Filter struct {
	Status     string
	EmployeeID string
}
