package attendance

import (
	"errors"
	"time"
)

const (
	StatusPresent = "present"
	StatusLate    = "late"
	StatusAbsent  = "absent"
)

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNotCheckedIn      = errors.New("no check-in recorded today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrNoEmployee        = errors.New("user has no employee record")
	ErrInvalidMonth      = errors.New("month must be YYYY-MM")
)

type Record struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	WorkDate     time.Time  `json:"workDate"`
	CheckIn      time.Time  `json:"checkIn"`
	CheckOut     *time.Time `json:"checkOut,omitempty"`
	Hours        float64    `json:"hours"`
	Status       string     `json:"status"`
	Note         string     `json:"note,omitempty"`
}

type Filter struct {
	From *time.Time
	To   *time.Time
}

// Summary aggregates one employee's month.
type Summary struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	DaysPresent  int     `json:"daysPresent"`
	DaysLate     int     `json:"daysLate"`
	TotalHours   float64 `json:"totalHours"`
}
