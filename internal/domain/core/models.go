package core

import "time"

const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

type Employee struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId,omitempty"`
	EmployeeNumber string     `json:"employeeNumber"`
	FirstName      string     `json:"firstName" validate:"required,max=100"`
	LastName       string     `json:"lastName" validate:"required,max=100"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          string     `json:"phone" validate:"max=40"`
	Address        string     `json:"address" validate:"max=300"`
	DepartmentID   string     `json:"departmentId,omitempty" validate:"omitempty,uuid"`
	DepartmentName string     `json:"departmentName,omitempty"`
	ManagerID      string     `json:"managerId,omitempty" validate:"omitempty,uuid"`
	Role           string     `json:"role,omitempty"`
	JobTitle       string     `json:"jobTitle" validate:"max=120"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	Status         string     `json:"status"`
	NationalID     string     `json:"nationalId,omitempty"`
	BankAccount    string     `json:"bankAccount,omitempty"`
	Salary         *float64   `json:"salary,omitempty" validate:"omitempty,gte=0"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type Department struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" validate:"required,max=120"`
	Description   string    `json:"description" validate:"max=500"`
	EmployeeCount int       `json:"employeeCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type EmployeeFilter struct {
	DepartmentID string
	ManagerID    string
	Status       string
	Query        string
}

// ProfileUpdate is the subset of fields a user may change on their own record.
type ProfileUpdate struct {
	Phone   string `json:"phone" validate:"max=40"`
	Address string `json:"address" validate:"max=300"`
}
