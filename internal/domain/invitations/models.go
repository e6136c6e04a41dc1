package invitations

import (
	"errors"
	"time"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusExpired  = "expired"
	StatusRevoked  = "revoked"

	MaxBulkRows = 500
)

var (
	ErrNotFound       = errors.New("invitation not found")
	ErrInvalidCode    = errors.New("invitation code is invalid or expired")
	ErrEmptyFile      = errors.New("file has no data rows")
	ErrTooManyRows    = errors.New("too many rows")
	ErrUnsupported    = errors.New("unsupported file type")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNotPending     = errors.New("invitation is no longer pending")
	ErrAlreadyExists  = errors.New("a user or pending invitation already exists for this email")
)

type Invitation struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Role           string     `json:"role"`
	DepartmentID   string     `json:"departmentId,omitempty"`
	DepartmentName string     `json:"departmentName,omitempty"`
	ManagerID      string     `json:"managerId,omitempty"`
	Status         string     `json:"status"`
	InvitedBy      string     `json:"invitedBy,omitempty"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Row is one invite as entered in a form or read from a spreadsheet line.
// Department is matched by name or id.
type Row struct {
	Line       int    `json:"line,omitempty"`
	Email      string `json:"email" validate:"required,email,max=254"`
	FirstName  string `json:"firstName" validate:"required,max=100"`
	LastName   string `json:"lastName" validate:"required,max=100"`
	Role       string `json:"role" validate:"required,oneof=employee teamlead hr admin md"`
	Department string `json:"department" validate:"omitempty,max=100"`
	ManagerID  string `json:"managerId" validate:"omitempty,uuid"`
}

type InvalidRow struct {
	Line   int               `json:"line"`
	Email  string            `json:"email,omitempty"`
	Errors map[string]string `json:"errors"`
}

type BulkResult struct {
	Created []Invitation `json:"created"`
	Invalid []InvalidRow `json:"invalid"`
}

type Accepted struct {
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId"`
	TenantID   string `json:"tenantId"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

type Filter struct {
	Status string
}
