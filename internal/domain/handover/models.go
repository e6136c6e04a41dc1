package handover

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("handover report not found")
	ErrLeaveNotFound = errors.New("leave request not found")
	ErrNoEmployee    = errors.New("user has no employee record")
	ErrSelfColleague = errors.New("colleague must be someone else")
	ErrNoFile        = errors.New("report has no attachment")
)

type Responsibility struct {
	Title string `json:"title" validate:"required,max=200"`
	Notes string `json:"notes" validate:"max=2000"`
}

type Report struct {
	ID               string           `json:"id"`
	EmployeeID       string           `json:"employeeId"`
	EmployeeName     string           `json:"employeeName,omitempty"`
	ManagerID        string           `json:"managerId,omitempty"`
	ColleagueID      string           `json:"colleagueId"`
	ColleagueName    string           `json:"colleagueName,omitempty"`
	LeaveRequestID   string           `json:"leaveRequestId,omitempty"`
	Summary          string           `json:"summary"`
	Responsibilities []Responsibility `json:"responsibilities"`
	FileKey          string           `json:"-"`
	FileName         string           `json:"fileName,omitempty"`
	FileSize         int64            `json:"fileSize,omitempty"`
	Status           string           `json:"status"`
	DecisionNote     string           `json:"decisionNote,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (r Report) HasFile() bool { return r.FileKey != "" }

type SubmitInput struct {
	ColleagueID      string           `json:"colleagueId" validate:"required,uuid"`
	LeaveRequestID   string           `json:"leaveRequestId" validate:"omitempty,uuid"`
	Summary          string           `json:"summary" validate:"required,max=4000"`
	Responsibilities []Responsibility `json:"responsibilities" validate:"dive"`
}

// Attachment is the raw PDF part of a multipart submission.
type Attachment struct {
	Name string
	Data []byte
}

type Filter struct {
	Status string
}
