package recruitment

import (
	"errors"
	"time"
)

const (
	PostingOpen   = "open"
	PostingClosed = "closed"
)

const (
	StageApplied   = "applied"
	StageScreening = "screening"
	StageInterview = "interview"
	StageOffer     = "offer"
	StageHired     = "hired"
	StageRejected  = "rejected"
)

// Pipeline is the forward order a candidate moves through.
var Pipeline = []string{StageApplied, StageScreening, StageInterview, StageOffer, StageHired}

var (
	ErrPostingNotFound   = errors.New("job posting not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrPostingClosed     = errors.New("job posting is closed")
	ErrInvalidStatus     = errors.New("posting status must be open or closed")
	ErrInvalidStage      = errors.New("unknown candidate stage")
	ErrBackwardMove      = errors.New("candidates only move forward")
	ErrTerminalStage     = errors.New("candidate is already hired or rejected")
	ErrDuplicate         = errors.New("candidate already applied to this posting")
	ErrNoCV              = errors.New("candidate has no CV")
	ErrStageChanged      = errors.New("candidate stage changed by another request")
)

type JobPosting struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	DepartmentID   string    `json:"departmentId,omitempty"`
	DepartmentName string    `json:"departmentName,omitempty"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	CandidateCount int       `json:"candidateCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type PostingInput struct {
	Title        string `json:"title" validate:"required,max=200"`
	DepartmentID string `json:"departmentId" validate:"omitempty,uuid"`
	Description  string `json:"description" validate:"max=10000"`
	Status       string `json:"status" validate:"omitempty,oneof=open closed"`
}

type Candidate struct {
	ID            string    `json:"id"`
	JobPostingID  string    `json:"jobPostingId"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Stage         string    `json:"stage"`
	Notes         string    `json:"notes,omitempty"`
	CVKey         string    `json:"-"`
	CVName        string    `json:"cvName,omitempty"`
	CVContentType string    `json:"cvContentType,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (c Candidate) HasCV() bool { return c.CVKey != "" }

type CandidateInput struct {
	FullName string `json:"fullName" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Notes    string `json:"notes" validate:"max=4000"`
}

type MoveInput struct {
	Stage string `json:"stage" validate:"required"`
	Notes string `json:"notes" validate:"max=4000"`
}

type Attachment struct {
	Name string
	Data []byte
}

type PostingFilter struct {
	Status string
}
