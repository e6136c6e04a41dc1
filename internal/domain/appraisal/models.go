package appraisal

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("appraisal not found")
	ErrDuplicate        = errors.New("appraisal already exists for this period")
	ErrNoObjectives     = errors.New("at least one objective is required")
	ErrWeightTotal      = errors.New("objective weights must sum to 100")
	ErrInvalidScore     = errors.New("scores must be between 1 and 5")
	ErrUnknownObjective = errors.New("objective does not belong to this appraisal")
	ErrScoresMissing    = errors.New("every objective needs a self score")
	ErrNotEditable      = errors.New("appraisal cannot be edited in its current status")
	ErrInvalidPeriod    = errors.New("period is required")
)

const (
	MinScore = 1
	MaxScore = 5
)

type Objective struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Weight    int    `json:"weight"`
	SelfScore *int   `json:"selfScore,omitempty"`
	LeadScore *int   `json:"leadScore,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

type Appraisal struct {
	ID           string      `json:"id"`
	EmployeeID   string      `json:"employeeId"`
	EmployeeName string      `json:"employeeName,omitempty"`
	ManagerID    string      `json:"managerId,omitempty"`
	Period       string      `json:"period"`
	Status       string      `json:"status"`
	SelfComment  string      `json:"selfComment,omitempty"`
	LeadComment  string      `json:"leadComment,omitempty"`
	FinalScore   *float64    `json:"score,omitempty"`
	DecisionNote string      `json:"decisionNote,omitempty"`
	Objectives   []Objective `json:"objectives"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type ObjectiveInput struct {
	Title  string `json:"title" validate:"required,max=200"`
	Weight int    `json:"weight" validate:"required,min=1,max=100"`
}

type CreateInput struct {
	EmployeeID string           `json:"employeeId" validate:"required,uuid"`
	Period     string           `json:"period" validate:"required,max=20"`
	Objectives []ObjectiveInput `json:"objectives" validate:"required,min=1,dive"`
}

type ObjectiveScore struct {
	ObjectiveID string `json:"objectiveId" validate:"required"`
	Score       int    `json:"score" validate:"min=1,max=5"`
	Comment     string `json:"comment" validate:"max=2000"`
}

// Assessment is one party's scoring pass over the objectives.
type Assessment struct {
	Scores  []ObjectiveScore `json:"scores" validate:"dive"`
	Comment string           `json:"comment" validate:"max=4000"`
}

type Filter struct {
	Status string
	Period string
}
