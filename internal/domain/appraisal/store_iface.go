package appraisal

import (
	"context"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
)

type StoreAPI interface {
	Create(ctx context.Context, tenantID, createdBy string, a Appraisal) (string, error)
	Get(ctx context.Context, tenantID, appraisalID string) (Appraisal, error)
	List(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Appraisal, error)
	Pending(ctx context.Context, tenantID string) ([]Appraisal, error)
	SaveAssessment(ctx context.Context, tenantID string, a Appraisal) error
	Transition(ctx context.Context, tenantID string, a Appraisal, d workflow.Decision, step workflow.Step) error
	Steps(ctx context.Context, tenantID, appraisalID string) ([]workflow.Step, error)
}
