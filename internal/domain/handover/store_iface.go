package handover

import (
	"context"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
)

type StoreAPI interface {
	Create(ctx context.Context, tenantID string, r Report, step workflow.Step) (string, error)
	Get(ctx context.Context, tenantID, reportID string) (Report, error)
	List(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Report, error)
	Pending(ctx context.Context, tenantID string) ([]Report, error)
	Transition(ctx context.Context, tenantID string, r Report, d workflow.Decision, step workflow.Step) error
	Steps(ctx context.Context, tenantID, reportID string) ([]workflow.Step, error)
}
