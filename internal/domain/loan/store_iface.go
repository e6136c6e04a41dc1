package loan

import (
	"context"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
)

type StoreAPI interface {
	Create(ctx context.Context, tenantID string, r Request, step workflow.Step) (string, error)
	Get(ctx context.Context, tenantID, loanID string) (Request, error)
	List(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Request, error)
	Pending(ctx context.Context, tenantID string) ([]Request, error)
	Transition(ctx context.Context, tenantID string, r Request, d workflow.Decision, step workflow.Step) error
	Steps(ctx context.Context, tenantID, loanID string) ([]workflow.Step, error)
	ActiveLoans(ctx context.Context, tenantID, employeeID string) ([]Request, error)
}
