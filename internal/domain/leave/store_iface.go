package leave

import (
	"context"
	"time"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
)

type StoreAPI interface {
	ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error)
	GetType(ctx context.Context, tenantID, leaveTypeID string) (LeaveType, error)
	CreateType(ctx context.Context, tenantID string, payload LeaveType) (string, error)
	ListBalances(ctx context.Context, tenantID, employeeID string) ([]Balance, error)
	SetEntitlement(ctx context.Context, tenantID, employeeID, leaveTypeID string, entitlement float64) error
	ActiveRequests(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Request, error)
	CreateRequest(ctx context.Context, tenantID string, req Request, step workflow.Step) (string, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (Request, error)
	ListRequests(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Request, error)
	PendingRequests(ctx context.Context, tenantID string) ([]Request, error)
	Transition(ctx context.Context, tenantID string, req Request, d workflow.Decision, step workflow.Step) error
	Steps(ctx context.Context, tenantID, requestID string) ([]workflow.Step, error)
}
