package invitations

import (
	"context"
	"time"
)

type StoreAPI interface {
	DepartmentIDs(ctx context.Context, tenantID string) (map[string]string, error)
	ExistingEmails(ctx context.Context, tenantID string, emails []string) (map[string]bool, error)
	EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error)
	Create(ctx context.Context, tenantID string, inv Invitation, codeHash string) (Invitation, error)
	Get(ctx context.Context, tenantID, invitationID string) (Invitation, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]Invitation, error)
	Renew(ctx context.Context, tenantID, invitationID, codeHash string, expiresAt time.Time) (Invitation, error)
	Revoke(ctx context.Context, tenantID, invitationID string) error
	Accept(ctx context.Context, codeHash, passwordHash string) (Accepted, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
