package documents

import (
	"context"

	"hris/internal/domain/auth"
)

type StoreAPI interface {
	Create(ctx context.Context, tenantID string, d Document) (string, error)
	Get(ctx context.Context, tenantID, documentID string) (Document, error)
	List(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Document, error)
	Delete(ctx context.Context, tenantID, documentID string) error
}
