package payroll

import "context"

type StoreAPI interface {
	Create(ctx context.Context, tenantID string, r Record, repayments []Repayment) (string, error)
	Get(ctx context.Context, tenantID, recordID string) (Record, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]Record, error)
	Update(ctx context.Context, tenantID string, r Record) error
	Delete(ctx context.Context, tenantID, recordID string) error
	Finalize(ctx context.Context, tenantID, recordID string) error
}
