package attendance

import (
	"context"
	"time"

	"hris/internal/domain/auth"
)

type StoreAPI interface {
	RecordForDay(ctx context.Context, tenantID, employeeID string, day time.Time) (Record, error)
	InsertCheckIn(ctx context.Context, tenantID string, rec Record) (string, error)
	CompleteCheckOut(ctx context.Context, tenantID, recordID string, checkOut time.Time, hours float64) error
	ListRecords(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Record, error)
}
