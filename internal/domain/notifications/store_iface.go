package notifications

import "context"

type StoreAPI interface {
	Insert(ctx context.Context, tenantID, userID string, msg Message) error
	Recipient(ctx context.Context, tenantID, userID string) (Recipient, error)
	List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	Count(ctx context.Context, tenantID, userID string, unreadOnly bool) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
	MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error)
}
