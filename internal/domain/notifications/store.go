package notifications

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

var _ StoreAPI = (*Store)(nil)

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, tenantID, userID string, msg Message) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (tenant_id, user_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, userID, msg.Type, msg.Title, msg.Body)
	return errors.Wrap(err, "insert notification")
}

func (s *Store) Recipient(ctx context.Context, tenantID, userID string) (Recipient, error) {
	var r Recipient
	err := s.DB.QueryRow(ctx, `
    SELECT u.email,
           COALESCE(ts.email_notifications_enabled, false),
           COALESCE(ts.email_from, '')
    FROM users u
    LEFT JOIN tenant_settings ts ON ts.tenant_id = u.tenant_id
    WHERE u.tenant_id = $1 AND u.id = $2 AND u.status = 'active'
  `, tenantID, userID).Scan(&r.Email, &r.EmailEnabled, &r.From)
	if errors.Is(err, pgx.ErrNoRows) {
		return Recipient{}, nil
	}
	return r, errors.Wrap(err, "select notification recipient")
}

func (s *Store) List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE tenant_id = $1 AND user_id = $2 AND (NOT $3 OR read_at IS NULL)
    ORDER BY created_at DESC, id DESC
    LIMIT $4 OFFSET $5
  `, tenantID, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "query notifications")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		err := row.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
		return n, err
	})
	return out, errors.Wrap(err, "scan notifications")
}

func (s *Store) Count(ctx context.Context, tenantID, userID string, unreadOnly bool) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications
    WHERE tenant_id = $1 AND user_id = $2 AND (NOT $3 OR read_at IS NULL)
  `, tenantID, userID, unreadOnly).Scan(&total)
	return total, errors.Wrap(err, "count notifications")
}

// MarkRead keeps the first read time when called twice.
func (s *Store) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE tenant_id = $1 AND user_id = $2 AND id = $3
  `, tenantID, userID, notificationID)
	if err != nil {
		return errors.Wrap(err, "mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE tenant_id = $1 AND user_id = $2 AND read_at IS NULL
  `, tenantID, userID)
	if err != nil {
		return 0, errors.Wrap(err, "mark notifications read")
	}
	return tag.RowsAffected(), nil
}
