package notifications

import (
	"context"
	"log/slog"
	"strings"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Options struct {
	// DefaultFrom is used when the tenant has no sender configured.
	DefaultFrom string
	// BaseURL, when set, adds a link to the feed in email copies.
	BaseURL string
}

type Service struct {
	store  StoreAPI
	mailer Mailer
	opts   Options
}

func New(store StoreAPI, mailer Mailer, opts Options) *Service {
	if opts.DefaultFrom == "" {
		opts.DefaultFrom = "no-reply@example.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Service{store: store, mailer: mailer, opts: opts}
}

// Create stores the notification and, when the tenant has email enabled,
// sends a copy. Email failures are logged only.
func (s *Service) Create(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	msg := Message{Type: ntype, Title: title, Body: body}
	if err := s.store.Insert(ctx, tenantID, userID, msg); err != nil {
		return err
	}
	if s.mailer != nil {
		s.emailCopy(ctx, tenantID, userID, msg)
	}
	return nil
}

// Broadcast notifies each distinct user once, skipping blanks.
func (s *Service) Broadcast(ctx context.Context, tenantID string, userIDs []string, ntype, title, body string) {
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err := s.Create(ctx, tenantID, id, ntype, title, body); err != nil {
			slog.WarnContext(ctx, "notification create failed", "userId", id, "type", ntype, "err", err)
		}
	}
}

func (s *Service) List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.store.List(ctx, tenantID, userID, unreadOnly, limit, offset)
}

func (s *Service) Count(ctx context.Context, tenantID, userID string, unreadOnly bool) (int, error) {
	return s.store.Count(ctx, tenantID, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, tenantID, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, tenantID, userID)
}

func (s *Service) emailCopy(ctx context.Context, tenantID, userID string, msg Message) {
	rcpt, err := s.store.Recipient(ctx, tenantID, userID)
	if err != nil {
		slog.WarnContext(ctx, "notification recipient lookup failed", "userId", userID, "err", err)
		return
	}
	if !rcpt.EmailEnabled || rcpt.Email == "" {
		return
	}
	from := rcpt.From
	if from == "" {
		from = s.opts.DefaultFrom
	}
	body := msg.Body
	if s.opts.BaseURL != "" {
		body = strings.TrimSpace(body + "\n\nView your notifications: " + s.opts.BaseURL + "/notifications")
	}
	if err := s.mailer.Send(ctx, from, rcpt.Email, msg.Title, body); err != nil {
		slog.WarnContext(ctx, "notification email send failed", "userId", userID, "err", err)
	}
}
