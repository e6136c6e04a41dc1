package notifications

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	created    []string
	recipients map[string]Recipient
	lookupErr  error
}

func (m *memStore) Insert(_ context.Context, _, userID string, _ Message) error {
	m.created = append(m.created, userID)
	return nil
}

func (m *memStore) Recipient(_ context.Context, _, userID string) (Recipient, error) {
	return m.recipients[userID], m.lookupErr
}

func (m *memStore) List(context.Context, string, string, bool, int, int) ([]Notification, error) {
	return nil, nil
}

func (m *memStore) Count(context.Context, string, string, bool) (int, error) {
	return len(m.created), nil
}

func (m *memStore) MarkRead(context.Context, string, string, string) error { return nil }

func (m *memStore) MarkAllRead(context.Context, string, string) (int64, error) { return 0, nil }

type sent struct{ from, to, subject, body string }

type recordingMailer struct {
	sent []sent
}

func (r *recordingMailer) Send(_ context.Context, from, to, subject, body string) error {
	r.sent = append(r.sent, sent{from, to, subject, body})
	return nil
}

func TestCreateSendsEmailOnlyWhenEnabled(t *testing.T) {
	store := &memStore{recipients: map[string]Recipient{
		"u1": {Email: "u1@example.com"},
	}}
	mailer := &recordingMailer{}
	svc := New(store, mailer, Options{BaseURL: "https://hr.acme.test/"})
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, "t1", "u1", TypeRequestApproved, "Approved", "ok"))
	require.Empty(t, mailer.sent)

	store.recipients["u1"] = Recipient{Email: "u1@example.com", EmailEnabled: true}
	require.NoError(t, svc.Create(ctx, "t1", "u1", TypeRequestApproved, "Approved", "ok"))
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "no-reply@example.com", mailer.sent[0].from)
	require.Equal(t, "u1@example.com", mailer.sent[0].to)
	require.Equal(t, "ok\n\nView your notifications: https://hr.acme.test/notifications", mailer.sent[0].body)

	store.recipients["u2"] = Recipient{Email: "u2@example.com", EmailEnabled: true, From: "hr@acme.test"}
	require.NoError(t, svc.Create(ctx, "t1", "u2", TypeRequestRejected, "Rejected", "no"))
	require.Equal(t, "hr@acme.test", mailer.sent[1].from)

	// Inactive users resolve to an empty address.
	store.recipients["u3"] = Recipient{EmailEnabled: true}
	require.NoError(t, svc.Create(ctx, "t1", "u3", TypeRequestRejected, "Rejected", "no"))
	require.Len(t, mailer.sent, 2)
	require.Equal(t, []string{"u1", "u1", "u2", "u3"}, store.created)
}

func TestCreateIgnoresLookupFailure(t *testing.T) {
	store := &memStore{lookupErr: errors.New("db down")}
	mailer := &recordingMailer{}
	svc := New(store, mailer, Options{DefaultFrom: "ops@acme.test"})

	require.NoError(t, svc.Create(context.Background(), "t1", "u1", TypeRequestApproved, "Approved", ""))
	require.Empty(t, mailer.sent)
	require.Equal(t, []string{"u1"}, store.created)
}

func TestBroadcastDeduplicates(t *testing.T) {
	store := &memStore{}
	svc := New(store, nil, Options{})
	svc.Broadcast(context.Background(), "t1", []string{"a", "", "b", "a"}, TypeApprovalRequested, "Review", "")
	require.Equal(t, []string{"a", "b"}, store.created)
}
