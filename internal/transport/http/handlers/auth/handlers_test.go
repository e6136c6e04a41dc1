package authhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/invitations"
	cryptoutil "hris/internal/platform/crypto"
	"hris/internal/transport/http/middleware"
)

type memStore struct {
	mu       sync.Mutex
	users    map[string]*auth.AuthUser
	sessions map[string]bool
	resets   map[string]string
}

func (m *memStore) FindActiveUserByEmail(_ context.Context, email string) (auth.AuthUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) && u.Status == auth.UserStatusActive {
			return *u, nil
		}
	}
	return auth.AuthUser{}, auth.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, userID string) (auth.AuthUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return auth.AuthUser{}, auth.ErrNotFound
	}
	return *u, nil
}

func (m *memStore) CreateSession(_ context.Context, userID, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID+":"+hash] = true
	return nil
}

func (m *memStore) SessionValid(_ context.Context, userID, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID+":"+hash], nil
}

func (m *memStore) RevokeSession(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID+":"+hash)
	return nil
}

func (m *memStore) RotateSession(_ context.Context, userID, oldHash, newHash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID+":"+oldHash)
	m.sessions[userID+":"+newHash] = true
	return nil
}

func (m *memStore) UpdateLastLogin(context.Context, string) error { return nil }

func (m *memStore) UpdateMFASecret(context.Context, string, []byte) error { return nil }

func (m *memStore) SetMFAEnabled(context.Context, string, bool) error { return nil }

func (m *memStore) CreatePasswordReset(_ context.Context, userID, tokenHash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[tokenHash] = userID
	return nil
}

func (m *memStore) ConsumePasswordReset(_ context.Context, tokenHash, passwordHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.resets[tokenHash]
	if !ok {
		return "", auth.ErrInvalidToken
	}
	delete(m.resets, tokenHash)
	m.users[userID].Password = passwordHash
	return userID, nil
}

func (m *memStore) UpdateUserPassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].Password = hash
	return nil
}

type syncQueue struct{ jobs []string }

func (q *syncQueue) Enqueue(jobType, _ string, run func(context.Context) (any, error)) {
	q.jobs = append(q.jobs, jobType)
	_, _ = run(context.Background())
}

type captureMailer struct{ to, body []string }

func (c *captureMailer) Send(_ context.Context, _, to, _, body string) error {
	c.to = append(c.to, to)
	c.body = append(c.body, body)
	return nil
}

type stubAcceptor struct {
	code string
}

func (s stubAcceptor) Accept(_ context.Context, code, password string) (invitations.Accepted, error) {
	if code != s.code {
		return invitations.Accepted{}, invitations.ErrInvalidCode
	}
	if err := auth.ValidatePassword(password); err != nil {
		return invitations.Accepted{}, err
	}
	return invitations.Accepted{UserID: "u-new", TenantID: "t1", Email: "new@example.com", Role: auth.RoleEmployee}, nil
}

type fixture struct {
	router http.Handler
	queue  *syncQueue
	mailer *captureMailer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hash, err := auth.HashPassword("Stronger123!")
	require.NoError(t, err)
	store := &memStore{
		users: map[string]*auth.AuthUser{
			"u1": {ID: "u1", TenantID: "t1", EmployeeID: "e1", Email: "hr@example.com", RoleName: auth.RoleHR, Password: hash, Status: auth.UserStatusActive},
		},
		sessions: map[string]bool{},
		resets:   map[string]string{},
	}
	crypto, err := cryptoutil.New("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	perms, err := auth.NewEnforcer(auth.RolePermissions)
	require.NoError(t, err)
	svc := auth.NewService(store, crypto, "test-secret", time.Hour, perms)

	queue := &syncQueue{}
	mailer := &captureMailer{}
	h := NewHandler(svc, stubAcceptor{code: "invite-code"}, nil, queue, mailer, "no-reply@example.com", "https://hr.example.com/", false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Auth("test-secret", svc))
	h.RegisterRoutes(r)
	return fixture{router: r, queue: queue, mailer: mailer}
}

func (f fixture) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestLoginSetsCookieAndMeUsesIt(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/auth/login", `{"email":"hr@example.com","password":"Stronger123!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result auth.LoginResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	require.NotEmpty(t, result.Token)
	require.False(t, result.MFARequired)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AccessCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)

	rec = f.do(http.MethodGet, "/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var me auth.Me
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	require.Equal(t, auth.RoleHR, me.User.Role)
	require.True(t, me.CanDelete)
	require.Contains(t, me.Permissions, auth.PermInvitesWrite)

	rec = f.do(http.MethodPost, "/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodGet, "/auth/me", "", cookie)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/auth/login", `{"email":"hr@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credentials", decode(t, rec).Error.Code)

	rec = f.do(http.MethodPost, "/auth/login", `{"email":"not-an-email","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", decode(t, rec).Error.Code)
}

func TestRequestResetAnswersUniformly(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/auth/request-reset", `{"email":"nobody@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, f.queue.jobs)

	rec = f.do(http.MethodPost, "/auth/request-reset", `{"email":"hr@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "reset_requested")
	require.Equal(t, []string{JobResetEmail}, f.queue.jobs)
	require.Equal(t, []string{"hr@example.com"}, f.mailer.to)
	require.Contains(t, f.mailer.body[0], "https://hr.example.com/reset-password?token=")
}

func TestResetPasswordFlow(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/auth/request-reset", `{"email":"hr@example.com"}`)
	body := f.mailer.body[0]
	idx := strings.Index(body, "token=")
	require.Positive(t, idx)
	token := strings.Fields(body[idx+len("token="):])[0]

	rec := f.do(http.MethodPost, "/auth/reset", `{"token":"`+token+`","newPassword":"weak"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", decode(t, rec).Error.Code)

	rec = f.do(http.MethodPost, "/auth/reset", `{"token":"`+token+`","newPassword":"Brand-New-9"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/auth/login", `{"email":"hr@example.com","password":"Brand-New-9"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSetPasswordAcceptsInvitation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/auth/set-password", `{"inviteCode":"bogus","password":"Stronger123!"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_code", decode(t, rec).Error.Code)

	rec = f.do(http.MethodPost, "/auth/set-password", `{"inviteCode":"invite-code","password":"Stronger123!"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"userId":"u-new"`)
}

func TestResetLink(t *testing.T) {
	require.Equal(t, "http://localhost:3000/reset-password?token=abc", resetLink("", "abc"))
	require.Equal(t, "https://hr.example.com/app/reset-password?token=a%2Bb", resetLink("https://hr.example.com/app/", "a+b"))
}
