package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hris/internal/app/server"
	"hris/internal/domain/auth"
	"hris/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

const password = "Journey#2024pass"

func newApp(t *testing.T) *server.App {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := config.Config{
		Addr:               ":0",
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		DataEncryptionKey:  "0123456789abcdef0123456789abcdef",
		Environment:        "test",
		SeedTenantName:     "Journey Tenant",
		SeedAdminEmail:     "admin@journey.test",
		SeedAdminPassword:  password,
		EmailFrom:          "no-reply@journey.test",
		StorageDir:         t.TempDir(),
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1 << 20,
		MaxUploadBytes:     4 << 20,
		RateLimitPerMinute: 1000,
		RateLimitStore:     "memory",
		AccessTokenTTL:     time.Hour,
		InviteTTL:          time.Hour,
	}
	app, err := server.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(app.DB.Close)
	return app
}

// person inserts an employee with a login. managerID may be empty.
func person(t *testing.T, app *server.App, tenantID, role, managerID string) (email, employeeID string) {
	t.Helper()
	ctx := context.Background()
	email = fmt.Sprintf("%s-%d@journey.test", role, time.Now().UnixNano())
	var manager any
	if managerID != "" {
		manager = managerID
	}
	require.NoError(t, app.DB.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, first_name, last_name, email, manager_id)
    VALUES ($1,$2,'Journey',$3,$4)
    RETURNING id
  `, tenantID, role, email, manager).Scan(&employeeID))
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	_, err = app.DB.Exec(ctx, `
    INSERT INTO users (tenant_id, employee_id, email, password_hash, role)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, employeeID, email, hash, role)
	require.NoError(t, err)
	return email, employeeID
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+"/api/v1"+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func login(t *testing.T, ts *httptest.Server, email string) string {
	t.Helper()
	status, env := call(t, ts, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, env.Error.Code)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestLeaveApprovalJourney(t *testing.T) {
	app := newApp(t)
	ctx := context.Background()
	var tenantID string
	require.NoError(t, app.DB.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", app.Config.SeedTenantName).Scan(&tenantID))

	leadEmail, leadID := person(t, app, tenantID, auth.RoleTeamLead, "")
	empEmail, _ := person(t, app, tenantID, auth.RoleEmployee, leadID)
	hrEmail, _ := person(t, app, tenantID, auth.RoleHR, "")
	outsiderEmail, _ := person(t, app, tenantID, auth.RoleEmployee, "")

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	empToken := login(t, ts, empEmail)
	leadToken := login(t, ts, leadEmail)
	hrToken := login(t, ts, hrEmail)
	outsiderToken := login(t, ts, outsiderEmail)

	_, env := call(t, ts, http.MethodGet, "/leave/types", empToken, nil)
	var types []struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &types))
	var unpaid string
	for _, lt := range types {
		if lt.Code == "UNPAID" {
			unpaid = lt.ID
		}
	}
	require.NotEmpty(t, unpaid)

	start := time.Now().AddDate(0, 1, 0)
	status, env := call(t, ts, http.MethodPost, "/leave/requests", empToken, map[string]any{
		"leaveTypeId": unpaid,
		"startDate":   start.Format("2006-01-02"),
		"endDate":     start.Format("2006-01-02"),
		"reason":      "journey",
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Code)
	var submitted struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	require.Equal(t, "pending_teamlead", submitted.Status)

	status, _ = call(t, ts, http.MethodGet, "/leave/requests/"+submitted.ID, outsiderToken, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, env = call(t, ts, http.MethodPost, "/leave/requests/"+submitted.ID+"/approve", hrToken, nil)
	require.Equal(t, http.StatusForbidden, status, env.Error.Code)

	status, env = call(t, ts, http.MethodPost, "/leave/requests/"+submitted.ID+"/approve", leadToken, nil)
	require.Equal(t, http.StatusOK, status, env.Error.Code)
	status, env = call(t, ts, http.MethodPost, "/leave/requests/"+submitted.ID+"/approve", hrToken, nil)
	require.Equal(t, http.StatusOK, status, env.Error.Code)

	_, env = call(t, ts, http.MethodGet, "/leave/requests/"+submitted.ID, empToken, nil)
	var detail struct {
		Request struct {
			Status string `json:"status"`
		} `json:"request"`
		Steps []json.RawMessage `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Equal(t, "approved", detail.Request.Status)
	require.Len(t, detail.Steps, 3)

	status, env = call(t, ts, http.MethodGet, "/notifications/unread-count", empToken, nil)
	require.Equal(t, http.StatusOK, status)
	var unread map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	require.Positive(t, unread["unread"])

	_, env = call(t, ts, http.MethodGet, "/audit?entityType=leave_request&entityId="+submitted.ID, hrToken, nil)
	var trail struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &trail))
	require.GreaterOrEqual(t, trail.Total, 3)
}
