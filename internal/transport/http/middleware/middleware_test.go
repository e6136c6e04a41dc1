package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/platform/metrics"
	"hris/internal/requestctx"
)

func TestLoggerWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leave/requests", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "http request", line["msg"])
	require.Equal(t, "/api/v1/leave/requests", line["path"])
	require.EqualValues(t, http.StatusCreated, line["status"])
	require.Equal(t, "req-42", line["requestId"])
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"internal_error"`)
}

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(8, 32)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 16))))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 16)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSecureHeadersAndCORS(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(SecureHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type staticPerms map[string]bool

func (s staticPerms) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return s[role+":"+permission], nil
}

func TestRequirePermission(t *testing.T) {
	guard := RequirePermission(auth.PermPayrollWrite, staticPerms{"hr:" + auth.PermPayrollWrite: true})
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name string
		ctx  context.Context
		want int
	}{
		{"anonymous", context.Background(), http.StatusUnauthorized},
		{"employee", requestctx.WithUser(context.Background(), auth.UserContext{RoleName: auth.RoleEmployee}), http.StatusForbidden},
		{"hr", requestctx.WithUser(context.Background(), auth.UserContext{RoleName: auth.RoleHR}), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(tc.ctx))
			require.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusForbidden {
				require.Contains(t, rec.Body.String(), "missing permission "+auth.PermPayrollWrite)
			}
		})
	}

	broken := RequirePermission(auth.PermPayrollWrite, failingPerms{})(handler)
	rec := httptest.NewRecorder()
	hr := requestctx.WithUser(context.Background(), auth.UserContext{RoleName: auth.RoleHR})
	broken.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(hr))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	ok, err := Can(context.Background(), staticPerms{}, auth.PermPayrollWrite)
	require.NoError(t, err)
	require.False(t, ok)
}

type failingPerms struct{}

func (failingPerms) HasPermission(context.Context, string, string) (bool, error) {
	return false, errors.New("policy unavailable")
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	reg := metrics.New()
	router := chi.NewRouter()
	router.Use(Metrics(reg))
	router.Get("/leave/{id}", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/leave/abc", nil))

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `route="/leave/{id}"`)
	require.NotContains(t, string(body), "/leave/abc")
}
