// Package handlertest holds helpers shared by the handler package tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/requestctx"
	"hris/internal/transport/http/middleware"
)

// Routes is satisfied by every handler.
type Routes interface {
	RegisterRoutes(r chi.Router)
}

type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields []struct {
				Field  string `json:"field"`
				Reason string `json:"reason"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func Perms(t *testing.T) *auth.Enforcer {
	t.Helper()
	enf, err := auth.NewEnforcer(auth.RolePermissions)
	require.NoError(t, err)
	return enf
}

// Router mounts h behind the request id middleware.
func Router(h Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	h.RegisterRoutes(r)
	return r
}

// Serve sends a request as user. A zero user sends it anonymously.
func Serve(h http.Handler, user auth.UserContext, req *http.Request) *httptest.ResponseRecorder {
	if user.UserID != "" {
		req = req.WithContext(requestctx.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func JSON(h http.Handler, user auth.UserContext, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return Serve(h, user, req)
}

// Multipart builds a form with the given fields and one file part.
func Multipart(t *testing.T, method, path string, fields map[string]string, fileField, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func Decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// Data decodes the success payload into out.
func Data(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := Decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}
