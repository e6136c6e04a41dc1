package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"hris/internal/domain/auth"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
)

func ClientIP(r *http.Request) string {
	return middleware.ClientIP(r)
}

// RequireUser returns the authenticated user or writes a 401.
func RequireUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return auth.UserContext{}, false
	}
	return user, true
}

// DecodeJSON decodes the body into dst and runs its validate tags. On failure
// it writes the response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	requestID := middleware.GetRequestID(r.Context())
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return false
	}
	return !ValidateStruct(w, requestID, dst)
}

// Upload is one file part of a multipart request.
type Upload struct {
	Name string
	Data []byte
}

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

// ReadUpload parses the multipart form and reads the named file part. A
// missing part returns a nil Upload and no error.
func ReadUpload(r *http.Request, field string, maxBytes int64) (*Upload, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, &http.MaxBytesError{Limit: maxBytes}
	}
	return &Upload{Name: header.Filename, Data: data}, nil
}

// FormValue trims a multipart or urlencoded form value.
func FormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// Attachment writes a stored file with a download disposition.
func Attachment(w http.ResponseWriter, name, contentType string, body io.Reader) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

// NoteRequest is the body of a reject action.
type NoteRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

// DecodeMultipart reads a multipart submission whose metadata travels as a
// JSON document in the "payload" field and whose file travels in fileField.
// The file part is optional; callers that require it check for nil.
func DecodeMultipart(w http.ResponseWriter, r *http.Request, dst any, fileField string, maxBytes int64) (*Upload, bool) {
	requestID := middleware.GetRequestID(r.Context())
	if !IsMultipart(r) {
		api.Fail(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected multipart/form-data", requestID)
		return nil, false
	}
	upload, err := ReadUpload(r, fileField, maxBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "file_too_large", "uploaded file too large", requestID)
			return nil, false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart form", requestID)
		return nil, false
	}
	if raw := FormValue(r, "payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
			return nil, false
		}
	}
	if ValidateStruct(w, requestID, dst) {
		return nil, false
	}
	return upload, true
}
