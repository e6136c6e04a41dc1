package documentshandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/documents"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

const fileField = "file"

type Handler struct {
	Service   *documents.Service
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	MaxUpload int64
}

func NewHandler(service *documents.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, maxUpload int64) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, MaxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDocumentsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermDocumentsWrite, h.Perms)).Post("/", h.handleUpload)
		r.With(middleware.RequirePermission(auth.PermDocumentsRead, h.Perms)).Get("/{documentID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermDocumentsRead, h.Perms)).Get("/{documentID}/download", h.handleDownload)
		r.With(middleware.RequirePermission(auth.PermRecordsDelete, h.Perms)).Delete("/{documentID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	filter := documents.Filter{
		Category:   strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category"))),
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
	}
	docs, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, shared.PageOf(docs, shared.ParsePagination(r, 50, 200)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	doc, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "documentID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, doc, middleware.GetRequestID(r.Context()))
}

// handleUpload reads a multipart form: title, category and employeeId as
// plain fields (or a JSON "payload"), the file in "file".
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	if shared.IsMultipart(r) {
		if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart form", middleware.GetRequestID(r.Context()))
			return
		}
	}
	payload := documents.UploadInput{
		Title:      shared.FormValue(r, "title"),
		Category:   shared.FormValue(r, "category"),
		EmployeeID: shared.FormValue(r, "employeeId"),
	}
	upload, ok := shared.DecodeMultipart(w, r, &payload, fileField, h.MaxUpload)
	if !ok {
		return
	}
	if upload == nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: fileField, Reason: "is required"}})
		return
	}
	doc, err := h.Service.Upload(r.Context(), user, payload, documents.Attachment{Name: upload.Name, Data: upload.Data})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "documents.upload", "document", doc.ID, nil, doc)
	api.Created(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	doc, body, err := h.Service.Download(r.Context(), user, chi.URLParam(r, "documentID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	defer body.Close()
	shared.Attachment(w, doc.FileName, doc.ContentType, body)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	documentID := chi.URLParam(r, "documentID")
	doc, err := h.Service.Delete(r.Context(), user, documentID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "documents.delete", "document", documentID, doc, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
