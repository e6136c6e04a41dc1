package payrollhandler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/payroll"
	"hris/internal/platform/storage"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *payroll.Service, perms middleware.PermissionStore, auditSvc shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Get("/register", h.handleExportRegister)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{recordID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/{recordID}", h.handleUpdate)
		r.With(
			middleware.RequirePermission(auth.PermPayrollWrite, h.Perms),
			middleware.RequirePermission(auth.PermRecordsDelete, h.Perms),
		).Delete("/{recordID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermPayrollFinalize, h.Perms)).Post("/{recordID}/finalize", h.handleFinalize)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{recordID}/payslip", h.handlePayslip)
	})
}

func filterFrom(r *http.Request) payroll.Filter {
	q := r.URL.Query()
	return payroll.Filter{
		Period:     strings.TrimSpace(q.Get("period")),
		EmployeeID: strings.TrimSpace(q.Get("employeeId")),
		Status:     strings.TrimSpace(q.Get("status")),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	records, err := h.Service.List(r.Context(), user, filterFrom(r))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, shared.PageOf(records, shared.ParsePagination(r, 50, 500)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	record, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload payroll.CreateInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	record, err := h.Service.Create(r.Context(), user.TenantID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "payroll.record.create", "payroll_record", record.ID, nil, record)
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload payroll.UpdateInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	before, err := h.Service.Get(r.Context(), user, recordID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	record, err := h.Service.Update(r.Context(), user.TenantID, recordID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "payroll.record.update", "payroll_record", recordID, before, record)
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	before, err := h.Service.Get(r.Context(), user, recordID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), user.TenantID, recordID); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "payroll.record.delete", "payroll_record", recordID, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")
	record, err := h.Service.Finalize(r.Context(), user.TenantID, recordID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "payroll.record.finalize", "payroll_record", recordID, nil, map[string]any{
		"status": record.Status,
		"net":    record.Net.StringFixed(2),
	})
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	record, pdf, err := h.Service.Payslip(r.Context(), user, chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.Attachment(w, "payslip-"+record.Period+".pdf", storage.MimePDF, bytes.NewReader(pdf))
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	filter := filterFrom(r)
	records, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	body, contentType, err := payroll.Register(records, format)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	name := "payroll-register"
	if filter.Period != "" {
		name += "-" + filter.Period
	}
	if contentType == payroll.ContentTypeXLSX {
		name += ".xlsx"
	} else {
		name += ".csv"
	}
	shared.Attachment(w, name, contentType, bytes.NewReader(body))
}
