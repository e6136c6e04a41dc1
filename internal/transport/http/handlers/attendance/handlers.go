package attendancehandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/attendance"
	"hris/internal/domain/auth"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
}

func NewHandler(service *attendance.Service, perms middleware.PermissionStore, auditSvc shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/check-in", h.handleCheckIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/check-out", h.handleCheckOut)
	})
}

type checkInRequest struct {
	Note string `json:"note" validate:"max=500"`
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload checkInRequest
	if r.ContentLength != 0 {
		if !shared.DecodeJSON(w, r, &payload) {
			return
		}
	}
	rec, err := h.Service.CheckIn(r.Context(), user, payload.Note)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "attendance.check_in", "attendance_record", rec.ID, nil, rec)
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.CheckOut(r.Context(), user)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "attendance.check_out", "attendance_record", rec.ID, nil, rec)
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	from := v.Date("from", r.URL.Query().Get("from"))
	to := v.Date("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	filter := attendance.Filter{}
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		filter.To = &to
	}
	records, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, shared.PageOf(records, shared.ParsePagination(r, 50, 500)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	month := v.Month("month", r.URL.Query().Get("month"), time.Now())
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	summary, err := h.Service.MonthlySummary(r.Context(), user, month)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}
