package leavehandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/leave"
	"hris/internal/domain/workflow"
	"hris/internal/platform/metrics"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
	Metrics *metrics.Registry
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, reg *metrics.Registry) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Metrics: reg}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveManage, h.Perms)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveManage, h.Perms)).Put("/balances", h.handleSetEntitlement)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Get("/queue", h.handleQueue)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests/{requestID}/cancel", h.handleCancelRequest)
	})
}

type submitRequest struct {
	LeaveTypeID string `json:"leaveTypeId" validate:"required,uuid"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	StartHalf   bool   `json:"startHalf"`
	EndHalf     bool   `json:"endHalf"`
	Reason      string `json:"reason" validate:"max=1000"`
}

type entitlementRequest struct {
	EmployeeID  string  `json:"employeeId" validate:"required,uuid"`
	LeaveTypeID string  `json:"leaveTypeId" validate:"required,uuid"`
	Entitlement float64 `json:"entitlement" validate:"gte=0,lte=366"`
}

type requestView struct {
	leave.Request
	Badge workflow.Badge `json:"badge"`
}

type requestDetail struct {
	Request requestView     `json:"request"`
	Steps   []workflow.Step `json:"steps"`
}

func view(req leave.Request) requestView {
	return requestView{Request: req, Badge: workflow.Label(req.Status)}
}

func views(reqs []leave.Request) []requestView {
	out := make([]requestView, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, view(req))
	}
	return out
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	types, err := h.Service.ListTypes(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload leave.LeaveType
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	id, err := h.Service.CreateType(r.Context(), user.TenantID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "leave.type.create", "leave_type", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	balances, err := h.Service.Balances(r.Context(), user, strings.TrimSpace(r.URL.Query().Get("employeeId")))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	type balanceView struct {
		leave.Balance
		Available float64 `json:"available"`
	}
	out := make([]balanceView, 0, len(balances))
	for _, b := range balances {
		out = append(out, balanceView{Balance: b, Available: b.Available()})
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetEntitlement(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload entitlementRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if err := h.Service.SetEntitlement(r.Context(), user.TenantID, payload.EmployeeID, payload.LeaveTypeID, payload.Entitlement); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "leave.balance.set", "leave_balance", payload.EmployeeID+":"+payload.LeaveTypeID, nil, payload)
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	filter := leave.Filter{
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
	}
	reqs, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, shared.PageOf(views(reqs), shared.ParsePagination(r, 50, 200)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqs, err := h.Service.Queue(r.Context(), user)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, views(reqs), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	req, steps, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, requestDetail{Request: view(req), Steps: steps}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload submitRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	start := v.Date("startDate", payload.StartDate)
	end := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Service.Submit(r.Context(), user, leave.SubmitInput{
		LeaveTypeID: payload.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		StartHalf:   payload.StartHalf,
		EndHalf:     payload.EndHalf,
		Reason:      payload.Reason,
	})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.Metrics.Transition(workflow.EntityLeave, workflow.ActionSubmit)
	shared.RecordAudit(r, h.Audit, user, "leave.request.create", "leave_request", req.ID, nil, req)
	api.Created(w, view(req), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionApprove, func(user auth.UserContext, id string) (leave.Request, error) {
		return h.Service.Approve(r.Context(), user, id)
	})
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	var payload shared.NoteRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.decide(w, r, workflow.ActionReject, func(user auth.UserContext, id string) (leave.Request, error) {
		return h.Service.Reject(r.Context(), user, id, payload.Note)
	})
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionCancel, func(user auth.UserContext, id string) (leave.Request, error) {
		return h.Service.Cancel(r.Context(), user, id)
	})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, apply func(auth.UserContext, string) (leave.Request, error)) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	requestID := chi.URLParam(r, "requestID")
	req, err := apply(user, requestID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.Metrics.Transition(workflow.EntityLeave, action)
	shared.RecordAudit(r, h.Audit, user, "leave.request."+action, "leave_request", requestID, nil, map[string]string{"status": req.Status, "note": req.DecisionNote})
	api.Success(w, view(req), middleware.GetRequestID(r.Context()))
}
