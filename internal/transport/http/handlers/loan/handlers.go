package loanhandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/loan"
	"hris/internal/domain/workflow"
	"hris/internal/platform/metrics"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *loan.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
	Metrics *metrics.Registry
}

func NewHandler(service *loan.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, reg *metrics.Registry) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Metrics: reg}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/loans", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLoanRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLoanWrite, h.Perms)).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLoanApprove, h.Perms)).Get("/queue", h.handleQueue)
		r.With(middleware.RequirePermission(auth.PermLoanRead, h.Perms)).Get("/{loanID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLoanApprove, h.Perms)).Post("/{loanID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermLoanApprove, h.Perms)).Post("/{loanID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermLoanWrite, h.Perms)).Post("/{loanID}/cancel", h.handleCancel)
	})
}

type loanView struct {
	loan.Request
	Badge workflow.Badge `json:"badge"`
}

type loanDetail struct {
	Loan     loanView           `json:"loan"`
	Schedule []loan.Installment `json:"schedule"`
	Steps    []workflow.Step    `json:"steps"`
}

func view(req loan.Request) loanView {
	return loanView{Request: req, Badge: workflow.Label(req.Status)}
}

func views(reqs []loan.Request) []loanView {
	out := make([]loanView, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, view(req))
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reqs, err := h.Service.List(r.Context(), user, loan.Filter{Status: strings.TrimSpace(r.URL.Query().Get("status"))})
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

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	req, schedule, steps, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "loanID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, loanDetail{Loan: view(req), Schedule: schedule, Steps: steps}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload loan.SubmitInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	req, err := h.Service.Submit(r.Context(), user, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.Metrics.Transition(workflow.EntityLoan, workflow.ActionSubmit)
	shared.RecordAudit(r, h.Audit, user, "loan.request.create", workflow.EntityLoan, req.ID, nil, map[string]any{
		"amount":       req.Amount.StringFixed(2),
		"installments": req.Installments,
		"status":       req.Status,
	})
	api.Created(w, view(req), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionApprove, func(user auth.UserContext, id string) (loan.Request, error) {
		return h.Service.Approve(r.Context(), user, id)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var payload shared.NoteRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.decide(w, r, workflow.ActionReject, func(user auth.UserContext, id string) (loan.Request, error) {
		return h.Service.Reject(r.Context(), user, id, payload.Note)
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionCancel, func(user auth.UserContext, id string) (loan.Request, error) {
		return h.Service.Cancel(r.Context(), user, id)
	})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, apply func(auth.UserContext, string) (loan.Request, error)) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	loanID := chi.URLParam(r, "loanID")
	req, err := apply(user, loanID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.Metrics.Transition(workflow.EntityLoan, action)
	shared.RecordAudit(r, h.Audit, user, "loan.request."+action, workflow.EntityLoan, loanID, nil, map[string]string{"status": req.Status, "note": req.DecisionNote})
	api.Success(w, view(req), middleware.GetRequestID(r.Context()))
}
