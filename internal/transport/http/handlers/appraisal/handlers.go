package appraisalhandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/appraisal"
	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
	"hris/internal/platform/metrics"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

type Handler struct {
	Service *appraisal.Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
	Metrics *metrics.Registry
}

func NewHandler(service *appraisal.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, reg *metrics.Registry) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Metrics: reg}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/appraisals", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAppraisalManage, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermAppraisalReview, h.Perms)).Get("/queue", h.handleQueue)
		r.With(middleware.RequirePermission(auth.PermAppraisalRead, h.Perms)).Get("/{appraisalID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAppraisalWrite, h.Perms)).Put("/{appraisalID}/self", h.handleSelfAssess)
		r.With(middleware.RequirePermission(auth.PermAppraisalWrite, h.Perms)).Post("/{appraisalID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermAppraisalReview, h.Perms)).Put("/{appraisalID}/review", h.handleLeadAssess)
		r.With(middleware.RequirePermission(auth.PermAppraisalReview, h.Perms)).Post("/{appraisalID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermAppraisalReview, h.Perms)).Post("/{appraisalID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermAppraisalManage, h.Perms)).Post("/{appraisalID}/reopen", h.handleReopen)
	})
}

type appraisalView struct {
	appraisal.Appraisal
	Badge workflow.Badge `json:"badge"`
}

func view(a appraisal.Appraisal) appraisalView {
	return appraisalView{Appraisal: a, Badge: workflow.Label(a.Status)}
}

func views(items []appraisal.Appraisal) []appraisalView {
	out := make([]appraisalView, 0, len(items))
	for _, a := range items {
		out = append(out, view(a))
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	filter := appraisal.Filter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Period: strings.TrimSpace(r.URL.Query().Get("period")),
	}
	items, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, shared.PageOf(views(items), shared.ParsePagination(r, 50, 200)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Queue(r.Context(), user)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, views(items), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	a, steps, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "appraisalID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"appraisal": view(a), "steps": steps}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload appraisal.CreateInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	a, err := h.Service.Create(r.Context(), user, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "appraisal.create", workflow.EntityAppraisal, a.ID, nil, payload)
	api.Created(w, view(a), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelfAssess(w http.ResponseWriter, r *http.Request) {
	h.assess(w, r, "appraisal.self_assess", h.Service.SelfAssess)
}

func (h *Handler) handleLeadAssess(w http.ResponseWriter, r *http.Request) {
	h.assess(w, r, "appraisal.lead_assess", h.Service.LeadAssess)
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request, action string, apply func(context.Context, auth.UserContext, string, appraisal.Assessment) (appraisal.Appraisal, error)) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload appraisal.Assessment
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	appraisalID := chi.URLParam(r, "appraisalID")
	a, err := apply(r.Context(), user, appraisalID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, action, workflow.EntityAppraisal, appraisalID, nil, payload)
	api.Success(w, view(a), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionSubmit, func(user auth.UserContext, id string) (appraisal.Appraisal, error) {
		return h.Service.Submit(r.Context(), user, id)
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionApprove, func(user auth.UserContext, id string) (appraisal.Appraisal, error) {
		return h.Service.Approve(r.Context(), user, id)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var payload shared.NoteRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.decide(w, r, workflow.ActionReject, func(user auth.UserContext, id string) (appraisal.Appraisal, error) {
		return h.Service.Reject(r.Context(), user, id, payload.Note)
	})
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionReopen, func(user auth.UserContext, id string) (appraisal.Appraisal, error) {
		return h.Service.Reopen(r.Context(), user, id)
	})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, apply func(auth.UserContext, string) (appraisal.Appraisal, error)) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	appraisalID := chi.URLParam(r, "appraisalID")
	a, err := apply(user, appraisalID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.Metrics.Transition(workflow.EntityAppraisal, action)
	shared.RecordAudit(r, h.Audit, user, "appraisal."+action, workflow.EntityAppraisal, appraisalID, nil, map[string]any{"status": a.Status, "note": a.DecisionNote, "score": a.FinalScore})
	api.Success(w, view(a), middleware.GetRequestID(r.Context()))
}
