package recruitmenthandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/recruitment"
	"hris/internal/domain/workflow"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

const cvField = "cv"

type Handler struct {
	Service   *recruitment.Service
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	MaxUpload int64
}

func NewHandler(service *recruitment.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, maxUpload int64) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, MaxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/recruitment", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermRecruitRead, h.Perms)).Get("/postings", h.handleListPostings)
		r.With(middleware.RequirePermission(auth.PermRecruitWrite, h.Perms)).Post("/postings", h.handleCreatePosting)
		r.With(middleware.RequirePermission(auth.PermRecruitRead, h.Perms)).Get("/postings/{postingID}", h.handleGetPosting)
		r.With(middleware.RequirePermission(auth.PermRecruitWrite, h.Perms)).Put("/postings/{postingID}", h.handleUpdatePosting)
		r.With(middleware.RequirePermission(auth.PermRecruitRead, h.Perms)).Get("/postings/{postingID}/candidates", h.handleListCandidates)
		r.With(middleware.RequirePermission(auth.PermRecruitWrite, h.Perms)).Post("/postings/{postingID}/candidates", h.handleAddCandidate)
		r.With(middleware.RequirePermission(auth.PermRecruitWrite, h.Perms)).Post("/candidates/{candidateID}/stage", h.handleMoveCandidate)
		r.With(middleware.RequirePermission(auth.PermRecruitWrite, h.Perms)).Put("/candidates/{candidateID}/cv", h.handleUploadCV)
		r.With(middleware.RequirePermission(auth.PermRecruitRead, h.Perms)).Get("/candidates/{candidateID}/cv", h.handleDownloadCV)
	})
}

type postingView struct {
	recruitment.JobPosting
	Badge workflow.Badge `json:"badge"`
}

type candidateView struct {
	recruitment.Candidate
	HasCV bool           `json:"hasCv"`
	Badge workflow.Badge `json:"badge"`
}

func candidateOf(c recruitment.Candidate) candidateView {
	return candidateView{Candidate: c, HasCV: c.HasCV(), Badge: workflow.Label(c.Stage)}
}

func (h *Handler) handleListPostings(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	postings, err := h.Service.ListPostings(r.Context(), user.TenantID, recruitment.PostingFilter{Status: strings.TrimSpace(r.URL.Query().Get("status"))})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	out := make([]postingView, 0, len(postings))
	for _, p := range postings {
		out = append(out, postingView{JobPosting: p, Badge: workflow.Label(p.Status)})
	}
	api.Success(w, shared.PageOf(out, shared.ParsePagination(r, 50, 200)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPosting(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	p, err := h.Service.GetPosting(r.Context(), user.TenantID, chi.URLParam(r, "postingID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, postingView{JobPosting: p, Badge: workflow.Label(p.Status)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload recruitment.PostingInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	p, err := h.Service.CreatePosting(r.Context(), user.TenantID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "recruitment.posting.create", "job_posting", p.ID, nil, p)
	api.Created(w, postingView{JobPosting: p, Badge: workflow.Label(p.Status)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePosting(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload recruitment.PostingInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	postingID := chi.URLParam(r, "postingID")
	before, err := h.Service.GetPosting(r.Context(), user.TenantID, postingID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	p, err := h.Service.UpdatePosting(r.Context(), user.TenantID, postingID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "recruitment.posting.update", "job_posting", postingID, before, p)
	api.Success(w, postingView{JobPosting: p, Badge: workflow.Label(p.Status)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	stage := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("stage")))
	candidates, err := h.Service.ListCandidates(r.Context(), user.TenantID, chi.URLParam(r, "postingID"), stage)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	out := make([]candidateView, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidateOf(c))
	}
	api.Success(w, shared.PageOf(out, shared.ParsePagination(r, 50, 200)), middleware.GetRequestID(r.Context()))
}

// handleAddCandidate takes JSON, or multipart with the candidate in "payload"
// and an optional CV in "cv".
func (h *Handler) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload recruitment.CandidateInput
	var cv *recruitment.Attachment
	if shared.IsMultipart(r) {
		upload, ok := shared.DecodeMultipart(w, r, &payload, cvField, h.MaxUpload)
		if !ok {
			return
		}
		if upload != nil {
			cv = &recruitment.Attachment{Name: upload.Name, Data: upload.Data}
		}
	} else if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	c, err := h.Service.AddCandidate(r.Context(), user.TenantID, chi.URLParam(r, "postingID"), payload, cv)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "recruitment.candidate.create", "candidate", c.ID, nil, map[string]any{
		"postingId": c.JobPostingID,
		"fullName":  c.FullName,
		"hasCv":     c.HasCV(),
	})
	api.Created(w, candidateOf(c), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMoveCandidate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload recruitment.MoveInput
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	candidateID := chi.URLParam(r, "candidateID")
	c, err := h.Service.MoveCandidate(r.Context(), user.TenantID, candidateID, payload)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "recruitment.candidate.move", "candidate", candidateID, nil, map[string]string{"stage": c.Stage})
	api.Success(w, candidateOf(c), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUploadCV(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var none struct{}
	upload, ok := shared.DecodeMultipart(w, r, &none, cvField, h.MaxUpload)
	if !ok {
		return
	}
	if upload == nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: cvField, Reason: "is required"}})
		return
	}
	candidateID := chi.URLParam(r, "candidateID")
	c, err := h.Service.UploadCV(r.Context(), user.TenantID, candidateID, recruitment.Attachment{Name: upload.Name, Data: upload.Data})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "recruitment.candidate.cv_upload", "candidate", candidateID, nil, map[string]string{"cvName": c.CVName})
	api.Success(w, candidateOf(c), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadCV(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	c, body, err := h.Service.DownloadCV(r.Context(), user.TenantID, chi.URLParam(r, "candidateID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	defer body.Close()
	shared.Attachment(w, c.CVName, c.CVContentType, body)
}
