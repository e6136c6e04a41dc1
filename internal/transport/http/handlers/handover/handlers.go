package handoverhandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/handover"
	"hris/internal/domain/workflow"
	"hris/internal/platform/metrics"
	"hris/internal/platform/storage"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

// reportField is the multipart part carrying the PDF.
const reportField = "report"

type Handler struct {
	Service   *handover.Service
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	Metrics   *metrics.Registry
	MaxUpload int64
}

func NewHandler(service *handover.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, reg *metrics.Registry, maxUpload int64) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Metrics: reg, MaxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/handover", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermHandoverRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermHandoverWrite, h.Perms)).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermHandoverApprove, h.Perms)).Get("/queue", h.handleQueue)
		r.With(middleware.RequirePermission(auth.PermHandoverRead, h.Perms)).Get("/{reportID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermHandoverRead, h.Perms)).Get("/{reportID}/file", h.handleDownload)
		r.With(middleware.RequirePermission(auth.PermHandoverApprove, h.Perms)).Post("/{reportID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermHandoverApprove, h.Perms)).Post("/{reportID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermHandoverWrite, h.Perms)).Post("/{reportID}/cancel", h.handleCancel)
	})
}

type reportView struct {
	handover.Report
	HasFile bool           `json:"hasFile"`
	Badge   workflow.Badge `json:"badge"`
}

func view(rep handover.Report) reportView {
	return reportView{Report: rep, HasFile: rep.HasFile(), Badge: workflow.Label(rep.Status)}
}

func views(reps []handover.Report) []reportView {
	out := make([]reportView, 0, len(reps))
	for _, rep := range reps {
		out = append(out, view(rep))
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reps, err := h.Service.List(r.Context(), user, handover.Filter{Status: strings.TrimSpace(r.URL.Query().Get("status"))})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, shared.PageOf(views(reps), shared.ParsePagination(r, 50, 200)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reps, err := h.Service.Queue(r.Context(), user)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, views(reps), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	rep, steps, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "reportID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"report": view(rep), "steps": steps}, middleware.GetRequestID(r.Context()))
}

// handleSubmit accepts either a JSON body or a multipart form with the
// metadata in "payload" and an optional PDF in "report".
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload handover.SubmitInput
	var att *handover.Attachment
	if shared.IsMultipart(r) {
		upload, ok := shared.DecodeMultipart(w, r, &payload, reportField, h.MaxUpload)
		if !ok {
			return
		}
		if upload != nil {
			att = &handover.Attachment{Name: upload.Name, Data: upload.Data}
		}
	} else if !shared.DecodeJSON(w, r, &payload) {
		return
	}

	rep, err := h.Service.Submit(r.Context(), user, payload, att)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.Metrics.Transition(workflow.EntityHandover, workflow.ActionSubmit)
	shared.RecordAudit(r, h.Audit, user, "handover.report.create", "handover_report", rep.ID, nil, map[string]any{
		"colleagueId": rep.ColleagueID,
		"status":      rep.Status,
		"fileName":    rep.FileName,
	})
	api.Created(w, view(rep), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	rep, body, err := h.Service.Download(r.Context(), user, chi.URLParam(r, "reportID"))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	defer body.Close()
	shared.Attachment(w, rep.FileName, storage.MimePDF, body)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionApprove, func(user auth.UserContext, id string) (handover.Report, error) {
		return h.Service.Approve(r.Context(), user, id)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var payload shared.NoteRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.decide(w, r, workflow.ActionReject, func(user auth.UserContext, id string) (handover.Report, error) {
		return h.Service.Reject(r.Context(), user, id, payload.Note)
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.ActionCancel, func(user auth.UserContext, id string) (handover.Report, error) {
		return h.Service.Cancel(r.Context(), user, id)
	})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, apply func(auth.UserContext, string) (handover.Report, error)) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reportID := chi.URLParam(r, "reportID")
	rep, err := apply(user, reportID)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	h.Metrics.Transition(workflow.EntityHandover, action)
	shared.RecordAudit(r, h.Audit, user, "handover.report."+action, "handover_report", reportID, nil, map[string]string{"status": rep.Status, "note": rep.DecisionNote})
	api.Success(w, view(rep), middleware.GetRequestID(r.Context()))
}
