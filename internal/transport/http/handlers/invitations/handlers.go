package invitationshandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/auth"
	"hris/internal/domain/invitations"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

const fileField = "file"

type Handler struct {
	Service   *invitations.Service
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	MaxUpload int64
}

func NewHandler(service *invitations.Service, perms middleware.PermissionStore, auditSvc shared.Auditor, maxUpload int64) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, MaxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/invitations", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermInvitesWrite, h.Perms))
		r.Get("/", h.handleList)
		r.Post("/", h.handleInvite)
		r.Post("/bulk", h.handleBulk)
		r.Post("/{invitationID}/resend", h.handleResend)
		r.Post("/{invitationID}/revoke", h.handleRevoke)
	})
}

// inviteRow carries no validate tags: rows are normalized and checked by the
// service so that one bad line never rejects the whole batch.
type inviteRow struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
	Department string `json:"department"`
	ManagerID  string `json:"managerId"`
}

func (in inviteRow) row(line int) invitations.Row {
	return invitations.Row{
		Line:       line,
		Email:      in.Email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Role:       in.Role,
		Department: in.Department,
		ManagerID:  in.ManagerID,
	}
}

type bulkRequest struct {
	Rows []inviteRow `json:"rows" validate:"required,min=1,max=500"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.List(r.Context(), user.TenantID, invitations.Filter{Status: strings.TrimSpace(r.URL.Query().Get("status"))})
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	api.Success(w, shared.PageOf(items, shared.ParsePagination(r, 50, 500)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload inviteRow
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	inv, err := h.Service.Invite(r.Context(), user, payload.row(1))
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "invitations.invitation.create", "invitation", inv.ID, nil, inv)
	api.Created(w, inv, middleware.GetRequestID(r.Context()))
}

// handleBulk takes either a JSON list of rows or a CSV/XLSX file upload.
// Spreadsheet lines are numbered from the header, JSON rows from one.
func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var rows []invitations.Row
	if shared.IsMultipart(r) {
		var meta struct{}
		upload, ok := shared.DecodeMultipart(w, r, &meta, fileField, h.MaxUpload)
		if !ok {
			return
		}
		if upload == nil {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: fileField, Reason: "is required"}})
			return
		}
		parsed, err := invitations.ParseFile(upload.Name, upload.Data)
		if err != nil {
			shared.WriteError(w, r, err)
			return
		}
		rows = parsed
	} else {
		var payload bulkRequest
		if !shared.DecodeJSON(w, r, &payload) {
			return
		}
		for i, in := range payload.Rows {
			rows = append(rows, in.row(i+1))
		}
	}

	res, err := h.Service.Bulk(r.Context(), user, rows)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	ids := make([]string, 0, len(res.Created))
	for _, inv := range res.Created {
		ids = append(ids, inv.ID)
	}
	shared.RecordAudit(r, h.Audit, user, "invitations.invitation.bulk", "invitation", "", nil,
		map[string]any{"created": ids, "invalid": len(res.Invalid)})
	if len(res.Created) == 0 {
		api.Success(w, res, requestID)
		return
	}
	api.Created(w, res, requestID)
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "invitationID")
	inv, err := h.Service.Resend(r.Context(), user, id)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "invitations.invitation.resend", "invitation", id, nil, inv)
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "invitationID")
	if err := h.Service.Revoke(r.Context(), user, id); err != nil {
		shared.WriteError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, "invitations.invitation.revoke", "invitation", id, nil, map[string]string{"status": invitations.StatusRevoked})
	api.Success(w, map[string]string{"status": invitations.StatusRevoked}, middleware.GetRequestID(r.Context()))
}
