package audithandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hris/internal/domain/audit"
	"hris/internal/domain/auth"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

// Reader is the query side of the audit trail.
type Reader interface {
	Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error)
	List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Service Reader
	Perms   middleware.PermissionStore
}

func NewHandler(service Reader, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/audit", h.handleList)
}

// handleList filters by action, entityType, entityId, actorUserId and a
// from/to date window where to is inclusive.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := audit.Filter{
		Action:     strings.TrimSpace(q.Get("action")),
		EntityType: strings.TrimSpace(q.Get("entityType")),
		EntityID:   strings.TrimSpace(q.Get("entityId")),
		ActorUser:  strings.TrimSpace(q.Get("actorUserId")),
	}
	from := v.Date("from", q.Get("from"))
	to := v.Date("to", q.Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if !from.IsZero() {
		filter.Since = &from
	}
	if !to.IsZero() {
		until := to.Add(24 * time.Hour)
		filter.Until = &until
	}

	page := shared.ParsePagination(r, 100, 500)
	total, err := h.Service.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		slog.WarnContext(r.Context(), "audit count failed", "err", err)
	}
	events, err := h.Service.List(r.Context(), user.TenantID, filter, q.Get("includeDetails") == "true", page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	api.Success(w, shared.Paged(events, total, page), middleware.GetRequestID(r.Context()))
}
