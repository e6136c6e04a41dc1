package shared

import (
	"context"
	"log/slog"
	"net/http"

	"hris/internal/domain/auth"
	"hris/internal/transport/http/middleware"
)

type Auditor interface {
	Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// RecordAudit writes an audit event for a completed mutation. Failures are
// logged and never change the response.
func RecordAudit(r *http.Request, a Auditor, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if a == nil {
		return
	}
	err := a.Record(r.Context(), user.TenantID, user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), ClientIP(r), before, after)
	if err != nil {
		slog.Warn("audit "+action+" failed", "entityId", entityID, "err", err)
	}
}
