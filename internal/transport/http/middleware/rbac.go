package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"hris/internal/transport/http/api"
)

// PermissionStore answers role permission checks. auth.Enforcer implements it.
type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// Can reports whether the authenticated caller's role grants permission.
// Anonymous callers never can.
func Can(ctx context.Context, store PermissionStore, permission string) (bool, error) {
	user, ok := GetUser(ctx)
	if !ok {
		return false, nil
	}
	return store.HasPermission(ctx, user.RoleName, permission)
}

// RequirePermission answers 401 for anonymous callers, 403 when the role
// lacks permission and 500 when the check itself fails.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user, ok := GetUser(ctx)
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(ctx))
				return
			}
			allowed, err := Can(ctx, store, permission)
			switch {
			case err != nil:
				slog.ErrorContext(ctx, "permission check failed", "role", user.RoleName, "permission", permission, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(ctx))
			case !allowed:
				slog.DebugContext(ctx, "permission denied", "userId", user.UserID, "role", user.RoleName, "permission", permission)
				api.Fail(w, http.StatusForbidden, "forbidden", "missing permission "+permission, GetRequestID(ctx))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
