package workflow

import (
	"context"
	"log/slog"

	"hris/internal/domain/notifications"
)

type Notifier interface {
	Broadcast(ctx context.Context, tenantID string, userIDs []string, ntype, title, body string)
}

// Announce tells whoever is affected by d: the reviewers of the next stage
// while pending, otherwise the owner. Lookup failures are logged only.
func Announce(ctx context.Context, dir Directory, n Notifier, tenantID string, d Decision, ownerEmployeeID, ownerUserID, what string) {
	if n == nil {
		return
	}
	if IsPending(d.To) {
		ids, err := Reviewers(ctx, dir, tenantID, d.To, ownerEmployeeID)
		if err != nil {
			slog.Warn("reviewer lookup failed", "status", d.To, "err", err)
			return
		}
		n.Broadcast(ctx, tenantID, ids, notifications.TypeApprovalRequested, what+" awaiting your review", "")
		return
	}
	if ownerUserID == "" {
		return
	}
	switch d.To {
	case StatusApproved:
		n.Broadcast(ctx, tenantID, []string{ownerUserID}, notifications.TypeRequestApproved, what+" approved", "")
	case StatusRejected:
		n.Broadcast(ctx, tenantID, []string{ownerUserID}, notifications.TypeRequestRejected, what+" rejected", d.Note)
	}
}

// Actionable reports whether actor may approve or reject the record right now.
func (c Chain) Actionable(status string, actor Actor, subject Subject) bool {
	return c.Authorize(status, actor, subject) == nil
}
