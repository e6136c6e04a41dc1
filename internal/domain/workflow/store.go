package workflow

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"hris/internal/platform/db"
)

const (
	EntityLeave     = "leave_request"
	EntityHandover  = "handover_report"
	EntityAppraisal = "appraisal"
	EntityLoan      = "loan_request"
)

// Step is one entry of a record's decision history.
type Step struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	ActorID    string    `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	Action     string    `json:"action"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Note       string    `json:"note,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

func NewStep(entityType, entityID, action string, actor Actor, d Decision) Step {
	return Step{
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     action,
		FromStatus: d.From,
		ToStatus:   d.To,
		Note:       d.Note,
	}
}

// Advance moves the row to d.To only while it still holds d.From.
// A concurrent transition surfaces as ErrStaleState.
func Advance(ctx context.Context, q db.Querier, table, tenantID, id string, d Decision) error {
	tag, err := q.Exec(ctx, `
    UPDATE `+pgx.Identifier{table}.Sanitize()+`
    SET status = $1, decision_note = COALESCE(NULLIF($2, ''), decision_note), updated_at = now()
    WHERE tenant_id = $3 AND id = $4 AND status = $5
  `, d.To, d.Note, tenantID, id, d.From)
	if err != nil {
		return errors.Wrap(err, "advance "+table)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

func RecordStep(ctx context.Context, q db.Querier, tenantID string, step Step) error {
	_, err := q.Exec(ctx, `
    INSERT INTO approval_steps (tenant_id, entity_type, entity_id, actor_user_id, actor_role, action, from_status, to_status, note)
    VALUES ($1,$2,$3,NULLIF($4,'')::uuid,$5,$6,$7,$8,$9)
  `, tenantID, step.EntityType, step.EntityID, step.ActorID, step.ActorRole, step.Action, step.FromStatus, step.ToStatus, step.Note)
	return errors.Wrap(err, "insert approval step")
}

func ListSteps(ctx context.Context, q db.Querier, tenantID, entityType, entityID string) ([]Step, error) {
	rows, err := q.Query(ctx, `
    SELECT id, entity_type, entity_id, COALESCE(actor_user_id::text, ''), actor_role, action, from_status, to_status, note, decided_at
    FROM approval_steps
    WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
    ORDER BY decided_at, id
  `, tenantID, entityType, entityID)
	if err != nil {
		return nil, errors.Wrap(err, "query approval steps")
	}
	defer rows.Close()

	var out []Step
	for rows.Next() {
		var s Step
		if err := rows.Scan(&s.ID, &s.EntityType, &s.EntityID, &s.ActorID, &s.ActorRole, &s.Action, &s.FromStatus, &s.ToStatus, &s.Note, &s.DecidedAt); err != nil {
			return nil, errors.Wrap(err, "scan approval step")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "iterate approval steps")
}
