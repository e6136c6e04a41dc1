package handover

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const reportColumns = `
  h.id, h.employee_id, e.first_name || ' ' || e.last_name, COALESCE(e.manager_id::text, ''),
  h.colleague_id, c.first_name || ' ' || c.last_name, COALESCE(h.leave_request_id::text, ''),
  h.summary, h.responsibilities, h.file_key, h.file_name, h.file_size, h.status, h.decision_note,
  h.created_at, h.updated_at`

const reportFrom = `
  FROM handover_reports h
  JOIN employees e ON e.id = h.employee_id
  JOIN employees c ON c.id = h.colleague_id`

func scanReport(row pgx.Row) (Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.ManagerID, &r.ColleagueID, &r.ColleagueName,
		&r.LeaveRequestID, &r.Summary, &r.Responsibilities, &r.FileKey, &r.FileName, &r.FileSize, &r.Status,
		&r.DecisionNote, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, errors.Wrap(err, "scan handover report")
}

func collect(rows pgx.Rows, err error) ([]Report, error) {
	if err != nil {
		return nil, errors.Wrap(err, "query handover reports")
	}
	defer rows.Close()
	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "iterate handover reports")
}

func (s *Store) Create(ctx context.Context, tenantID string, r Report, step workflow.Step) (string, error) {
	if r.Responsibilities == nil {
		r.Responsibilities = []Responsibility{}
	}
	var id string
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO handover_reports (tenant_id, employee_id, colleague_id, leave_request_id, summary, responsibilities,
        file_key, file_name, file_size, status)
      VALUES ($1,$2,$3,NULLIF($4,'')::uuid,$5,$6,$7,$8,$9,$10)
      RETURNING id
    `, tenantID, r.EmployeeID, r.ColleagueID, r.LeaveRequestID, r.Summary, r.Responsibilities,
			r.FileKey, r.FileName, r.FileSize, r.Status).Scan(&id); err != nil {
			return errors.Wrap(err, "insert handover report")
		}
		step.EntityID = id
		return workflow.RecordStep(ctx, tx, tenantID, step)
	})
	return id, err
}

func (s *Store) Get(ctx context.Context, tenantID, reportID string) (Report, error) {
	return scanReport(s.DB.QueryRow(ctx, `
    SELECT `+reportColumns+reportFrom+`
    WHERE h.tenant_id = $1 AND h.id = $2
  `, tenantID, reportID))
}

// List also returns reports handed to the caller as colleague.
func (s *Store) List(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Report, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+reportColumns+reportFrom+`
    WHERE h.tenant_id = $1
      AND ($2 OR e.id::text = $3 OR h.colleague_id::text = $3 OR ($4 AND e.manager_id::text = $3))
      AND ($5 = '' OR h.status = $5)
    ORDER BY h.created_at DESC
  `, tenantID, scope.All, scope.EmployeeID, scope.WithReports, filter.Status))
}

func (s *Store) Pending(ctx context.Context, tenantID string) ([]Report, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+reportColumns+reportFrom+`
    WHERE h.tenant_id = $1 AND h.status LIKE 'pending\_%'
    ORDER BY h.created_at
  `, tenantID))
}

func (s *Store) Transition(ctx context.Context, tenantID string, r Report, d workflow.Decision, step workflow.Step) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := workflow.Advance(ctx, tx, "handover_reports", tenantID, r.ID, d); err != nil {
			return err
		}
		return workflow.RecordStep(ctx, tx, tenantID, step)
	})
}

func (s *Store) Steps(ctx context.Context, tenantID, reportID string) ([]workflow.Step, error) {
	return workflow.ListSteps(ctx, s.DB, tenantID, workflow.EntityHandover, reportID)
}
