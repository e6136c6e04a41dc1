package appraisal

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
	"hris/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const appraisalColumns = `
  a.id, a.employee_id, e.first_name || ' ' || e.last_name, COALESCE(e.manager_id::text, ''),
  a.period, a.status, a.self_comment, a.lead_comment, a.score::float8, a.decision_note,
  a.created_at, a.updated_at`

const appraisalFrom = `
  FROM appraisals a
  JOIN employees e ON e.id = a.employee_id`

func scanAppraisal(row pgx.Row) (Appraisal, error) {
	var a Appraisal
	err := row.Scan(&a.ID, &a.EmployeeID, &a.EmployeeName, &a.ManagerID, &a.Period, &a.Status,
		&a.SelfComment, &a.LeadComment, &a.FinalScore, &a.DecisionNote, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, errors.Wrap(err, "scan appraisal")
}

func (s *Store) collect(rows pgx.Rows, err error) ([]Appraisal, error) {
	if err != nil {
		return nil, errors.Wrap(err, "query appraisals")
	}
	defer rows.Close()
	var out []Appraisal
	for rows.Next() {
		a, err := scanAppraisal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, errors.Wrap(rows.Err(), "iterate appraisals")
}

func (s *Store) Create(ctx context.Context, tenantID, createdBy string, a Appraisal) (string, error) {
	var id string
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
      INSERT INTO appraisals (tenant_id, employee_id, period, status, created_by)
      VALUES ($1,$2,$3,$4,NULLIF($5,'')::uuid)
      RETURNING id
    `, tenantID, a.EmployeeID, a.Period, a.Status, createdBy).Scan(&id)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		if err != nil {
			return errors.Wrap(err, "insert appraisal")
		}
		for i, o := range a.Objectives {
			if _, err := tx.Exec(ctx, `
        INSERT INTO appraisal_objectives (appraisal_id, position, title, weight)
        VALUES ($1,$2,$3,$4)
      `, id, i, o.Title, o.Weight); err != nil {
				return errors.Wrap(err, "insert appraisal objective")
			}
		}
		return nil
	})
	return id, err
}

func (s *Store) Get(ctx context.Context, tenantID, appraisalID string) (Appraisal, error) {
	a, err := scanAppraisal(s.DB.QueryRow(ctx, `SELECT `+appraisalColumns+appraisalFrom+`
    WHERE a.tenant_id = $1 AND a.id = $2
  `, tenantID, appraisalID))
	if err != nil {
		return a, err
	}
	a.Objectives, err = listObjectives(ctx, s.DB, a.ID)
	return a, err
}

func listObjectives(ctx context.Context, q db.Querier, appraisalID string) ([]Objective, error) {
	rows, err := q.Query(ctx, `
    SELECT id, title, weight, self_score, lead_score, comment
    FROM appraisal_objectives
    WHERE appraisal_id = $1
    ORDER BY position
  `, appraisalID)
	if err != nil {
		return nil, errors.Wrap(err, "query appraisal objectives")
	}
	defer rows.Close()
	out := []Objective{}
	for rows.Next() {
		var o Objective
		if err := rows.Scan(&o.ID, &o.Title, &o.Weight, &o.SelfScore, &o.LeadScore, &o.Comment); err != nil {
			return nil, errors.Wrap(err, "scan appraisal objective")
		}
		out = append(out, o)
	}
	return out, errors.Wrap(rows.Err(), "iterate appraisal objectives")
}

func (s *Store) List(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Appraisal, error) {
	return s.collect(s.DB.Query(ctx, `SELECT `+appraisalColumns+appraisalFrom+`
    WHERE a.tenant_id = $1
      AND ($2 OR e.id::text = $3 OR ($4 AND e.manager_id::text = $3))
      AND ($5 = '' OR a.status = $5)
      AND ($6 = '' OR a.period = $6)
    ORDER BY a.period DESC, e.last_name
  `, tenantID, scope.All, scope.EmployeeID, scope.WithReports, filter.Status, filter.Period))
}

func (s *Store) Pending(ctx context.Context, tenantID string) ([]Appraisal, error) {
	return s.collect(s.DB.Query(ctx, `SELECT `+appraisalColumns+appraisalFrom+`
    WHERE a.tenant_id = $1 AND a.status LIKE 'pending\_%'
    ORDER BY a.updated_at
  `, tenantID))
}

// SaveAssessment writes scores and comments while the row still holds a.Status.
func (s *Store) SaveAssessment(ctx context.Context, tenantID string, a Appraisal) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE appraisals
      SET self_comment = $1, lead_comment = $2, updated_at = now()
      WHERE tenant_id = $3 AND id = $4 AND status = $5
    `, a.SelfComment, a.LeadComment, tenantID, a.ID, a.Status)
		if err != nil {
			return errors.Wrap(err, "update appraisal comments")
		}
		if tag.RowsAffected() == 0 {
			return workflow.ErrStaleState
		}
		for _, o := range a.Objectives {
			if _, err := tx.Exec(ctx, `
        UPDATE appraisal_objectives
        SET self_score = $1, lead_score = $2, comment = $3
        WHERE appraisal_id = $4 AND id = $5
      `, o.SelfScore, o.LeadScore, o.Comment, a.ID, o.ID); err != nil {
				return errors.Wrap(err, "update appraisal objective")
			}
		}
		return nil
	})
}

func (s *Store) Transition(ctx context.Context, tenantID string, a Appraisal, d workflow.Decision, step workflow.Step) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := workflow.Advance(ctx, tx, "appraisals", tenantID, a.ID, d); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
      UPDATE appraisals SET score = $1 WHERE tenant_id = $2 AND id = $3
    `, a.FinalScore, tenantID, a.ID); err != nil {
			return errors.Wrap(err, "update appraisal score")
		}
		return workflow.RecordStep(ctx, tx, tenantID, step)
	})
}

func (s *Store) Steps(ctx context.Context, tenantID, appraisalID string) ([]workflow.Step, error) {
	return workflow.ListSteps(ctx, s.DB, tenantID, workflow.EntityAppraisal, appraisalID)
}
