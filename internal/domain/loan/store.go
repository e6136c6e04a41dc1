package loan

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

const loanColumns = `
  l.id, l.employee_id, e.first_name || ' ' || e.last_name, COALESCE(e.manager_id::text, ''),
  l.amount, l.purpose, l.installments, l.monthly_installment, l.outstanding,
  l.status, l.decision_note, l.created_at, l.updated_at`

const loanFrom = `
  FROM loan_requests l
  JOIN employees e ON e.id = l.employee_id`

func scanLoan(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.ManagerID, &r.Amount, &r.Purpose, &r.Installments,
		&r.MonthlyInstallment, &r.Outstanding, &r.Status, &r.DecisionNote, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, errors.Wrap(err, "scan loan request")
}

func collect(rows pgx.Rows, err error) ([]Request, error) {
	if err != nil {
		return nil, errors.Wrap(err, "query loan requests")
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		r, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "iterate loan requests")
}

func (s *Store) Create(ctx context.Context, tenantID string, r Request, step workflow.Step) (string, error) {
	var id string
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO loan_requests (tenant_id, employee_id, amount, purpose, installments, monthly_installment, outstanding, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      RETURNING id
    `, tenantID, r.EmployeeID, r.Amount, r.Purpose, r.Installments, r.MonthlyInstallment, r.Outstanding, r.Status).Scan(&id); err != nil {
			return errors.Wrap(err, "insert loan request")
		}
		step.EntityID = id
		return workflow.RecordStep(ctx, tx, tenantID, step)
	})
	return id, err
}

func (s *Store) Get(ctx context.Context, tenantID, loanID string) (Request, error) {
	return scanLoan(s.DB.QueryRow(ctx, `SELECT `+loanColumns+loanFrom+`
    WHERE l.tenant_id = $1 AND l.id = $2
  `, tenantID, loanID))
}

func (s *Store) List(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Request, error) {
	return collect(s.DB.Query(ctx, `SELECT `+loanColumns+loanFrom+`
    WHERE l.tenant_id = $1
      AND ($2 OR e.id::text = $3 OR ($4 AND e.manager_id::text = $3))
      AND ($5 = '' OR l.status = $5)
    ORDER BY l.created_at DESC
  `, tenantID, scope.All, scope.EmployeeID, scope.WithReports, filter.Status))
}

func (s *Store) Pending(ctx context.Context, tenantID string) ([]Request, error) {
	return collect(s.DB.Query(ctx, `SELECT `+loanColumns+loanFrom+`
    WHERE l.tenant_id = $1 AND l.status LIKE 'pending\_%'
    ORDER BY l.created_at
  `, tenantID))
}

func (s *Store) Transition(ctx context.Context, tenantID string, r Request, d workflow.Decision, step workflow.Step) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := workflow.Advance(ctx, tx, "loan_requests", tenantID, r.ID, d); err != nil {
			return err
		}
		return workflow.RecordStep(ctx, tx, tenantID, step)
	})
}

func (s *Store) Steps(ctx context.Context, tenantID, loanID string) ([]workflow.Step, error) {
	return workflow.ListSteps(ctx, s.DB, tenantID, workflow.EntityLoan, loanID)
}

// ActiveLoans returns the employee's approved loans that still carry a balance.
func (s *Store) ActiveLoans(ctx context.Context, tenantID, employeeID string) ([]Request, error) {
	return collect(s.DB.Query(ctx, `SELECT `+loanColumns+loanFrom+`
    WHERE l.tenant_id = $1 AND l.employee_id = $2 AND l.status = 'approved' AND l.outstanding > 0
    ORDER BY l.created_at
  `, tenantID, employeeID))
}
