package payroll

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `
  p.id, p.employee_id, e.first_name || ' ' || e.last_name, e.email, p.period, p.currency,
  p.base_salary, p.allowances, p.deductions, p.loan_deduction, p.gross, p.net,
  p.status, p.finalized_at, p.created_at`

const recordFrom = `
  FROM payroll_records p
  JOIN employees e ON e.id = p.employee_id`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.EmployeeEmail, &r.Period, &r.Currency,
		&r.BaseSalary, &r.Allowances, &r.Deductions, &r.LoanDeduction, &r.Gross, &r.Net,
		&r.Status, &r.FinalizedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, errors.Wrap(err, "scan payroll record")
}

// Create stores the record and the loan installments it withholds.
func (s *Store) Create(ctx context.Context, tenantID string, r Record, repayments []Repayment) (string, error) {
	var id string
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
      INSERT INTO payroll_records (tenant_id, employee_id, period, currency, base_salary, allowances, deductions,
        loan_deduction, gross, net, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      RETURNING id
    `, tenantID, r.EmployeeID, r.Period, r.Currency, r.BaseSalary, r.Allowances, r.Deductions,
			r.LoanDeduction, r.Gross, r.Net, r.Status).Scan(&id)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		if err != nil {
			return errors.Wrap(err, "insert payroll record")
		}
		for _, rp := range repayments {
			if _, err := tx.Exec(ctx, `
        INSERT INTO loan_repayments (loan_id, payroll_record_id, amount)
        VALUES ($1,$2,$3)
      `, rp.LoanID, id, rp.Amount); err != nil {
				return errors.Wrap(err, "insert loan repayment")
			}
		}
		return nil
	})
	return id, err
}

func (s *Store) Get(ctx context.Context, tenantID, recordID string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `SELECT `+recordColumns+recordFrom+`
    WHERE p.tenant_id = $1 AND p.id = $2
  `, tenantID, recordID))
}

func (s *Store) List(ctx context.Context, tenantID string, filter Filter) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+recordColumns+recordFrom+`
    WHERE p.tenant_id = $1
      AND ($2 = '' OR p.period = $2)
      AND ($3 = '' OR p.employee_id::text = $3)
      AND ($4 = '' OR p.status = $4)
    ORDER BY p.period DESC, e.last_name
  `, tenantID, filter.Period, filter.EmployeeID, filter.Status)
	if err != nil {
		return nil, errors.Wrap(err, "query payroll records")
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "iterate payroll records")
}

// Update rewrites amounts on a draft. A finalized row is left untouched.
func (s *Store) Update(ctx context.Context, tenantID string, r Record) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_records
    SET base_salary = $1, allowances = $2, deductions = $3, gross = $4, net = $5
    WHERE tenant_id = $6 AND id = $7 AND status = 'draft'
  `, r.BaseSalary, r.Allowances, r.Deductions, r.Gross, r.Net, tenantID, r.ID)
	if err != nil {
		return errors.Wrap(err, "update payroll record")
	}
	if tag.RowsAffected() == 0 {
		return ErrFinalized
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, tenantID, recordID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM payroll_records WHERE tenant_id = $1 AND id = $2 AND status = 'draft'
  `, tenantID, recordID)
	if err != nil {
		return errors.Wrap(err, "delete payroll record")
	}
	if tag.RowsAffected() == 0 {
		return ErrFinalized
	}
	return nil
}

// Finalize locks the record and books its loan installments against the
// outstanding balances in one transaction.
func (s *Store) Finalize(ctx context.Context, tenantID, recordID string) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE payroll_records SET status = 'finalized', finalized_at = now()
      WHERE tenant_id = $1 AND id = $2 AND status = 'draft'
    `, tenantID, recordID)
		if err != nil {
			return errors.Wrap(err, "finalize payroll record")
		}
		if tag.RowsAffected() == 0 {
			return ErrFinalized
		}
		if _, err := tx.Exec(ctx, `
      UPDATE loan_requests l
      SET outstanding = GREATEST(l.outstanding - r.amount, 0), updated_at = now()
      FROM loan_repayments r
      WHERE r.payroll_record_id = $1 AND r.loan_id = l.id
    `, recordID); err != nil {
			return errors.Wrap(err, "apply loan repayments")
		}
		return nil
	})
}
