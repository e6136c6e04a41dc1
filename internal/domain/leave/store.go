package leave

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
)

type Store struct {
	DB *pgxpool.Pool
}

var _ StoreAPI = (*Store)(nil)

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, code, is_paid, annual_entitlement::float8, created_at
    FROM leave_types
    WHERE tenant_id = $1
    ORDER BY name
  `, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "query leave types")
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.Code, &t.IsPaid, &t.AnnualEntitlement, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan leave type")
		}
		types = append(types, t)
	}
	return types, errors.Wrap(rows.Err(), "iterate leave types")
}

func (s *Store) GetType(ctx context.Context, tenantID, leaveTypeID string) (LeaveType, error) {
	var t LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, code, is_paid, annual_entitlement::float8, created_at
    FROM leave_types
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, leaveTypeID).Scan(&t.ID, &t.Name, &t.Code, &t.IsPaid, &t.AnnualEntitlement, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, errors.Wrap(err, "select leave type")
}

func (s *Store) CreateType(ctx context.Context, tenantID string, payload LeaveType) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (tenant_id, name, code, is_paid, annual_entitlement)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, tenantID, payload.Name, payload.Code, payload.IsPaid, payload.AnnualEntitlement).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrDuplicateType
	}
	return id, errors.Wrap(err, "insert leave type")
}

// ListBalances returns one row per leave type. Types without a balance row
// fall back to the type's annual entitlement.
func (s *Store) ListBalances(ctx context.Context, tenantID, employeeID string) ([]Balance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.id, t.name, t.is_paid,
           COALESCE(b.entitlement, t.annual_entitlement)::float8,
           COALESCE(b.pending, 0)::float8,
           COALESCE(b.used, 0)::float8
    FROM leave_types t
    LEFT JOIN leave_balances b ON b.leave_type_id = t.id AND b.employee_id = $2
    WHERE t.tenant_id = $1
    ORDER BY t.name
  `, tenantID, employeeID)
	if err != nil {
		return nil, errors.Wrap(err, "query leave balances")
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.LeaveTypeID, &b.LeaveTypeName, &b.IsPaid, &b.Entitlement, &b.Pending, &b.Used); err != nil {
			return nil, errors.Wrap(err, "scan leave balance")
		}
		out = append(out, b)
	}
	return out, errors.Wrap(rows.Err(), "iterate leave balances")
}

func (s *Store) SetEntitlement(ctx context.Context, tenantID, employeeID, leaveTypeID string, entitlement float64) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (tenant_id, employee_id, leave_type_id, entitlement)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (employee_id, leave_type_id) DO UPDATE SET entitlement = EXCLUDED.entitlement, updated_at = now()
  `, tenantID, employeeID, leaveTypeID, entitlement)
	return errors.Wrap(err, "set leave entitlement")
}

const requestColumns = `
  r.id, r.employee_id, e.first_name || ' ' || e.last_name, COALESCE(e.manager_id::text, ''),
  r.leave_type_id, t.name, r.start_date, r.end_date, r.start_half, r.end_half, r.days::float8,
  r.reason, r.chain, r.status, r.decision_note, r.created_at, r.updated_at`

const requestFrom = `
  FROM leave_requests r
  JOIN employees e ON e.id = r.employee_id
  JOIN leave_types t ON t.id = r.leave_type_id`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.ManagerID, &r.LeaveTypeID, &r.LeaveTypeName,
		&r.StartDate, &r.EndDate, &r.StartHalf, &r.EndHalf, &r.Days, &r.Reason, &r.Chain, &r.Status,
		&r.DecisionNote, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, errors.Wrap(err, "scan leave request")
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	defer rows.Close()
	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "iterate leave requests")
}

// ActiveRequests returns the employee's requests that still hold days and touch [from, to].
func (s *Store) ActiveRequests(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+requestFrom+`
    WHERE r.tenant_id = $1 AND r.employee_id = $2
      AND (r.status = 'approved' OR r.status LIKE 'pending\_%')
      AND r.start_date <= $4 AND r.end_date >= $3
  `, tenantID, employeeID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "query active leave")
	}
	return collectRequests(rows)
}

// CreateRequest inserts the request, books its days against the balance and
// records the submit step in one transaction.
func (s *Store) CreateRequest(ctx context.Context, tenantID string, req Request, step workflow.Step) (string, error) {
	var id string
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO leave_requests (tenant_id, employee_id, leave_type_id, start_date, end_date, start_half, end_half, days, reason, chain, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      RETURNING id
    `, tenantID, req.EmployeeID, req.LeaveTypeID, req.StartDate, req.EndDate, req.StartHalf, req.EndHalf,
			req.Days, req.Reason, req.Chain, req.Status).Scan(&id); err != nil {
			return errors.Wrap(err, "insert leave request")
		}
		pending, used := 0.0, 0.0
		if req.Status == workflow.StatusApproved {
			used = req.Days
		} else {
			pending = req.Days
		}
		// The upsert locks the balance row, so concurrent submits see each
		// other's bookings before the availability check below.
		var available float64
		err := tx.QueryRow(ctx, `
      INSERT INTO leave_balances (tenant_id, employee_id, leave_type_id, entitlement, pending, used)
      SELECT $1, $2, t.id, t.annual_entitlement, $4, $5 FROM leave_types t WHERE t.tenant_id = $1 AND t.id = $3
      ON CONFLICT (employee_id, leave_type_id) DO UPDATE
        SET pending = leave_balances.pending + EXCLUDED.pending,
            used = leave_balances.used + EXCLUDED.used,
            updated_at = now()
      RETURNING entitlement - pending - used
    `, tenantID, req.EmployeeID, req.LeaveTypeID, pending, used).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "book leave balance")
		}
		if req.IsPaid && available < 0 {
			return ErrInsufficientBalance
		}
		step.EntityID = id
		return workflow.RecordStep(ctx, tx, tenantID, step)
	})
	return id, err
}

func (s *Store) GetRequest(ctx context.Context, tenantID, requestID string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+requestFrom+`
    WHERE r.tenant_id = $1 AND r.id = $2
  `, tenantID, requestID))
}

func (s *Store) ListRequests(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+requestFrom+`
    WHERE r.tenant_id = $1
      AND ($2 OR e.id::text = $3 OR ($4 AND e.manager_id::text = $3))
      AND ($5 = '' OR r.status = $5)
      AND ($6 = '' OR r.employee_id::text = $6)
    ORDER BY r.created_at DESC
  `, tenantID, scope.All, scope.EmployeeID, scope.WithReports, filter.Status, filter.EmployeeID)
	if err != nil {
		return nil, errors.Wrap(err, "query leave requests")
	}
	return collectRequests(rows)
}

func (s *Store) PendingRequests(ctx context.Context, tenantID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+requestFrom+`
    WHERE r.tenant_id = $1 AND r.status LIKE 'pending\_%'
    ORDER BY r.created_at
  `, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "query pending leave")
	}
	return collectRequests(rows)
}

// Transition applies d and moves the request's days between pending and used.
func (s *Store) Transition(ctx context.Context, tenantID string, req Request, d workflow.Decision, step workflow.Step) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := workflow.Advance(ctx, tx, "leave_requests", tenantID, req.ID, d); err != nil {
			return err
		}
		var pendingDelta, usedDelta float64
		switch d.To {
		case workflow.StatusApproved:
			pendingDelta, usedDelta = -req.Days, req.Days
		case workflow.StatusRejected, workflow.StatusCancelled:
			pendingDelta = -req.Days
		}
		if pendingDelta != 0 || usedDelta != 0 {
			if _, err := tx.Exec(ctx, `
        UPDATE leave_balances
        SET pending = GREATEST(pending + $1, 0), used = used + $2, updated_at = now()
        WHERE tenant_id = $3 AND employee_id = $4 AND leave_type_id = $5
      `, pendingDelta, usedDelta, tenantID, req.EmployeeID, req.LeaveTypeID); err != nil {
				return errors.Wrap(err, "update leave balance")
			}
		}
		return workflow.RecordStep(ctx, tx, tenantID, step)
	})
}

func (s *Store) Steps(ctx context.Context, tenantID, requestID string) ([]workflow.Step, error) {
	return workflow.ListSteps(ctx, s.DB, tenantID, workflow.EntityLeave, requestID)
}
