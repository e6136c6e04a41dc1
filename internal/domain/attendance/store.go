package attendance

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/auth"
)

var ErrNoRecord = errors.New("attendance record not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `a.id, a.employee_id, e.first_name || ' ' || e.last_name, a.work_date, a.check_in, a.check_out, a.hours::float8, a.status, a.note`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.WorkDate, &r.CheckIn, &r.CheckOut, &r.Hours, &r.Status, &r.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNoRecord
	}
	return r, errors.Wrap(err, "scan attendance record")
}

func (s *Store) RecordForDay(ctx context.Context, tenantID, employeeID string, day time.Time) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records a
    JOIN employees e ON e.id = a.employee_id
    WHERE a.tenant_id = $1 AND a.employee_id = $2 AND a.work_date = $3
  `, tenantID, employeeID, day))
}

func (s *Store) InsertCheckIn(ctx context.Context, tenantID string, rec Record) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (tenant_id, employee_id, work_date, check_in, status, note)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, tenantID, rec.EmployeeID, rec.WorkDate, rec.CheckIn, rec.Status, rec.Note).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrAlreadyCheckedIn
	}
	return id, errors.Wrap(err, "insert check-in")
}

func (s *Store) CompleteCheckOut(ctx context.Context, tenantID, recordID string, checkOut time.Time, hours float64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_records
    SET check_out = $1, hours = $2
    WHERE tenant_id = $3 AND id = $4 AND check_out IS NULL
  `, checkOut, hours, tenantID, recordID)
	if err != nil {
		return errors.Wrap(err, "update check-out")
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCheckedOut
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context, tenantID string, scope auth.Scope, filter Filter) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records a
    JOIN employees e ON e.id = a.employee_id
    WHERE a.tenant_id = $1
      AND ($2 OR e.id::text = $3 OR ($4 AND e.manager_id::text = $3))
      AND ($5::date IS NULL OR a.work_date >= $5)
      AND ($6::date IS NULL OR a.work_date < $6)
    ORDER BY a.work_date DESC, e.last_name
  `, tenantID, scope.All, scope.EmployeeID, scope.WithReports, filter.From, filter.To)
	if err != nil {
		return nil, errors.Wrap(err, "query attendance")
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
	return out, errors.Wrap(rows.Err(), "iterate attendance")
}
