package invitations

import (
	"context"
	"strings"
	"time"

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

const inviteColumns = `
  i.id, i.email, i.first_name, i.last_name, i.role,
  COALESCE(i.department_id::text, ''), COALESCE(d.name, ''), COALESCE(i.manager_id::text, ''),
  i.status, COALESCE(i.invited_by::text, ''), i.expires_at, i.accepted_at, i.created_at`

const inviteFrom = `
  FROM invitations i
  LEFT JOIN departments d ON d.id = i.department_id`

func scanInvitation(row pgx.Row) (Invitation, error) {
	var inv Invitation
	err := row.Scan(&inv.ID, &inv.Email, &inv.FirstName, &inv.LastName, &inv.Role,
		&inv.DepartmentID, &inv.DepartmentName, &inv.ManagerID,
		&inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return inv, ErrNotFound
	}
	return inv, errors.Wrap(err, "scan invitation")
}

// DepartmentIDs maps lower-cased department names and ids to the id.
func (s *Store) DepartmentIDs(ctx context.Context, tenantID string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text, name FROM departments WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "query departments")
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errors.Wrap(err, "scan department")
		}
		out[strings.ToLower(name)] = id
		out[id] = id
	}
	return out, errors.Wrap(rows.Err(), "iterate departments")
}

// ExistingEmails returns the subset of emails that already belong to a user
// or to a pending invitation.
func (s *Store) ExistingEmails(ctx context.Context, tenantID string, emails []string) (map[string]bool, error) {
	out := map[string]bool{}
	if len(emails) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT lower(email) FROM users WHERE lower(email) = ANY($2)
    UNION
    SELECT lower(email) FROM invitations
    WHERE tenant_id = $1 AND status = 'pending' AND lower(email) = ANY($2)
  `, tenantID, emails)
	if err != nil {
		return nil, errors.Wrap(err, "query existing emails")
	}
	defer rows.Close()
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, errors.Wrap(err, "scan email")
		}
		out[email] = true
	}
	return out, errors.Wrap(rows.Err(), "iterate emails")
}

func (s *Store) EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM employees WHERE tenant_id = $1 AND id::text = $2 AND status = 'active')
  `, tenantID, employeeID).Scan(&ok)
	return ok, errors.Wrap(err, "check employee")
}

func (s *Store) Create(ctx context.Context, tenantID string, inv Invitation, codeHash string) (Invitation, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO invitations (tenant_id, email, first_name, last_name, role, department_id, manager_id,
      code_hash, invited_by, expires_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id, status, created_at
  `, tenantID, inv.Email, inv.FirstName, inv.LastName, inv.Role, nullIfEmpty(inv.DepartmentID),
		nullIfEmpty(inv.ManagerID), codeHash, nullIfEmpty(inv.InvitedBy), inv.ExpiresAt,
	).Scan(&inv.ID, &inv.Status, &inv.CreatedAt)
	if isUniqueViolation(err) {
		return inv, ErrAlreadyExists
	}
	return inv, errors.Wrap(err, "insert invitation")
}

func (s *Store) Get(ctx context.Context, tenantID, invitationID string) (Invitation, error) {
	return scanInvitation(s.DB.QueryRow(ctx, `SELECT `+inviteColumns+inviteFrom+`
    WHERE i.tenant_id = $1 AND i.id::text = $2
  `, tenantID, invitationID))
}

func (s *Store) List(ctx context.Context, tenantID string, filter Filter) ([]Invitation, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+inviteColumns+inviteFrom+`
    WHERE i.tenant_id = $1 AND ($2 = '' OR i.status = $2)
    ORDER BY i.created_at DESC
  `, tenantID, filter.Status)
	if err != nil {
		return nil, errors.Wrap(err, "query invitations")
	}
	defer rows.Close()
	var out []Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, errors.Wrap(rows.Err(), "iterate invitations")
}

// Renew swaps the code of a pending invitation and pushes out its expiry.
func (s *Store) Renew(ctx context.Context, tenantID, invitationID, codeHash string, expiresAt time.Time) (Invitation, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE invitations SET code_hash = $3, expires_at = $4, status = 'pending'
    WHERE tenant_id = $1 AND id::text = $2 AND status IN ('pending', 'expired')
  `, tenantID, invitationID, codeHash, expiresAt)
	if isUniqueViolation(err) {
		return Invitation{}, ErrAlreadyExists
	}
	if err != nil {
		return Invitation{}, errors.Wrap(err, "renew invitation")
	}
	if tag.RowsAffected() == 0 {
		return Invitation{}, s.missingOrSettled(ctx, tenantID, invitationID)
	}
	return s.Get(ctx, tenantID, invitationID)
}

func (s *Store) Revoke(ctx context.Context, tenantID, invitationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE invitations SET status = 'revoked'
    WHERE tenant_id = $1 AND id::text = $2 AND status = 'pending'
  `, tenantID, invitationID)
	if err != nil {
		return errors.Wrap(err, "revoke invitation")
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrSettled(ctx, tenantID, invitationID)
	}
	return nil
}

func (s *Store) missingOrSettled(ctx context.Context, tenantID, invitationID string) error {
	if _, err := s.Get(ctx, tenantID, invitationID); err != nil {
		return err
	}
	return ErrNotPending
}

// Accept redeems a pending, unexpired code. The employee record, the user
// and the status change commit together.
func (s *Store) Accept(ctx context.Context, codeHash, passwordHash string) (Accepted, error) {
	var out Accepted
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		var (
			inviteID                string
			firstName, lastName     string
			departmentID, managerID *string
		)
		err := tx.QueryRow(ctx, `
      SELECT id, tenant_id, email, first_name, last_name, role, department_id::text, manager_id::text
      FROM invitations
      WHERE code_hash = $1 AND status = 'pending' AND expires_at > now()
      FOR UPDATE
    `, codeHash).Scan(&inviteID, &out.TenantID, &out.Email, &firstName, &lastName, &out.Role, &departmentID, &managerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidCode
		}
		if err != nil {
			return errors.Wrap(err, "lock invitation")
		}

		err = tx.QueryRow(ctx, `
      INSERT INTO employees (tenant_id, first_name, last_name, email, department_id, manager_id, start_date, status)
      VALUES ($1,$2,$3,$4,$5,$6,CURRENT_DATE,'active')
      RETURNING id
    `, out.TenantID, firstName, lastName, out.Email, departmentID, managerID).Scan(&out.EmployeeID)
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		if err != nil {
			return errors.Wrap(err, "insert employee")
		}

		err = tx.QueryRow(ctx, `
      INSERT INTO users (tenant_id, employee_id, email, password_hash, role)
      VALUES ($1,$2,$3,$4,$5)
      RETURNING id
    `, out.TenantID, out.EmployeeID, out.Email, passwordHash, out.Role).Scan(&out.UserID)
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		if err != nil {
			return errors.Wrap(err, "insert user")
		}

		_, err = tx.Exec(ctx, `
      UPDATE invitations SET status = 'accepted', accepted_at = now() WHERE id = $1
    `, inviteID)
		return errors.Wrap(err, "mark invitation accepted")
	})
	return out, err
}

func (s *Store) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE invitations SET status = 'expired'
    WHERE status = 'pending' AND expires_at <= $1
  `, now)
	if err != nil {
		return 0, errors.Wrap(err, "expire invitations")
	}
	return tag.RowsAffected(), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
