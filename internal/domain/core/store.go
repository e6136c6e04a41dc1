package core

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "hris/internal/platform/crypto"
)

type Store struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

const employeeColumns = `
  e.id,
  COALESCE(u.id::text, ''),
  e.employee_number, e.first_name, e.last_name, e.email, e.phone, e.address,
  COALESCE(e.department_id::text, ''),
  COALESCE(d.name, ''),
  COALESCE(e.manager_id::text, ''),
  COALESCE(u.role, ''),
  e.job_title, e.start_date, e.status,
  e.national_id_enc, e.bank_account_enc, e.salary_enc,
  e.created_at, e.updated_at`

const employeeFrom = `
  FROM employees e
  LEFT JOIN users u ON u.employee_id = e.id
  LEFT JOIN departments d ON d.id = e.department_id`

func (s *Store) scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var nationalEnc, bankEnc, salaryEnc []byte
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Phone, &emp.Address,
		&emp.DepartmentID, &emp.DepartmentName, &emp.ManagerID, &emp.Role,
		&emp.JobTitle, &emp.StartDate, &emp.Status,
		&nationalEnc, &bankEnc, &salaryEnc,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return emp, ErrNotFound
	}
	if err != nil {
		return emp, errors.Wrap(err, "scan employee")
	}
	if emp.NationalID, err = s.decrypt(nationalEnc); err != nil {
		return emp, err
	}
	if emp.BankAccount, err = s.decrypt(bankEnc); err != nil {
		return emp, err
	}
	salary, err := s.decrypt(salaryEnc)
	if err != nil {
		return emp, err
	}
	if salary != "" {
		value, err := strconv.ParseFloat(salary, 64)
		if err != nil {
			return emp, errors.Wrap(err, "parse salary")
		}
		emp.Salary = &value
	}
	return emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	return s.scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+employeeFrom+`
    WHERE e.tenant_id = $1 AND e.id = $2
  `, tenantID, employeeID))
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+employeeFrom+`
    WHERE e.tenant_id = $1
      AND ($2 = '' OR e.department_id::text = $2)
      AND ($3 = '' OR e.manager_id::text = $3)
      AND ($4 = '' OR e.status = $4)
    ORDER BY e.last_name, e.first_name
  `, tenantID, filter.DepartmentID, filter.ManagerID, filter.Status)
	if err != nil {
		return nil, errors.Wrap(err, "query employees")
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, errors.Wrap(rows.Err(), "iterate employees")
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (string, error) {
	nationalEnc, bankEnc, salaryEnc, err := s.sealSensitive(emp)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, employee_number, first_name, last_name, email, phone, address,
      department_id, manager_id, job_title, start_date, status, national_id_enc, bank_account_enc, salary_enc)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    RETURNING id
  `,
		tenantID, emp.EmployeeNumber, emp.FirstName, emp.LastName, emp.Email, emp.Phone, emp.Address,
		nullIfEmpty(emp.DepartmentID), nullIfEmpty(emp.ManagerID), emp.JobTitle, emp.StartDate, emp.Status,
		nationalEnc, bankEnc, salaryEnc,
	).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicate
	}
	return id, errors.Wrap(err, "insert employee")
}

// UpdateEmployee replaces the record. Sensitive columns are only rewritten
// when the caller supplied a value, so a save from a role that never saw
// them does not wipe them.
func (s *Store) UpdateEmployee(ctx context.Context, tenantID, employeeID string, emp Employee) error {
	nationalEnc, bankEnc, salaryEnc, err := s.sealSensitive(emp)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET employee_number = $1,
        first_name = $2,
        last_name = $3,
        email = $4,
        phone = $5,
        address = $6,
        department_id = $7,
        manager_id = $8,
        job_title = $9,
        start_date = $10,
        national_id_enc = COALESCE($11, national_id_enc),
        bank_account_enc = COALESCE($12, bank_account_enc),
        salary_enc = COALESCE($13, salary_enc),
        updated_at = now()
    WHERE tenant_id = $14 AND id = $15
  `,
		emp.EmployeeNumber, emp.FirstName, emp.LastName, emp.Email, emp.Phone, emp.Address,
		nullIfEmpty(emp.DepartmentID), nullIfEmpty(emp.ManagerID), emp.JobTitle, emp.StartDate,
		nationalEnc, bankEnc, salaryEnc, tenantID, employeeID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return errors.Wrap(err, "update employee")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, tenantID, employeeID string, update ProfileUpdate) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET phone = $1, address = $2, updated_at = now()
    WHERE tenant_id = $3 AND id = $4
  `, update.Phone, update.Address, tenantID, employeeID)
	if err != nil {
		return errors.Wrap(err, "update profile")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEmployeeStatus also switches the linked login so an inactive employee
// cannot sign in.
func (s *Store) SetEmployeeStatus(ctx context.Context, tenantID, employeeID, status string) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE employees SET status = $1, updated_at = now()
      WHERE tenant_id = $2 AND id = $3
    `, status, tenantID, employeeID)
		if err != nil {
			return errors.Wrap(err, "update employee status")
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `
      UPDATE users SET status = $1 WHERE tenant_id = $2 AND employee_id = $3
    `, status, tenantID, employeeID); err != nil {
			return errors.Wrap(err, "update user status")
		}
		if status != EmployeeStatusActive {
			if _, err := tx.Exec(ctx, `
        UPDATE sessions SET revoked_at = now()
        WHERE revoked_at IS NULL AND user_id IN (SELECT id FROM users WHERE tenant_id = $1 AND employee_id = $2)
      `, tenantID, employeeID); err != nil {
				return errors.Wrap(err, "revoke sessions")
			}
		}
		return nil
	})
}

func (s *Store) ManagerIDByEmployeeID(ctx context.Context, tenantID, employeeID string) (string, error) {
	var managerID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(manager_id::text, '')
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID).Scan(&managerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return managerID, errors.Wrap(err, "select manager")
}

func (s *Store) ListDepartments(ctx context.Context, tenantID string) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name, d.description, COUNT(e.id), d.created_at
    FROM departments d
    LEFT JOIN employees e ON e.department_id = d.id AND e.status = 'active'
    WHERE d.tenant_id = $1
    GROUP BY d.id
    ORDER BY d.name
  `, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "query departments")
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(&dep.ID, &dep.Name, &dep.Description, &dep.EmployeeCount, &dep.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan department")
		}
		out = append(out, dep)
	}
	return out, errors.Wrap(rows.Err(), "iterate departments")
}

func (s *Store) CreateDepartment(ctx context.Context, tenantID string, dep Department) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (tenant_id, name, description)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenantID, dep.Name, dep.Description).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicate
	}
	return id, errors.Wrap(err, "insert department")
}

func (s *Store) UpdateDepartment(ctx context.Context, tenantID, departmentID string, dep Department) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE departments SET name = $1, description = $2
    WHERE tenant_id = $3 AND id = $4
  `, dep.Name, dep.Description, tenantID, departmentID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return errors.Wrap(err, "update department")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DepartmentHasEmployees(ctx context.Context, tenantID, departmentID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM employees
    WHERE tenant_id = $1 AND department_id = $2 AND status = 'active'
  `, tenantID, departmentID).Scan(&count); err != nil {
		return false, errors.Wrap(err, "count department employees")
	}
	return count > 0, nil
}

func (s *Store) DeleteDepartment(ctx context.Context, tenantID, departmentID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM departments WHERE tenant_id = $1 AND id = $2`, tenantID, departmentID)
	if err != nil {
		return errors.Wrap(err, "delete department")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UserIDsByRole lists active users holding role.
func (s *Store) UserIDsByRole(ctx context.Context, tenantID, role string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM users
    WHERE tenant_id = $1 AND status = 'active' AND role = $2
    ORDER BY created_at
  `, tenantID, role)
	if err != nil {
		return nil, errors.Wrap(err, "query users by role")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan user id")
		}
		out = append(out, id)
	}
	return out, errors.Wrap(rows.Err(), "iterate users")
}

func (s *Store) ManagerUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT u.id
    FROM employees e
    JOIN users u ON u.employee_id = e.manager_id
    WHERE e.tenant_id = $1 AND e.id = $2 AND u.status = 'active'
  `, tenantID, employeeID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return userID, errors.Wrap(err, "select manager user")
}

func (s *Store) EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM users WHERE tenant_id = $1 AND employee_id = $2
  `, tenantID, employeeID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return userID, errors.Wrap(err, "select employee user")
}

func (s *Store) sealSensitive(emp Employee) (national, bank, salary []byte, err error) {
	if national, err = s.encrypt(emp.NationalID); err != nil {
		return nil, nil, nil, err
	}
	if bank, err = s.encrypt(emp.BankAccount); err != nil {
		return nil, nil, nil, err
	}
	if emp.Salary != nil {
		if salary, err = s.encrypt(strconv.FormatFloat(*emp.Salary, 'f', 2, 64)); err != nil {
			return nil, nil, nil, err
		}
	}
	return national, bank, salary, nil
}

func (s *Store) encrypt(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	out, err := s.Crypto.EncryptString(value)
	return out, errors.Wrap(err, "encrypt field")
}

func (s *Store) decrypt(value []byte) (string, error) {
	if len(value) == 0 {
		return "", nil
	}
	out, err := s.Crypto.DecryptString(value)
	return out, errors.Wrap(err, "decrypt field")
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
