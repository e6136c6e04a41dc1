package db

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/auth"
	"hris/internal/platform/config"
)

type seedLeaveType struct {
	Name        string
	Code        string
	Paid        bool
	Entitlement float64
}

var defaultLeaveTypes = []seedLeaveType{
	{Name: "Annual Leave", Code: "ANNUAL", Paid: true, Entitlement: 21},
	{Name: "Sick Leave", Code: "SICK", Paid: true, Entitlement: 10},
	{Name: "Unpaid Leave", Code: "UNPAID", Paid: false, Entitlement: 0},
}

// Seed creates the tenant, its settings, default leave types and the first admin.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
    INSERT INTO tenant_settings (tenant_id, company_name, email_from)
    VALUES ($1,$2,$3)
    ON CONFLICT (tenant_id) DO NOTHING
  `, tenantID, cfg.SeedTenantName, cfg.EmailFrom); err != nil {
		return errors.Wrap(err, "seed tenant settings")
	}
	for _, lt := range defaultLeaveTypes {
		if _, err := pool.Exec(ctx, `
      INSERT INTO leave_types (tenant_id, name, code, is_paid, annual_entitlement)
      VALUES ($1,$2,$3,$4,$5)
      ON CONFLICT (tenant_id, code) DO NOTHING
    `, tenantID, lt.Name, lt.Code, lt.Paid, lt.Entitlement); err != nil {
			return errors.Wrapf(err, "seed leave type %s", lt.Code)
		}
	}
	return ensureAdminUser(ctx, pool, tenantID, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", errors.Wrap(err, "lookup tenant")
	}
	err = pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, errors.Wrap(err, "insert tenant")
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var existing string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = lower($1)", email).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrap(err, "lookup admin user")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var employeeID string
		if err := tx.QueryRow(ctx, `
      INSERT INTO employees (tenant_id, first_name, last_name, email, job_title)
      VALUES ($1,'System','Administrator',$2,'Administrator')
      ON CONFLICT (tenant_id, email) DO UPDATE SET updated_at = now()
      RETURNING id
    `, tenantID, email).Scan(&employeeID); err != nil {
			return errors.Wrap(err, "seed admin employee")
		}
		_, err := tx.Exec(ctx, `
      INSERT INTO users (tenant_id, employee_id, email, password_hash, role)
      VALUES ($1,$2,$3,$4,$5)
    `, tenantID, employeeID, email, hash, auth.RoleAdmin)
		return errors.Wrap(err, "seed admin user")
	})
}

// DefaultTenantID returns the seeded tenant, creating it when missing.
func DefaultTenantID(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) (string, error) {
	return ensureTenant(ctx, pool, cfg.SeedTenantName)
}
