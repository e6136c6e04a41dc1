package settings

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StoreAPI interface {
	Get(ctx context.Context, tenantID string) (Settings, error)
	Upsert(ctx context.Context, tenantID string, s Settings) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context, tenantID string) (Settings, error) {
	var out Settings
	err := s.DB.QueryRow(ctx, `
    SELECT company_name, email_notifications_enabled, COALESCE(email_from, ''), work_day_start,
           late_grace_minutes, leave_md_threshold_days::float8, updated_at
    FROM tenant_settings
    WHERE tenant_id = $1
  `, tenantID).Scan(&out.CompanyName, &out.EmailNotificationsEnabled, &out.EmailFrom, &out.WorkDayStart,
		&out.LateGraceMinutes, &out.LeaveMDThresholdDays, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(), nil
	}
	return out, errors.Wrap(err, "select tenant settings")
}

func (s *Store) Upsert(ctx context.Context, tenantID string, in Settings) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO tenant_settings (tenant_id, company_name, email_notifications_enabled, email_from,
      work_day_start, late_grace_minutes, leave_md_threshold_days)
    VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7)
    ON CONFLICT (tenant_id) DO UPDATE
      SET company_name = EXCLUDED.company_name,
          email_notifications_enabled = EXCLUDED.email_notifications_enabled,
          email_from = EXCLUDED.email_from,
          work_day_start = EXCLUDED.work_day_start,
          late_grace_minutes = EXCLUDED.late_grace_minutes,
          leave_md_threshold_days = EXCLUDED.leave_md_threshold_days,
          updated_at = now()
  `, tenantID, in.CompanyName, in.EmailNotificationsEnabled, in.EmailFrom,
		in.WorkDayStart, in.LateGraceMinutes, in.LeaveMDThresholdDays)
	return errors.Wrap(err, "upsert tenant settings")
}
