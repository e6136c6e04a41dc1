package attendance

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"hris/internal/domain/auth"
	"hris/internal/domain/settings"
)

type SettingsSource interface {
	Get(ctx context.Context, tenantID string) (settings.Settings, error)
}

type Service struct {
	store    StoreAPI
	settings SettingsSource
	Now      func() time.Time
}

func NewService(store StoreAPI, settings SettingsSource) *Service {
	return &Service{store: store, settings: settings, Now: time.Now}
}

func workDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *Service) CheckIn(ctx context.Context, user auth.UserContext, note string) (Record, error) {
	if user.EmployeeID == "" {
		return Record{}, ErrNoEmployee
	}
	now := s.Now()
	day := workDay(now)
	if _, err := s.store.RecordForDay(ctx, user.TenantID, user.EmployeeID, day); err == nil {
		return Record{}, ErrAlreadyCheckedIn
	} else if !errors.Is(err, ErrNoRecord) {
		return Record{}, err
	}

	cfg, err := s.settings.Get(ctx, user.TenantID)
	if err != nil {
		return Record{}, err
	}
	lateAfter, err := cfg.LateAfter(now)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		EmployeeID: user.EmployeeID,
		WorkDate:   day,
		CheckIn:    now,
		Status:     StatusFor(now, lateAfter),
		Note:       strings.TrimSpace(note),
	}
	id, err := s.store.InsertCheckIn(ctx, user.TenantID, rec)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id
	return rec, nil
}

func (s *Service) CheckOut(ctx context.Context, user auth.UserContext) (Record, error) {
	if user.EmployeeID == "" {
		return Record{}, ErrNoEmployee
	}
	now := s.Now()
	rec, err := s.store.RecordForDay(ctx, user.TenantID, user.EmployeeID, workDay(now))
	if errors.Is(err, ErrNoRecord) {
		return Record{}, ErrNotCheckedIn
	}
	if err != nil {
		return Record{}, err
	}
	if rec.CheckOut != nil {
		return Record{}, ErrAlreadyCheckedOut
	}
	hours := WorkedHours(rec.CheckIn, now)
	if err := s.store.CompleteCheckOut(ctx, user.TenantID, rec.ID, now, hours); err != nil {
		return Record{}, err
	}
	rec.CheckOut = &now
	rec.Hours = hours
	return rec, nil
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]Record, error) {
	return s.store.ListRecords(ctx, user.TenantID, auth.ScopeFor(user), filter)
}

func (s *Service) MonthlySummary(ctx context.Context, user auth.UserContext, month string) ([]Summary, error) {
	from, to, err := MonthRange(month, s.Now().Location())
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, user.TenantID, auth.ScopeFor(user), Filter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return Summarize(records), nil
}
