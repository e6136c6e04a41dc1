package invitations

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"hris/internal/domain/auth"
	"hris/internal/domain/settings"
	"hris/internal/platform/email"
)

const (
	JobEmail   = "invitation_email"
	JobCleanup = "invitation_cleanup"

	DefaultTTL = 72 * time.Hour
)

type Queue interface {
	Enqueue(jobType, tenantID string, run func(context.Context) (any, error))
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type SettingsSource interface {
	Get(ctx context.Context, tenantID string) (settings.Settings, error)
}

type Options struct {
	TTL         time.Duration
	BaseURL     string
	DefaultFrom string
}

type Service struct {
	store    StoreAPI
	queue    Queue
	mailer   Mailer
	settings SettingsSource
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

func NewService(store StoreAPI, queue Queue, mailer Mailer, settings SettingsSource, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Service{
		store:    store,
		queue:    queue,
		mailer:   mailer,
		settings: settings,
		opts:     opts,
		validate: newValidator(),
		now:      time.Now,
	}
}

// RowError carries the per-field problems of a single invite.
type RowError struct {
	Row InvalidRow
}

func (e *RowError) Error() string {
	fields := make([]string, 0, len(e.Row.Errors))
	for field, msg := range e.Row.Errors {
		fields = append(fields, field+" "+msg)
	}
	sort.Strings(fields)
	return "invalid invitation: " + strings.Join(fields, "; ")
}

// Invite creates a single invitation with the same checks as a bulk row.
func (s *Service) Invite(ctx context.Context, user auth.UserContext, row Row) (Invitation, error) {
	res, err := s.Bulk(ctx, user, []Row{row})
	if err != nil {
		return Invitation{}, err
	}
	if len(res.Invalid) > 0 {
		return Invitation{}, &RowError{Row: res.Invalid[0]}
	}
	return res.Created[0], nil
}

// Bulk validates every row before creating any invitation for the valid
// ones. Invalid rows are reported with per-field messages and skipped.
func (s *Service) Bulk(ctx context.Context, user auth.UserContext, rows []Row) (BulkResult, error) {
	if len(rows) == 0 {
		return BulkResult{}, ErrEmptyFile
	}
	if len(rows) > MaxBulkRows {
		return BulkResult{}, ErrTooManyRows
	}
	departments, err := s.store.DepartmentIDs(ctx, user.TenantID)
	if err != nil {
		return BulkResult{}, err
	}

	res := BulkResult{Created: []Invitation{}, Invalid: []InvalidRow{}}
	problems := make([]map[string]string, len(rows))
	departmentIDs := make([]string, len(rows))
	firstLine := map[string]int{}
	var emails []string

	for i := range rows {
		row := &rows[i]
		if row.Line == 0 {
			row.Line = i + 1
		}
		normalizeRow(row)
		errs := map[string]string{}
		if err := s.validate.Struct(row); err != nil {
			errs = fieldErrors(err)
		}
		if _, bad := errs["email"]; !bad {
			if line, dup := firstLine[row.Email]; dup {
				errs["email"] = fmt.Sprintf("duplicates line %d", line)
			} else {
				firstLine[row.Email] = row.Line
				emails = append(emails, row.Email)
			}
		}
		if row.Department != "" {
			id, ok := departments[strings.ToLower(row.Department)]
			if !ok {
				errs["department"] = "unknown department"
			}
			departmentIDs[i] = id
		}
		if _, bad := errs["managerId"]; !bad && row.ManagerID != "" {
			ok, err := s.store.EmployeeExists(ctx, user.TenantID, row.ManagerID)
			if err != nil {
				return BulkResult{}, err
			}
			if !ok {
				errs["managerId"] = "unknown team lead"
			}
		}
		problems[i] = errs
	}

	existing, err := s.store.ExistingEmails(ctx, user.TenantID, emails)
	if err != nil {
		return BulkResult{}, err
	}

	for i, row := range rows {
		errs := problems[i]
		if _, bad := errs["email"]; !bad && existing[row.Email] {
			errs["email"] = "already registered or invited"
		}
		if len(errs) > 0 {
			res.Invalid = append(res.Invalid, InvalidRow{Line: row.Line, Email: row.Email, Errors: errs})
			continue
		}
		inv, err := s.create(ctx, user, row, departmentIDs[i])
		if errors.Is(err, ErrAlreadyExists) {
			res.Invalid = append(res.Invalid, InvalidRow{Line: row.Line, Email: row.Email,
				Errors: map[string]string{"email": "already registered or invited"}})
			continue
		}
		if err != nil {
			return res, err
		}
		res.Created = append(res.Created, inv)
	}
	return res, nil
}

func (s *Service) create(ctx context.Context, user auth.UserContext, row Row, departmentID string) (Invitation, error) {
	code, err := auth.RandomToken()
	if err != nil {
		return Invitation{}, err
	}
	inv := Invitation{
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Role:         row.Role,
		DepartmentID: departmentID,
		ManagerID:    row.ManagerID,
		InvitedBy:    user.UserID,
		ExpiresAt:    s.now().Add(s.opts.TTL).UTC(),
	}
	inv, err = s.store.Create(ctx, user.TenantID, inv, auth.HashToken(code))
	if err != nil {
		return Invitation{}, err
	}
	s.dispatch(user.TenantID, inv, code)
	return inv, nil
}

// dispatch queues the invitation email. The code only lives in the closure,
// never in the job details.
func (s *Service) dispatch(tenantID string, inv Invitation, code string) {
	s.queue.Enqueue(JobEmail, tenantID, func(ctx context.Context) (any, error) {
		details := map[string]any{"invitationId": inv.ID, "email": inv.Email}
		return details, s.send(ctx, tenantID, inv, code)
	})
}

func (s *Service) send(ctx context.Context, tenantID string, inv Invitation, code string) error {
	if s.mailer == nil {
		return nil
	}
	from, company := s.opts.DefaultFrom, ""
	if s.settings != nil {
		cfg, err := s.settings.Get(ctx, tenantID)
		if err != nil {
			slog.Warn("invitation settings lookup failed", "tenantId", tenantID, "err", err)
		} else {
			company = cfg.CompanyName
			if cfg.EmailFrom != "" {
				from = cfg.EmailFrom
			}
		}
	}
	msg := email.Invitation(company, inv.FirstName, s.Link(code), inv.ExpiresAt)
	return s.mailer.Send(ctx, from, inv.Email, msg.Subject, msg.Body)
}

// Link is the set-password URL carrying the invite code.
func (s *Service) Link(code string) string {
	return strings.TrimRight(s.opts.BaseURL, "/") + "/set-password?code=" + url.QueryEscape(code)
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter) ([]Invitation, error) {
	return s.store.List(ctx, tenantID, filter)
}

// Resend issues a fresh code, which invalidates the previous link.
func (s *Service) Resend(ctx context.Context, user auth.UserContext, invitationID string) (Invitation, error) {
	code, err := auth.RandomToken()
	if err != nil {
		return Invitation{}, err
	}
	inv, err := s.store.Renew(ctx, user.TenantID, invitationID, auth.HashToken(code), s.now().Add(s.opts.TTL).UTC())
	if err != nil {
		return Invitation{}, err
	}
	s.dispatch(user.TenantID, inv, code)
	return inv, nil
}

func (s *Service) Revoke(ctx context.Context, user auth.UserContext, invitationID string) error {
	return s.store.Revoke(ctx, user.TenantID, invitationID)
}

// Accept redeems an invite code, creating the employee and the user.
func (s *Service) Accept(ctx context.Context, code, password string) (Accepted, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Accepted{}, ErrInvalidCode
	}
	if err := auth.ValidatePassword(password); err != nil {
		return Accepted{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Accepted{}, err
	}
	return s.store.Accept(ctx, auth.HashToken(code), hash)
}

func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	return s.store.ExpireStale(ctx, s.now())
}
