package payroll

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"hris/internal/domain/auth"
	"hris/internal/domain/loan"
	"hris/internal/domain/notifications"
	"hris/internal/domain/settings"
	"hris/internal/domain/workflow"
)

type LoanSource interface {
	Deductions(ctx context.Context, tenantID, employeeID string) ([]loan.Deduction, error)
}

type SettingsSource interface {
	Get(ctx context.Context, tenantID string) (settings.Settings, error)
}

type People interface {
	ManagerIDByEmployeeID(ctx context.Context, tenantID, employeeID string) (string, error)
	EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error)
}

type Service struct {
	store    StoreAPI
	loans    LoanSource
	people   People
	settings SettingsSource
	notify   workflow.Notifier
}

func NewService(store StoreAPI, loans LoanSource, people People, settings SettingsSource, notify workflow.Notifier) *Service {
	return &Service{store: store, loans: loans, people: people, settings: settings, notify: notify}
}

// Create drafts a record for one employee and period. Installments of the
// employee's approved loans are withheld automatically.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (Record, error) {
	in.Period = strings.TrimSpace(in.Period)
	if !ValidPeriod(in.Period) {
		return Record{}, ErrInvalidPeriod
	}
	if _, err := s.people.ManagerIDByEmployeeID(ctx, tenantID, in.EmployeeID); err != nil {
		return Record{}, err
	}
	deductions, err := s.loans.Deductions(ctx, tenantID, in.EmployeeID)
	if err != nil {
		return Record{}, err
	}
	r := Record{
		EmployeeID:    in.EmployeeID,
		Period:        in.Period,
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		BaseSalary:    in.BaseSalary,
		Allowances:    in.Allowances,
		Deductions:    in.Deductions,
		LoanDeduction: loan.Total(deductions),
		Status:        StatusDraft,
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if err := Compute(&r); err != nil {
		return Record{}, err
	}
	repayments := make([]Repayment, 0, len(deductions))
	for _, d := range deductions {
		repayments = append(repayments, Repayment{LoanID: d.LoanID, Amount: d.Amount})
	}
	id, err := s.store.Create(ctx, tenantID, r, repayments)
	if err != nil {
		return Record{}, err
	}
	return s.store.Get(ctx, tenantID, id)
}

func (s *Service) Update(ctx context.Context, tenantID, recordID string, in UpdateInput) (Record, error) {
	r, err := s.store.Get(ctx, tenantID, recordID)
	if err != nil {
		return Record{}, err
	}
	if r.Finalized() {
		return Record{}, ErrFinalized
	}
	r.BaseSalary, r.Allowances, r.Deductions = in.BaseSalary, in.Allowances, in.Deductions
	if err := Compute(&r); err != nil {
		return Record{}, err
	}
	if err := s.store.Update(ctx, tenantID, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, recordID string) error {
	r, err := s.store.Get(ctx, tenantID, recordID)
	if err != nil {
		return err
	}
	if r.Finalized() {
		return ErrFinalized
	}
	return s.store.Delete(ctx, tenantID, recordID)
}

// Finalize locks the record and tells the employee their payslip is out.
func (s *Service) Finalize(ctx context.Context, tenantID, recordID string) (Record, error) {
	r, err := s.store.Get(ctx, tenantID, recordID)
	if err != nil {
		return Record{}, err
	}
	if r.Finalized() {
		return Record{}, ErrFinalized
	}
	if err := s.store.Finalize(ctx, tenantID, recordID); err != nil {
		return Record{}, err
	}
	r, err = s.store.Get(ctx, tenantID, recordID)
	if err != nil {
		return Record{}, err
	}
	if s.notify != nil {
		userID, err := s.people.EmployeeUserID(ctx, tenantID, r.EmployeeID)
		if err != nil || userID == "" {
			slog.Warn("payslip recipient lookup failed", "employee_id", r.EmployeeID, "err", err)
		} else {
			s.notify.Broadcast(ctx, tenantID, []string{userID}, notifications.TypePayslipPublished, "Payslip "+r.Period+" is available", "")
		}
	}
	return r, nil
}

// List returns every record to roles that see pay data. Everyone else gets
// only their own finalized records.
func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]Record, error) {
	if !auth.SeesSensitive(user.RoleName) {
		if user.EmployeeID == "" {
			return []Record{}, nil
		}
		filter.EmployeeID = user.EmployeeID
		filter.Status = StatusFinalized
	}
	return s.store.List(ctx, user.TenantID, filter)
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, recordID string) (Record, error) {
	r, err := s.store.Get(ctx, user.TenantID, recordID)
	if err != nil {
		return Record{}, err
	}
	if !canSee(user, r) {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// Payslip renders the PDF for a finalized record the caller may see.
func (s *Service) Payslip(ctx context.Context, user auth.UserContext, recordID string) (Record, []byte, error) {
	r, err := s.Get(ctx, user, recordID)
	if err != nil {
		return Record{}, nil, err
	}
	if !r.Finalized() {
		return Record{}, nil, ErrNotFinalized
	}
	company := settings.Defaults().CompanyName
	if s.settings != nil {
		cfg, err := s.settings.Get(ctx, user.TenantID)
		if err != nil {
			return Record{}, nil, err
		}
		company = cfg.CompanyName
	}
	pdf, err := RenderPayslip(company, r)
	if err != nil {
		return Record{}, nil, err
	}
	return r, pdf, nil
}

func canSee(user auth.UserContext, r Record) bool {
	if auth.SeesSensitive(user.RoleName) {
		return true
	}
	return user.EmployeeID != "" && r.EmployeeID == user.EmployeeID && r.Finalized()
}

// Totals sums gross and net pay over records.
func Totals(records []Record) (gross, net decimal.Decimal) {
	gross, net = decimal.Zero, decimal.Zero
	for _, r := range records {
		gross = gross.Add(r.Gross)
		net = net.Add(r.Net)
	}
	return gross, net
}
