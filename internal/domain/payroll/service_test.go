package payroll

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/loan"
	"hris/internal/domain/notifications"
	"hris/internal/domain/settings"
)

type memStore struct {
	records    map[string]Record
	repayments map[string][]Repayment
	finalized  []string
}

func newMemStore() *memStore {
	return &memStore{records: map[string]Record{}, repayments: map[string][]Repayment{}}
}

func (m *memStore) Create(_ context.Context, _ string, r Record, repayments []Repayment) (string, error) {
	for _, other := range m.records {
		if other.EmployeeID == r.EmployeeID && other.Period == r.Period {
			return "", ErrDuplicate
		}
	}
	r.ID = "p" + strconv.Itoa(len(m.records)+1)
	r.EmployeeName = "Eli Worker"
	m.records[r.ID] = r
	m.repayments[r.ID] = repayments
	return r.ID, nil
}

func (m *memStore) Get(_ context.Context, _, id string) (Record, error) {
	r, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (m *memStore) List(_ context.Context, _ string, f Filter) ([]Record, error) {
	var out []Record
	for _, r := range m.records {
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, _ string, r Record) error {
	if m.records[r.ID].Finalized() {
		return ErrFinalized
	}
	m.records[r.ID] = r
	return nil
}

func (m *memStore) Delete(_ context.Context, _, id string) error {
	delete(m.records, id)
	return nil
}

func (m *memStore) Finalize(_ context.Context, _, id string) error {
	r := m.records[id]
	r.Status = StatusFinalized
	m.records[id] = r
	m.finalized = append(m.finalized, id)
	return nil
}

type loans struct{ due []loan.Deduction }

func (l loans) Deductions(context.Context, string, string) ([]loan.Deduction, error) { return l.due, nil }

type people struct{}

func (people) ManagerIDByEmployeeID(context.Context, string, string) (string, error) { return "", nil }
func (people) EmployeeUserID(_ context.Context, _, id string) (string, error)       { return id + "-user", nil }

type settingsStub struct{}

func (settingsStub) Get(context.Context, string) (settings.Settings, error) {
	return settings.Settings{CompanyName: "Acme"}, nil
}

type inbox struct{ sent map[string][]string }

func (i *inbox) Broadcast(_ context.Context, _ string, ids []string, ntype, _, _ string) {
	i.sent[ntype] = append(i.sent[ntype], ids...)
}

var (
	hrUser   = auth.UserContext{UserID: "hr-user", TenantID: "t1", EmployeeID: "hr", RoleName: auth.RoleHR}
	owner    = auth.UserContext{UserID: "emp-user", TenantID: "t1", EmployeeID: "emp", RoleName: auth.RoleEmployee}
	teamLead = auth.UserContext{UserID: "lead-user", TenantID: "t1", EmployeeID: "lead", RoleName: auth.RoleTeamLead}
)

func TestPayrollLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	n := &inbox{sent: map[string][]string{}}
	svc := NewService(store, loans{due: []loan.Deduction{{LoanID: "l1", Amount: d("333.33")}}}, people{}, settingsStub{}, n)

	r, err := svc.Create(ctx, "t1", CreateInput{EmployeeID: "emp", Period: "2026-03", BaseSalary: d("5000"), Allowances: d("200")})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, r.Status)
	require.Equal(t, DefaultCurrency, r.Currency)
	require.Equal(t, "333.33", r.LoanDeduction.StringFixed(2))
	require.Equal(t, "4866.67", r.Net.StringFixed(2))
	require.Len(t, store.repayments[r.ID], 1)
	require.Equal(t, "l1", store.repayments[r.ID][0].LoanID)

	_, err = svc.Create(ctx, "t1", CreateInput{EmployeeID: "emp", Period: "2026-03", BaseSalary: d("1")})
	require.ErrorIs(t, err, ErrDuplicate)

	mine, err := svc.List(ctx, owner, Filter{})
	require.NoError(t, err)
	require.Empty(t, mine, "drafts are hidden from the employee")

	_, _, err = svc.Payslip(ctx, hrUser, r.ID)
	require.ErrorIs(t, err, ErrNotFinalized)

	r, err = svc.Update(ctx, "t1", r.ID, UpdateInput{BaseSalary: d("5100"), Allowances: d("200")})
	require.NoError(t, err)
	require.Equal(t, "4966.67", r.Net.StringFixed(2))

	r, err = svc.Finalize(ctx, "t1", r.ID)
	require.NoError(t, err)
	require.True(t, r.Finalized())
	require.Equal(t, []string{"emp-user"}, n.sent[notifications.TypePayslipPublished])

	_, err = svc.Update(ctx, "t1", r.ID, UpdateInput{BaseSalary: d("1")})
	require.ErrorIs(t, err, ErrFinalized)
	require.ErrorIs(t, svc.Delete(ctx, "t1", r.ID), ErrFinalized)
	_, err = svc.Finalize(ctx, "t1", r.ID)
	require.ErrorIs(t, err, ErrFinalized)

	mine, err = svc.List(ctx, owner, Filter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = svc.Get(ctx, teamLead, r.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, pdf, err := svc.Payslip(ctx, owner, r.ID)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestPayrollCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), loans{}, people{}, nil, nil)

	_, err := svc.Create(ctx, "t1", CreateInput{EmployeeID: "emp", Period: "March", BaseSalary: d("1")})
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.Create(ctx, "t1", CreateInput{EmployeeID: "emp", Period: "2026-03", BaseSalary: d("100"), Deductions: d("150")})
	require.ErrorIs(t, err, ErrNegativeNet)

	r, err := svc.Create(ctx, "t1", CreateInput{EmployeeID: "emp", Period: "2026-04", Currency: "eur", BaseSalary: d("100")})
	require.NoError(t, err)
	require.Equal(t, "EUR", r.Currency)
	require.NoError(t, svc.Delete(ctx, "t1", r.ID))
}
