package loan

import (
	"context"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
)

type memStore struct {
	loans map[string]Request
	steps []workflow.Step
}

func (m *memStore) Create(_ context.Context, _ string, r Request, step workflow.Step) (string, error) {
	r.ID = "l" + strconv.Itoa(len(m.loans)+1)
	m.loans[r.ID] = r
	m.steps = append(m.steps, step)
	return r.ID, nil
}

func (m *memStore) Get(_ context.Context, _, id string) (Request, error) {
	r, ok := m.loans[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return r, nil
}

func (m *memStore) List(_ context.Context, _ string, scope auth.Scope, _ Filter) ([]Request, error) {
	var out []Request
	for _, r := range m.loans {
		if scope.Allows(r.EmployeeID, r.ManagerID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Pending(context.Context, string) ([]Request, error) {
	var out []Request
	for _, r := range m.loans {
		if workflow.IsPending(r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Transition(_ context.Context, _ string, r Request, d workflow.Decision, step workflow.Step) error {
	cur := m.loans[r.ID]
	if cur.Status != d.From {
		return workflow.ErrStaleState
	}
	cur.Status = d.To
	m.loans[r.ID] = cur
	m.steps = append(m.steps, step)
	return nil
}

func (m *memStore) Steps(context.Context, string, string) ([]workflow.Step, error) { return m.steps, nil }

func (m *memStore) ActiveLoans(_ context.Context, _, employeeID string) ([]Request, error) {
	var out []Request
	for _, r := range m.loans {
		if r.EmployeeID == employeeID && r.Status == workflow.StatusApproved && r.Outstanding.IsPositive() {
			out = append(out, r)
		}
	}
	return out, nil
}

type people struct{}

func (people) UserIDsByRole(_ context.Context, _, role string) ([]string, error) {
	return []string{role + "-user"}, nil
}
func (people) ManagerUserID(context.Context, string, string) (string, error) { return "", nil }
func (people) ManagerIDByEmployeeID(context.Context, string, string) (string, error) {
	return "", nil
}
func (people) EmployeeUserID(_ context.Context, _, id string) (string, error) { return id + "-user", nil }

var (
	owner  = auth.UserContext{UserID: "emp-user", TenantID: "t1", EmployeeID: "emp", RoleName: auth.RoleEmployee}
	other  = auth.UserContext{UserID: "x-user", TenantID: "t1", EmployeeID: "x", RoleName: auth.RoleEmployee}
	hrUser = auth.UserContext{UserID: "hr-user", TenantID: "t1", EmployeeID: "hr", RoleName: auth.RoleHR}
	md     = auth.UserContext{UserID: "md-user", TenantID: "t1", EmployeeID: "md", RoleName: auth.RoleMD}
)

func TestLoanApprovalChain(t *testing.T) {
	ctx := context.Background()
	store := &memStore{loans: map[string]Request{}}
	svc := NewService(store, people{}, nil)

	r, err := svc.Submit(ctx, owner, SubmitInput{Amount: decimal.RequireFromString("1000"), Purpose: " laptop ", Installments: 3})
	require.NoError(t, err)
	require.Equal(t, workflow.StatusPendingHR, r.Status)
	require.Equal(t, "333.33", r.MonthlyInstallment.StringFixed(2))
	require.Equal(t, "laptop", r.Purpose)

	_, err = svc.Approve(ctx, md, r.ID)
	require.ErrorIs(t, err, workflow.ErrForbidden)

	r, err = svc.Approve(ctx, hrUser, r.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusPendingMD, r.Status)

	queue, err := svc.Queue(ctx, md)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	r, err = svc.Approve(ctx, md, r.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusApproved, r.Status)

	_, err = svc.Cancel(ctx, owner, r.ID)
	require.ErrorIs(t, err, workflow.ErrInvalidState)

	got, schedule, steps, err := svc.Get(ctx, owner, r.ID)
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)
	require.Len(t, schedule, 3)
	require.Equal(t, "333.34", schedule[2].Amount.StringFixed(2))
	require.Len(t, steps, 3)

	_, _, _, err = svc.Get(ctx, other, r.ID)
	require.ErrorIs(t, err, ErrNotFound)

	deductions, err := svc.Deductions(ctx, "t1", "emp")
	require.NoError(t, err)
	require.Len(t, deductions, 1)
	require.Equal(t, "333.33", Total(deductions).StringFixed(2))
}

func TestLoanSubmitValidationAndCancel(t *testing.T) {
	ctx := context.Background()
	store := &memStore{loans: map[string]Request{}}
	svc := NewService(store, people{}, nil)

	_, err := svc.Submit(ctx, owner, SubmitInput{Amount: decimal.RequireFromString("500"), Installments: 40})
	require.ErrorIs(t, err, ErrInvalidInstallments)

	_, err = svc.Submit(ctx, auth.UserContext{RoleName: auth.RoleAdmin}, SubmitInput{Amount: decimal.RequireFromString("500"), Installments: 2})
	require.ErrorIs(t, err, ErrNoEmployee)

	r, err := svc.Submit(ctx, hrUser, SubmitInput{Amount: decimal.RequireFromString("500"), Purpose: "car", Installments: 2})
	require.NoError(t, err)
	require.Equal(t, workflow.StatusPendingMD, r.Status, "hr submitter skips own stage")

	_, err = svc.Cancel(ctx, other, r.ID)
	require.ErrorIs(t, err, workflow.ErrNotOwner)

	r, err = svc.Cancel(ctx, hrUser, r.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusCancelled, r.Status)

	_, err = svc.Reject(ctx, md, r.ID, "late")
	require.ErrorIs(t, err, workflow.ErrInvalidState)
}
