package loanhandler

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/loan"
	"hris/internal/domain/workflow"
	"hris/internal/transport/http/handlers/handlertest"
)

type memStore struct {
	loans map[string]loan.Request
	steps []workflow.Step
}

func (m *memStore) Create(_ context.Context, _ string, r loan.Request, step workflow.Step) (string, error) {
	r.ID = "l" + strconv.Itoa(len(m.loans)+1)
	m.loans[r.ID] = r
	step.EntityID = r.ID
	m.steps = append(m.steps, step)
	return r.ID, nil
}

func (m *memStore) Get(_ context.Context, _, id string) (loan.Request, error) {
	r, ok := m.loans[id]
	if !ok {
		return loan.Request{}, loan.ErrNotFound
	}
	return r, nil
}

func (m *memStore) List(_ context.Context, _ string, scope auth.Scope, _ loan.Filter) ([]loan.Request, error) {
	var out []loan.Request
	for _, r := range m.loans {
		if scope.Allows(r.EmployeeID, r.ManagerID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Pending(context.Context, string) ([]loan.Request, error) {
	var out []loan.Request
	for _, r := range m.loans {
		if workflow.IsPending(r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Transition(_ context.Context, _ string, r loan.Request, d workflow.Decision, step workflow.Step) error {
	if m.loans[r.ID].Status != d.From {
		return workflow.ErrStaleState
	}
	r.Status = d.To
	m.loans[r.ID] = r
	m.steps = append(m.steps, step)
	return nil
}

func (m *memStore) Steps(context.Context, string, string) ([]workflow.Step, error) {
	return m.steps, nil
}

func (m *memStore) ActiveLoans(context.Context, string, string) ([]loan.Request, error) {
	return nil, nil
}

type people struct{}

func (people) UserIDsByRole(_ context.Context, _, role string) ([]string, error) {
	return []string{role + "-user"}, nil
}

func (people) ManagerUserID(context.Context, string, string) (string, error) { return "", nil }

func (people) ManagerIDByEmployeeID(context.Context, string, string) (string, error) {
	return "", nil
}

func (people) EmployeeUserID(_ context.Context, _, id string) (string, error) {
	return id + "-user", nil
}

var (
	employee = auth.UserContext{UserID: "emp-user", TenantID: "t1", EmployeeID: "emp", RoleName: auth.RoleEmployee}
	hr       = auth.UserContext{UserID: "hr-user", TenantID: "t1", EmployeeID: "hr", RoleName: auth.RoleHR}
	md       = auth.UserContext{UserID: "md-user", TenantID: "t1", EmployeeID: "md", RoleName: auth.RoleMD}
)

func newRouter(t *testing.T) http.Handler {
	svc := loan.NewService(&memStore{loans: map[string]loan.Request{}}, people{}, nil)
	return handlertest.Router(NewHandler(svc, handlertest.Perms(t), nil, nil))
}

func TestLoanApprovalByHRThenMD(t *testing.T) {
	router := newRouter(t)

	rec := handlertest.JSON(router, employee, http.MethodPost, "/loans/", `{"amount":"1000","purpose":"car repair","installments":3}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created loanView
	handlertest.Data(t, rec, &created)
	require.Equal(t, workflow.StatusPendingHR, created.Status)
	require.Equal(t, "333.33", created.MonthlyInstallment.StringFixed(2))

	rec = handlertest.JSON(router, employee, http.MethodPost, "/loans/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = handlertest.JSON(router, md, http.MethodPost, "/loans/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", handlertest.Decode(t, rec).Error.Code)

	rec = handlertest.JSON(router, hr, http.MethodPost, "/loans/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = handlertest.JSON(router, md, http.MethodPost, "/loans/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = handlertest.JSON(router, employee, http.MethodGet, "/loans/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail loanDetail
	handlertest.Data(t, rec, &detail)
	require.Equal(t, workflow.StatusApproved, detail.Loan.Status)
	require.Len(t, detail.Schedule, 3)
	require.Equal(t, "333.34", detail.Schedule[2].Amount.StringFixed(2))
	require.Len(t, detail.Steps, 3)
}

func TestLoanSubmitRejectsBadAmounts(t *testing.T) {
	router := newRouter(t)

	rec := handlertest.JSON(router, employee, http.MethodPost, "/loans/", `{"amount":"10.005","purpose":"x","installments":2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_amount", handlertest.Decode(t, rec).Error.Code)

	rec = handlertest.JSON(router, employee, http.MethodPost, "/loans/", `{"amount":"100","purpose":"x","installments":48}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", handlertest.Decode(t, rec).Error.Code)
}

func TestLoanCancelByOwnerOnly(t *testing.T) {
	router := newRouter(t)

	rec := handlertest.JSON(router, employee, http.MethodPost, "/loans/", `{"amount":"200","purpose":"deposit","installments":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created loanView
	handlertest.Data(t, rec, &created)

	rec = handlertest.JSON(router, hr, http.MethodPost, "/loans/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_owner", handlertest.Decode(t, rec).Error.Code)

	rec = handlertest.JSON(router, employee, http.MethodPost, "/loans/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled loanView
	handlertest.Data(t, rec, &cancelled)
	require.Equal(t, workflow.StatusCancelled, cancelled.Status)
}
