package leavehandler

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/leave"
	"hris/internal/domain/settings"
	"hris/internal/domain/workflow"
	"hris/internal/platform/metrics"
	"hris/internal/transport/http/handlers/handlertest"
)

const annualID = "6f1c1b1e-3a43-4c55-9d8e-0b9a1f1f0a01"

type memStore struct {
	types    map[string]leave.LeaveType
	requests map[string]leave.Request
	steps    []workflow.Step
	seq      int
}

func newMemStore() *memStore {
	return &memStore{
		types: map[string]leave.LeaveType{
			annualID: {ID: annualID, Name: "Annual", Code: "ANNUAL", IsPaid: true, AnnualEntitlement: 21},
		},
		requests: map[string]leave.Request{},
	}
}

func (m *memStore) ListTypes(context.Context, string) ([]leave.LeaveType, error) {
	return []leave.LeaveType{m.types[annualID]}, nil
}

func (m *memStore) GetType(_ context.Context, _, id string) (leave.LeaveType, error) {
	t, ok := m.types[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrNotFound
	}
	return t, nil
}

func (m *memStore) CreateType(_ context.Context, _ string, t leave.LeaveType) (string, error) {
	t.ID = "type-" + t.Code
	m.types[t.ID] = t
	return t.ID, nil
}

func (m *memStore) ListBalances(context.Context, string, string) ([]leave.Balance, error) {
	return []leave.Balance{{LeaveTypeID: annualID, LeaveTypeName: "Annual", IsPaid: true, Entitlement: 21, Used: 2}}, nil
}

func (m *memStore) SetEntitlement(context.Context, string, string, string, float64) error {
	return nil
}

func (m *memStore) ActiveRequests(_ context.Context, _, employeeID string, _, _ time.Time) ([]leave.Request, error) {
	var out []leave.Request
	for _, r := range m.requests {
		if r.EmployeeID == employeeID && leave.HoldsDays(r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) CreateRequest(_ context.Context, _ string, req leave.Request, step workflow.Step) (string, error) {
	m.seq++
	req.ID = "r" + strconv.Itoa(m.seq)
	m.requests[req.ID] = req
	step.EntityID = req.ID
	m.steps = append(m.steps, step)
	return req.ID, nil
}

func (m *memStore) GetRequest(_ context.Context, _, id string) (leave.Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, nil
}

func (m *memStore) ListRequests(_ context.Context, _ string, scope auth.Scope, _ leave.Filter) ([]leave.Request, error) {
	var out []leave.Request
	for _, r := range m.requests {
		if scope.Allows(r.EmployeeID, r.ManagerID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) PendingRequests(context.Context, string) ([]leave.Request, error) {
	var out []leave.Request
	for _, r := range m.requests {
		if workflow.IsPending(r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Transition(_ context.Context, _ string, req leave.Request, d workflow.Decision, step workflow.Step) error {
	if m.requests[req.ID].Status != d.From {
		return workflow.ErrStaleState
	}
	req.Status = d.To
	req.DecisionNote = d.Note
	m.requests[req.ID] = req
	m.steps = append(m.steps, step)
	return nil
}

func (m *memStore) Steps(_ context.Context, _, id string) ([]workflow.Step, error) {
	var out []workflow.Step
	for _, s := range m.steps {
		if s.EntityID == id {
			out = append(out, s)
		}
	}
	return out, nil
}

type people struct{}

func (people) UserIDsByRole(_ context.Context, _, role string) ([]string, error) {
	return []string{role + "-user"}, nil
}

func (people) ManagerUserID(context.Context, string, string) (string, error) {
	return "lead-user", nil
}

func (people) ManagerIDByEmployeeID(_ context.Context, _, employeeID string) (string, error) {
	if employeeID == "emp" {
		return "lead", nil
	}
	return "", nil
}

func (people) EmployeeUserID(_ context.Context, _, employeeID string) (string, error) {
	return employeeID + "-user", nil
}

type defaults struct{}

func (defaults) Get(context.Context, string) (settings.Settings, error) {
	return settings.Defaults(), nil
}

type quiet struct{}

func (quiet) Broadcast(context.Context, string, []string, string, string, string) {}

var (
	employee = auth.UserContext{UserID: "emp-user", TenantID: "t1", EmployeeID: "emp", RoleName: auth.RoleEmployee}
	lead     = auth.UserContext{UserID: "lead-user", TenantID: "t1", EmployeeID: "lead", RoleName: auth.RoleTeamLead}
	hr       = auth.UserContext{UserID: "hr-user", TenantID: "t1", EmployeeID: "hr", RoleName: auth.RoleHR}
)

func newRouter(t *testing.T) http.Handler {
	svc := leave.NewService(newMemStore(), people{}, defaults{}, quiet{})
	return handlertest.Router(NewHandler(svc, handlertest.Perms(t), nil, metrics.New()))
}

func TestLeaveRequestApprovalFlow(t *testing.T) {
	router := newRouter(t)

	rec := handlertest.JSON(router, employee, http.MethodPost, "/leave/requests", map[string]any{
		"leaveTypeId": annualID,
		"startDate":   "2025-03-03",
		"endDate":     "2025-03-05",
		"reason":      "family trip",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created requestView
	handlertest.Data(t, rec, &created)
	require.Equal(t, workflow.StatusPendingTeamLead, created.Status)
	require.Equal(t, workflow.Label(workflow.StatusPendingTeamLead), created.Badge)
	require.Equal(t, 3.0, created.Days)

	rec = handlertest.JSON(router, employee, http.MethodPost, "/leave/requests/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = handlertest.JSON(router, hr, http.MethodPost, "/leave/requests/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", handlertest.Decode(t, rec).Error.Code)

	rec = handlertest.JSON(router, lead, http.MethodGet, "/leave/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue []requestView
	handlertest.Data(t, rec, &queue)
	require.Len(t, queue, 1)

	rec = handlertest.JSON(router, lead, http.MethodPost, "/leave/requests/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = handlertest.JSON(router, hr, http.MethodPost, "/leave/requests/"+created.ID+"/reject", map[string]string{"note": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "note_required", handlertest.Decode(t, rec).Error.Code)

	rec = handlertest.JSON(router, hr, http.MethodPost, "/leave/requests/"+created.ID+"/reject", map[string]string{"note": "peak season"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rejected requestView
	handlertest.Data(t, rec, &rejected)
	require.Equal(t, workflow.StatusRejected, rejected.Status)
	require.Equal(t, "peak season", rejected.DecisionNote)
	require.Equal(t, "red", rejected.Badge.Color)

	rec = handlertest.JSON(router, employee, http.MethodGet, "/leave/requests/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail requestDetail
	handlertest.Data(t, rec, &detail)
	require.Len(t, detail.Steps, 3)

	rec = handlertest.JSON(router, employee, http.MethodPost, "/leave/requests/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeaveSubmitValidation(t *testing.T) {
	router := newRouter(t)

	rec := handlertest.JSON(router, employee, http.MethodPost, "/leave/requests", map[string]any{
		"leaveTypeId": annualID,
		"startDate":   "2025-03-05",
		"endDate":     "2025-03-03",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := handlertest.Decode(t, rec)
	require.Equal(t, "validation_error", env.Error.Code)
	require.Equal(t, "endDate", env.Error.Details.Fields[0].Field)

	rec = handlertest.JSON(router, employee, http.MethodPost, "/leave/requests", map[string]any{
		"leaveTypeId": "annual",
		"startDate":   "03/05/2025",
		"endDate":     "2025-03-06",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, handlertest.Decode(t, rec).Error.Details.Fields, 1)
}

func TestLeaveBalancesAndTypesAreRoleGated(t *testing.T) {
	router := newRouter(t)

	rec := handlertest.JSON(router, employee, http.MethodGet, "/leave/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balances []struct {
		Available float64 `json:"available"`
	}
	handlertest.Data(t, rec, &balances)
	require.Equal(t, 19.0, balances[0].Available)

	rec = handlertest.JSON(router, employee, http.MethodPost, "/leave/types", map[string]any{"name": "Study", "code": "study"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = handlertest.JSON(router, hr, http.MethodPost, "/leave/types", map[string]any{"name": "Study", "code": "study"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = handlertest.JSON(router, hr, http.MethodPut, "/leave/balances", map[string]any{
		"employeeId":  "7d5c0e4a-1b2f-4a3c-8e9d-112233445566",
		"leaveTypeId": annualID,
		"entitlement": 25,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
