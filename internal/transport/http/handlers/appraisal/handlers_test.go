package appraisalhandler

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/appraisal"
	"hris/internal/domain/auth"
	"hris/internal/domain/workflow"
	"hris/internal/transport/http/handlers/handlertest"
)

const empID = "4a8e2f4c-9b1d-4f0e-8c3a-5d6e7f809a1b"

type memStore struct {
	items map[string]appraisal.Appraisal
	steps []workflow.Step
}

func (m *memStore) Create(_ context.Context, _, _ string, a appraisal.Appraisal) (string, error) {
	a.ID = "a" + strconv.Itoa(len(m.items)+1)
	for i := range a.Objectives {
		a.Objectives[i].ID = "o" + strconv.Itoa(i+1)
	}
	if a.EmployeeID == empID {
		a.ManagerID = "lead"
	}
	m.items[a.ID] = a
	return a.ID, nil
}

func (m *memStore) Get(_ context.Context, _, id string) (appraisal.Appraisal, error) {
	a, ok := m.items[id]
	if !ok {
		return appraisal.Appraisal{}, appraisal.ErrNotFound
	}
	a.Objectives = append([]appraisal.Objective(nil), a.Objectives...)
	return a, nil
}

func (m *memStore) List(_ context.Context, _ string, scope auth.Scope, _ appraisal.Filter) ([]appraisal.Appraisal, error) {
	var out []appraisal.Appraisal
	for _, a := range m.items {
		if scope.Allows(a.EmployeeID, a.ManagerID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) Pending(context.Context, string) ([]appraisal.Appraisal, error) {
	var out []appraisal.Appraisal
	for _, a := range m.items {
		if workflow.IsPending(a.Status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) SaveAssessment(_ context.Context, _ string, a appraisal.Appraisal) error {
	m.items[a.ID] = a
	return nil
}

func (m *memStore) Transition(_ context.Context, _ string, a appraisal.Appraisal, d workflow.Decision, step workflow.Step) error {
	if m.items[a.ID].Status != d.From {
		return workflow.ErrStaleState
	}
	a.Status = d.To
	m.items[a.ID] = a
	m.steps = append(m.steps, step)
	return nil
}

func (m *memStore) Steps(context.Context, string, string) ([]workflow.Step, error) {
	return m.steps, nil
}

type people struct{}

func (people) UserIDsByRole(_ context.Context, _, role string) ([]string, error) {
	return []string{role + "-user"}, nil
}

func (people) ManagerUserID(context.Context, string, string) (string, error) {
	return "lead-user", nil
}

func (people) ManagerIDByEmployeeID(_ context.Context, _, id string) (string, error) {
	if id == empID {
		return "lead", nil
	}
	return "", nil
}

func (people) EmployeeUserID(_ context.Context, _, id string) (string, error) {
	return id + "-user", nil
}

var (
	employee = auth.UserContext{UserID: "emp-user", TenantID: "t1", EmployeeID: empID, RoleName: auth.RoleEmployee}
	lead     = auth.UserContext{UserID: "lead-user", TenantID: "t1", EmployeeID: "lead", RoleName: auth.RoleTeamLead}
	hr       = auth.UserContext{UserID: "hr-user", TenantID: "t1", EmployeeID: "hr", RoleName: auth.RoleHR}
	md       = auth.UserContext{UserID: "md-user", TenantID: "t1", EmployeeID: "md", RoleName: auth.RoleMD}
)

func newRouter(t *testing.T) http.Handler {
	svc := appraisal.NewService(&memStore{items: map[string]appraisal.Appraisal{}}, people{}, nil)
	return handlertest.Router(NewHandler(svc, handlertest.Perms(t), nil, nil))
}

func approve(t *testing.T, router http.Handler, user auth.UserContext, id, want string) {
	t.Helper()
	rec := handlertest.JSON(router, user, http.MethodPost, "/appraisals/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got appraisalView
	handlertest.Data(t, rec, &got)
	require.Equal(t, want, got.Status)
}

func TestAppraisalFullChain(t *testing.T) {
	router := newRouter(t)

	rec := handlertest.JSON(router, employee, http.MethodPost, "/appraisals/", map[string]any{})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = handlertest.JSON(router, hr, http.MethodPost, "/appraisals/", map[string]any{
		"employeeId": empID,
		"period":     "2025-H1",
		"objectives": []map[string]any{
			{"title": "Ship payroll export", "weight": 60},
			{"title": "Mentor juniors", "weight": 40},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created appraisalView
	handlertest.Data(t, rec, &created)
	require.Equal(t, workflow.StatusDraft, created.Status)
	id := created.ID

	rec = handlertest.JSON(router, employee, http.MethodPost, "/appraisals/"+id+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_score", handlertest.Decode(t, rec).Error.Code)

	rec = handlertest.JSON(router, employee, http.MethodPut, "/appraisals/"+id+"/self", map[string]any{
		"scores": []map[string]any{
			{"objectiveId": "o1", "score": 4},
			{"objectiveId": "o2", "score": 3},
		},
		"comment": "good half",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = handlertest.JSON(router, employee, http.MethodPost, "/appraisals/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = handlertest.JSON(router, lead, http.MethodPut, "/appraisals/"+id+"/review", map[string]any{
		"scores": []map[string]any{{"objectiveId": "o1", "score": 5}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	approve(t, router, lead, id, workflow.StatusPendingHR)
	approve(t, router, hr, id, workflow.StatusPendingMD)

	rec = handlertest.JSON(router, md, http.MethodGet, "/appraisals/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue []appraisalView
	handlertest.Data(t, rec, &queue)
	require.Len(t, queue, 1)

	approve(t, router, md, id, workflow.StatusApproved)

	rec = handlertest.JSON(router, employee, http.MethodGet, "/appraisals/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Appraisal appraisalView   `json:"appraisal"`
		Steps     []workflow.Step `json:"steps"`
	}
	handlertest.Data(t, rec, &detail)
	require.NotNil(t, detail.Appraisal.FinalScore)
	require.InDelta(t, 4.2, *detail.Appraisal.FinalScore, 0.001)
	require.Len(t, detail.Steps, 4)
}

func TestAppraisalRejectAndReopen(t *testing.T) {
	store := &memStore{items: map[string]appraisal.Appraisal{
		"a1": {ID: "a1", EmployeeID: empID, ManagerID: "lead", Period: "2025-H1", Status: workflow.StatusPendingHR,
			Objectives: []appraisal.Objective{{ID: "o1", Title: "x", Weight: 100}}},
	}}
	router := handlertest.Router(NewHandler(appraisal.NewService(store, people{}, nil), handlertest.Perms(t), nil, nil))

	rec := handlertest.JSON(router, hr, http.MethodPost, "/appraisals/a1/reject", map[string]string{"note": "scores need evidence"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = handlertest.JSON(router, lead, http.MethodPost, "/appraisals/a1/reopen", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = handlertest.JSON(router, hr, http.MethodPost, "/appraisals/a1/reopen", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reopened appraisalView
	handlertest.Data(t, rec, &reopened)
	require.Equal(t, workflow.StatusDraft, reopened.Status)
}
