package handover

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/leave"
	"hris/internal/domain/workflow"
	"hris/internal/platform/storage"
)

type memStore struct {
	reports map[string]Report
	steps   []workflow.Step
	failAdd bool
}

func (m *memStore) Create(_ context.Context, _ string, r Report, step workflow.Step) (string, error) {
	if m.failAdd {
		return "", io.ErrUnexpectedEOF
	}
	r.ID = "h" + strconv.Itoa(len(m.reports)+1)
	m.reports[r.ID] = r
	step.EntityID = r.ID
	m.steps = append(m.steps, step)
	return r.ID, nil
}

func (m *memStore) Get(_ context.Context, _, id string) (Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return r, nil
}

func (m *memStore) List(_ context.Context, _ string, scope auth.Scope, _ Filter) ([]Report, error) {
	var out []Report
	for _, r := range m.reports {
		if scope.Allows(r.EmployeeID, r.ManagerID) || r.ColleagueID == scope.EmployeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Pending(context.Context, string) ([]Report, error) {
	var out []Report
	for _, r := range m.reports {
		if workflow.IsPending(r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Transition(_ context.Context, _ string, r Report, d workflow.Decision, step workflow.Step) error {
	cur := m.reports[r.ID]
	if cur.Status != d.From {
		return workflow.ErrStaleState
	}
	cur.Status = d.To
	m.reports[r.ID] = cur
	m.steps = append(m.steps, step)
	return nil
}

func (m *memStore) Steps(context.Context, string, string) ([]workflow.Step, error) { return m.steps, nil }

type memFiles struct {
	saved   map[string][]byte
	deleted []string
}

func (f *memFiles) Save(ctx context.Context, prefix, name string, data []byte, allowed ...string) (storage.File, error) {
	contentType, err := storage.Sniff(data, allowed...)
	if err != nil {
		return storage.File{}, err
	}
	key := prefix + "/" + name
	f.saved[key] = data
	return storage.File{Key: key, Name: name, ContentType: contentType, Size: int64(len(data))}, nil
}

func (f *memFiles) Open(key string) (io.ReadCloser, error) {
	data, ok := f.saved[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *memFiles) Delete(key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.saved, key)
	return nil
}

type people struct{}

func (people) UserIDsByRole(_ context.Context, _, role string) ([]string, error) {
	return []string{role + "-user"}, nil
}
func (people) ManagerUserID(context.Context, string, string) (string, error) { return "lead-user", nil }
func (people) ManagerIDByEmployeeID(_ context.Context, _, id string) (string, error) {
	if id == "emp" {
		return "lead", nil
	}
	return "", nil
}
func (people) EmployeeUserID(_ context.Context, _, id string) (string, error) { return id + "-user", nil }

type leaves map[string]leave.Request

func (l leaves) GetRequest(_ context.Context, _, id string) (leave.Request, error) {
	r, ok := l[id]
	if !ok {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, nil
}

var pdf = []byte("%PDF-1.4\n%%EOF\n")

var (
	owner     = auth.UserContext{UserID: "emp-user", TenantID: "t1", EmployeeID: "emp", RoleName: auth.RoleEmployee}
	colleague = auth.UserContext{UserID: "col-user", TenantID: "t1", EmployeeID: "col", RoleName: auth.RoleEmployee}
	stranger  = auth.UserContext{UserID: "x-user", TenantID: "t1", EmployeeID: "x", RoleName: auth.RoleEmployee}
	teamLead  = auth.UserContext{UserID: "lead-user", TenantID: "t1", EmployeeID: "lead", RoleName: auth.RoleTeamLead}
	hrUser    = auth.UserContext{UserID: "hr-user", TenantID: "t1", EmployeeID: "hr", RoleName: auth.RoleHR}
)

func newService() (*Service, *memStore, *memFiles) {
	store := &memStore{reports: map[string]Report{}}
	files := &memFiles{saved: map[string][]byte{}}
	requests := leaves{
		"lr-own":   {ID: "lr-own", EmployeeID: "emp"},
		"lr-other": {ID: "lr-other", EmployeeID: "col"},
	}
	return NewService(store, files, people{}, requests, nil), store, files
}

func TestSubmitWithPDFAndApprove(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService()

	r, err := svc.Submit(ctx, owner, SubmitInput{ColleagueID: "col", Summary: " Q3 close "}, &Attachment{Name: "handover.pdf", Data: pdf})
	require.NoError(t, err)
	require.Equal(t, workflow.StatusPendingTeamLead, r.Status)
	require.Equal(t, "Q3 close", r.Summary)
	require.True(t, r.HasFile())

	_, rc, err := svc.Download(ctx, colleague, r.ID)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	_, _, err = svc.Download(ctx, stranger, r.ID)
	require.ErrorIs(t, err, ErrNotFound)

	r, err = svc.Approve(ctx, teamLead, r.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusPendingHR, r.Status)

	queue, err := svc.Queue(ctx, hrUser)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	r, err = svc.Approve(ctx, hrUser, r.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusApproved, r.Status)
}

func TestSubmitRejectsNonPDF(t *testing.T) {
	svc, _, files := newService()
	_, err := svc.Submit(context.Background(), owner, SubmitInput{ColleagueID: "col", Summary: "x"}, &Attachment{Name: "notes.txt", Data: []byte("plain text")})
	require.ErrorIs(t, err, storage.ErrUnsupported)
	require.Empty(t, files.saved)
}

func TestSubmitCleansUpFileOnStoreError(t *testing.T) {
	svc, store, files := newService()
	store.failAdd = true
	_, err := svc.Submit(context.Background(), owner, SubmitInput{ColleagueID: "col", Summary: "x"}, &Attachment{Name: "h.pdf", Data: pdf})
	require.Error(t, err)
	require.Equal(t, []string{"handover/h.pdf"}, files.deleted)
}

func TestSubmitRules(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, owner, SubmitInput{ColleagueID: "emp", Summary: "x"}, nil)
	require.ErrorIs(t, err, ErrSelfColleague)

	r, err := svc.Submit(ctx, stranger, SubmitInput{ColleagueID: "col", Summary: "x"}, nil)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusPendingHR, r.Status, "no team lead skips that stage")

	_, _, err = svc.Download(ctx, stranger, r.ID)
	require.ErrorIs(t, err, ErrNoFile)

	_, err = svc.Reject(ctx, hrUser, r.ID, "")
	require.ErrorIs(t, err, workflow.ErrNoteRequired)
}

func TestSubmitChecksLeaveRequest(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService()

	r, err := svc.Submit(ctx, owner, SubmitInput{ColleagueID: "col", LeaveRequestID: "lr-own", Summary: "cover"}, nil)
	require.NoError(t, err)
	require.Equal(t, "lr-own", r.LeaveRequestID)

	_, err = svc.Submit(ctx, owner, SubmitInput{ColleagueID: "col", LeaveRequestID: "lr-other", Summary: "cover"}, nil)
	require.ErrorIs(t, err, ErrLeaveNotFound)

	_, err = svc.Submit(ctx, owner, SubmitInput{ColleagueID: "col", LeaveRequestID: "lr-missing", Summary: "cover"}, nil)
	require.ErrorIs(t, err, ErrLeaveNotFound)

	require.Len(t, store.reports, 1)
}
