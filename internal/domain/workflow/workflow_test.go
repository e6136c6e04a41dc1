package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hris/internal/domain/auth"
	"hris/internal/domain/notifications"
)

func TestStartSkipsStagesAtOrBelowSubmitter(t *testing.T) {
	tests := []struct {
		name      string
		chain     Chain
		submitter string
		skip      []string
		want      string
	}{
		{name: "employee leave", chain: LeaveChainWithMD, submitter: auth.RoleEmployee, want: StatusPendingTeamLead},
		{name: "team lead leave", chain: LeaveChainWithMD, submitter: auth.RoleTeamLead, want: StatusPendingHR},
		{name: "hr leave", chain: LeaveChainWithMD, submitter: auth.RoleHR, want: StatusPendingMD},
		{name: "admin leave", chain: LeaveChainWithMD, submitter: auth.RoleAdmin, want: StatusPendingMD},
		{name: "md leave", chain: LeaveChainWithMD, submitter: auth.RoleMD, want: StatusApproved},
		{name: "hr short leave", chain: LeaveChain, submitter: auth.RoleHR, want: StatusApproved},
		{name: "no team lead", chain: LeaveChain, submitter: auth.RoleEmployee, skip: []string{auth.RoleTeamLead}, want: StatusPendingHR},
		{name: "employee loan", chain: LoanChain, submitter: auth.RoleEmployee, want: StatusPendingHR},
		{name: "team lead loan", chain: LoanChain, submitter: auth.RoleTeamLead, want: StatusPendingHR},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := tc.chain.Start(tc.submitter, tc.skip...)
			require.Equal(t, tc.want, d.To)
			require.Equal(t, StatusDraft, d.From)
			require.Equal(t, tc.want == StatusApproved, d.Final)
		})
	}
}

func TestApproveWalksTheChain(t *testing.T) {
	status := LeaveChainWithMD.Start(auth.RoleEmployee).To

	for _, role := range []string{auth.RoleTeamLead, auth.RoleHR, auth.RoleMD} {
		d, err := LeaveChainWithMD.Approve(status, role)
		require.NoError(t, err)
		require.Equal(t, status, d.From)
		status = d.To
	}
	require.Equal(t, StatusApproved, status)

	_, err := LeaveChainWithMD.Approve(status, auth.RoleMD)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestApproveRejectsWrongRole(t *testing.T) {
	_, err := LeaveChainWithMD.Approve(StatusPendingTeamLead, auth.RoleHR)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = LeaveChainWithMD.Approve(StatusPendingHR, auth.RoleEmployee)
	require.ErrorIs(t, err, ErrForbidden)

	d, err := LeaveChainWithMD.Approve(StatusPendingHR, auth.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, StatusPendingMD, d.To)

	_, err = LoanChain.Approve(StatusPendingTeamLead, auth.RoleTeamLead)
	require.ErrorIs(t, err, ErrInvalidState, "stage outside the chain")
}

func TestRejectRequiresNote(t *testing.T) {
	_, err := HandoverChain.Reject(StatusPendingHR, auth.RoleHR, "   ")
	require.ErrorIs(t, err, ErrNoteRequired)

	d, err := HandoverChain.Reject(StatusPendingHR, auth.RoleHR, " missing client list ")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, d.To)
	require.Equal(t, "missing client list", d.Note)
	require.True(t, d.Final)

	_, err = HandoverChain.Reject(StatusRejected, auth.RoleHR, "again")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCancel(t *testing.T) {
	for _, status := range []string{StatusDraft, StatusPendingTeamLead, StatusPendingMD} {
		d, err := Cancel(status)
		require.NoError(t, err)
		require.Equal(t, StatusCancelled, d.To)
	}
	for _, status := range []string{StatusApproved, StatusRejected, StatusCancelled} {
		_, err := Cancel(status)
		require.ErrorIs(t, err, ErrInvalidState)
	}
}

func TestReopen(t *testing.T) {
	d, err := Reopen(StatusRejected)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, d.To)

	_, err = Reopen(StatusApproved)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAuthorizeScopesTeamLeadToDirectReports(t *testing.T) {
	lead := Actor{UserID: "u-lead", EmployeeID: "e-lead", Role: auth.RoleTeamLead}
	report := Subject{OwnerEmployeeID: "e-1", ManagerEmployeeID: "e-lead"}
	stranger := Subject{OwnerEmployeeID: "e-2", ManagerEmployeeID: "e-other"}

	_, err := LeaveChain.ApproveAs(StatusPendingTeamLead, lead, report)
	require.NoError(t, err)

	_, err = LeaveChain.ApproveAs(StatusPendingTeamLead, lead, stranger)
	require.ErrorIs(t, err, ErrForbidden)

	self := Subject{OwnerEmployeeID: "e-lead", ManagerEmployeeID: "e-boss"}
	hr := Actor{UserID: "u-hr", EmployeeID: "e-lead", Role: auth.RoleHR}
	_, err = LeaveChain.RejectAs(StatusPendingHR, hr, self, "no")
	require.ErrorIs(t, err, ErrSelfReview)

	admin := Actor{UserID: "u-admin", EmployeeID: "e-admin", Role: auth.RoleAdmin}
	_, err = LeaveChain.ApproveAs(StatusPendingTeamLead, admin, stranger)
	require.NoError(t, err)
}

func TestActionableBuildsRoleQueues(t *testing.T) {
	report := Subject{OwnerEmployeeID: "e-1", ManagerEmployeeID: "e-lead"}
	lead := Actor{EmployeeID: "e-lead", Role: auth.RoleTeamLead}
	hr := Actor{EmployeeID: "e-hr", Role: auth.RoleHR}
	md := Actor{EmployeeID: "e-md", Role: auth.RoleMD}
	admin := Actor{EmployeeID: "e-admin", Role: auth.RoleAdmin}
	employee := Actor{EmployeeID: "e-2", Role: auth.RoleEmployee}

	statuses := []string{StatusPendingTeamLead, StatusPendingHR, StatusPendingMD, StatusApproved, StatusRejected}
	queue := func(a Actor) []string {
		var out []string
		for _, status := range statuses {
			if LeaveChainWithMD.Actionable(status, a, report) {
				out = append(out, status)
			}
		}
		return out
	}

	require.Equal(t, []string{StatusPendingTeamLead}, queue(lead))
	require.Equal(t, []string{StatusPendingHR}, queue(hr))
	require.Equal(t, []string{StatusPendingMD}, queue(md))
	require.Len(t, queue(admin), 3)
	require.Empty(t, queue(employee))
	require.Empty(t, queue(Actor{EmployeeID: "e-1", Role: auth.RoleHR}), "own record")
}

func TestCancelAsOwnerOnly(t *testing.T) {
	subject := Subject{OwnerEmployeeID: "e-1"}
	_, err := CancelAs(StatusPendingHR, Actor{EmployeeID: "e-2", Role: auth.RoleHR}, subject)
	require.ErrorIs(t, err, ErrNotOwner)

	d, err := CancelAs(StatusPendingHR, Actor{EmployeeID: "e-1"}, subject)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, d.To)
}

type fakeDirectory struct {
	managers map[string]string
	roles    map[string][]string
}

func (f fakeDirectory) UserIDsByRole(_ context.Context, _, role string) ([]string, error) {
	return f.roles[role], nil
}

func (f fakeDirectory) ManagerUserID(_ context.Context, _, employeeID string) (string, error) {
	return f.managers[employeeID], nil
}

func TestReviewers(t *testing.T) {
	dir := fakeDirectory{
		managers: map[string]string{"e-1": "u-lead"},
		roles:    map[string][]string{auth.RoleHR: {"u-hr1", "u-hr2"}},
	}
	ctx := context.Background()

	ids, err := Reviewers(ctx, dir, "t1", StatusPendingTeamLead, "e-1")
	require.NoError(t, err)
	require.Equal(t, []string{"u-lead"}, ids)

	ids, err = Reviewers(ctx, dir, "t1", StatusPendingHR, "e-1")
	require.NoError(t, err)
	require.Equal(t, []string{"u-hr1", "u-hr2"}, ids)

	ids, err = Reviewers(ctx, dir, "t1", StatusApproved, "e-1")
	require.NoError(t, err)
	require.Empty(t, ids)
}

type recordingNotifier struct {
	sent map[string][]string
}

func (r *recordingNotifier) Broadcast(_ context.Context, _ string, ids []string, ntype, _, _ string) {
	r.sent[ntype] = append(r.sent[ntype], ids...)
}

type staticDirectory struct{}

func (staticDirectory) UserIDsByRole(_ context.Context, _, role string) ([]string, error) {
	return []string{role + "-user"}, nil
}

func (staticDirectory) ManagerUserID(context.Context, string, string) (string, error) {
	return "lead-user", nil
}

func TestAnnounce(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{sent: map[string][]string{}}

	Announce(ctx, staticDirectory{}, n, "t1", Decision{To: StatusPendingTeamLead}, "e1", "owner", "Leave request")
	Announce(ctx, staticDirectory{}, n, "t1", Decision{To: StatusPendingHR}, "e1", "owner", "Leave request")
	Announce(ctx, staticDirectory{}, n, "t1", Decision{To: StatusRejected, Note: "no"}, "e1", "owner", "Leave request")
	Announce(ctx, staticDirectory{}, n, "t1", Decision{To: StatusCancelled}, "e1", "owner", "Leave request")

	require.Equal(t, []string{"lead-user", "hr-user"}, n.sent[notifications.TypeApprovalRequested])
	require.Equal(t, []string{"owner"}, n.sent[notifications.TypeRequestRejected])
	require.Empty(t, n.sent[notifications.TypeRequestApproved])
}
