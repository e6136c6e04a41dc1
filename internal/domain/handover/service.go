package handover

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-faster/errors"

	"hris/internal/domain/auth"
	"hris/internal/domain/leave"
	"hris/internal/domain/notifications"
	"hris/internal/domain/workflow"
	"hris/internal/platform/storage"
)

type FileStore interface {
	Save(ctx context.Context, prefix, name string, data []byte, allowed ...string) (storage.File, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

type People interface {
	workflow.Directory
	ManagerIDByEmployeeID(ctx context.Context, tenantID, employeeID string) (string, error)
	EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error)
}

// LeaveRequests resolves the leave request a report is filed against.
type LeaveRequests interface {
	GetRequest(ctx context.Context, tenantID, requestID string) (leave.Request, error)
}

type Service struct {
	store  StoreAPI
	files  FileStore
	people People
	leaves LeaveRequests
	notify workflow.Notifier
}

func NewService(store StoreAPI, files FileStore, people People, leaves LeaveRequests, notify workflow.Notifier) *Service {
	return &Service{store: store, files: files, people: people, leaves: leaves, notify: notify}
}

// Submit files a report, optionally with a PDF attachment. The attachment is
// removed again if the report cannot be stored.
func (s *Service) Submit(ctx context.Context, user auth.UserContext, in SubmitInput, att *Attachment) (Report, error) {
	if user.EmployeeID == "" {
		return Report{}, ErrNoEmployee
	}
	if in.ColleagueID == user.EmployeeID {
		return Report{}, ErrSelfColleague
	}
	if _, err := s.people.ManagerIDByEmployeeID(ctx, user.TenantID, in.ColleagueID); err != nil {
		return Report{}, err
	}
	if in.LeaveRequestID != "" {
		if err := s.checkLeaveRequest(ctx, user, in.LeaveRequestID); err != nil {
			return Report{}, err
		}
	}
	managerID, err := s.people.ManagerIDByEmployeeID(ctx, user.TenantID, user.EmployeeID)
	if err != nil {
		return Report{}, err
	}
	var skip []string
	if managerID == "" {
		skip = append(skip, auth.RoleTeamLead)
	}
	d := workflow.HandoverChain.Start(user.RoleName, skip...)

	r := Report{
		EmployeeID:       user.EmployeeID,
		ManagerID:        managerID,
		ColleagueID:      in.ColleagueID,
		LeaveRequestID:   in.LeaveRequestID,
		Summary:          strings.TrimSpace(in.Summary),
		Responsibilities: in.Responsibilities,
		Status:           d.To,
	}
	if att != nil {
		file, err := s.files.Save(ctx, "handover", att.Name, att.Data, storage.MimePDF)
		if err != nil {
			return Report{}, err
		}
		r.FileKey, r.FileName, r.FileSize = file.Key, file.Name, file.Size
	}

	step := workflow.NewStep(workflow.EntityHandover, "", workflow.ActionSubmit, workflow.ActorFrom(user), d)
	id, err := s.store.Create(ctx, user.TenantID, r, step)
	if err != nil {
		if r.FileKey != "" {
			if delErr := s.files.Delete(r.FileKey); delErr != nil {
				slog.Warn("handover attachment cleanup failed", "key", r.FileKey, "err", delErr)
			}
		}
		return Report{}, err
	}
	r.ID = id

	workflow.Announce(ctx, s.people, s.notify, user.TenantID, d, r.EmployeeID, user.UserID, "Handover report")
	if s.notify != nil {
		if colleagueUser, err := s.people.EmployeeUserID(ctx, user.TenantID, r.ColleagueID); err == nil {
			s.notify.Broadcast(ctx, user.TenantID, []string{colleagueUser}, notifications.TypeHandoverAssigned, "A handover report names you as colleague", r.Summary)
		}
	}
	return r, nil
}

// checkLeaveRequest hides other people's leave requests behind not found.
func (s *Service) checkLeaveRequest(ctx context.Context, user auth.UserContext, requestID string) error {
	req, err := s.leaves.GetRequest(ctx, user.TenantID, requestID)
	if errors.Is(err, leave.ErrNotFound) {
		return ErrLeaveNotFound
	}
	if err != nil {
		return errors.Wrap(err, "lookup leave request")
	}
	if req.EmployeeID != user.EmployeeID {
		return ErrLeaveNotFound
	}
	return nil
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, reportID string) (Report, []workflow.Step, error) {
	r, err := s.store.Get(ctx, user.TenantID, reportID)
	if err != nil {
		return Report{}, nil, err
	}
	if !s.visible(user, r) {
		return Report{}, nil, ErrNotFound
	}
	steps, err := s.store.Steps(ctx, user.TenantID, reportID)
	if err != nil {
		return Report{}, nil, err
	}
	return r, steps, nil
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]Report, error) {
	return s.store.List(ctx, user.TenantID, auth.ScopeFor(user), filter)
}

func (s *Service) Queue(ctx context.Context, user auth.UserContext) ([]Report, error) {
	pending, err := s.store.Pending(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	actor := workflow.ActorFrom(user)
	out := make([]Report, 0, len(pending))
	for _, r := range pending {
		if workflow.HandoverChain.Actionable(r.Status, actor, subjectOf(r)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) Approve(ctx context.Context, user auth.UserContext, reportID string) (Report, error) {
	return s.decide(ctx, user, reportID, workflow.ActionApprove, func(r Report, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.HandoverChain.ApproveAs(r.Status, actor, subjectOf(r))
	})
}

func (s *Service) Reject(ctx context.Context, user auth.UserContext, reportID, note string) (Report, error) {
	return s.decide(ctx, user, reportID, workflow.ActionReject, func(r Report, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.HandoverChain.RejectAs(r.Status, actor, subjectOf(r), note)
	})
}

func (s *Service) Cancel(ctx context.Context, user auth.UserContext, reportID string) (Report, error) {
	return s.decide(ctx, user, reportID, workflow.ActionCancel, func(r Report, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.CancelAs(r.Status, actor, subjectOf(r))
	})
}

func (s *Service) decide(ctx context.Context, user auth.UserContext, reportID, action string, transition func(Report, workflow.Actor) (workflow.Decision, error)) (Report, error) {
	r, err := s.store.Get(ctx, user.TenantID, reportID)
	if err != nil {
		return Report{}, err
	}
	actor := workflow.ActorFrom(user)
	d, err := transition(r, actor)
	if err != nil {
		return Report{}, err
	}
	step := workflow.NewStep(workflow.EntityHandover, r.ID, action, actor, d)
	if err := s.store.Transition(ctx, user.TenantID, r, d, step); err != nil {
		return Report{}, err
	}
	r.Status = d.To
	if d.Note != "" {
		r.DecisionNote = d.Note
	}
	if action != workflow.ActionCancel {
		if ownerUser, err := s.people.EmployeeUserID(ctx, user.TenantID, r.EmployeeID); err == nil {
			workflow.Announce(ctx, s.people, s.notify, user.TenantID, d, r.EmployeeID, ownerUser, "Handover report")
		}
	}
	return r, nil
}

// Download opens the attachment for the owner, the colleague and reviewers.
func (s *Service) Download(ctx context.Context, user auth.UserContext, reportID string) (Report, io.ReadCloser, error) {
	r, err := s.store.Get(ctx, user.TenantID, reportID)
	if err != nil {
		return Report{}, nil, err
	}
	if !s.visible(user, r) {
		return Report{}, nil, ErrNotFound
	}
	if !r.HasFile() {
		return Report{}, nil, ErrNoFile
	}
	rc, err := s.files.Open(r.FileKey)
	if err != nil {
		return Report{}, nil, err
	}
	return r, rc, nil
}

func (s *Service) visible(user auth.UserContext, r Report) bool {
	if user.EmployeeID != "" && user.EmployeeID == r.ColleagueID {
		return true
	}
	if auth.ScopeFor(user).Allows(r.EmployeeID, r.ManagerID) {
		return true
	}
	return workflow.HandoverChain.CanAct(r.Status, user.RoleName)
}

func subjectOf(r Report) workflow.Subject {
	return workflow.Subject{OwnerEmployeeID: r.EmployeeID, ManagerEmployeeID: r.ManagerID}
}
