package appraisal

import (
	"context"
	"log/slog"
	"strings"

	"hris/internal/domain/auth"
	"hris/internal/domain/notifications"
	"hris/internal/domain/workflow"
)

type People interface {
	workflow.Directory
	ManagerIDByEmployeeID(ctx context.Context, tenantID, employeeID string) (string, error)
	EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error)
}

type Service struct {
	store  StoreAPI
	people People
	notify workflow.Notifier
}

func NewService(store StoreAPI, people People, notify workflow.Notifier) *Service {
	return &Service{store: store, people: people, notify: notify}
}

// Create opens a draft appraisal for an employee. HR only.
func (s *Service) Create(ctx context.Context, user auth.UserContext, in CreateInput) (Appraisal, error) {
	in.Period = strings.TrimSpace(in.Period)
	if in.Period == "" {
		return Appraisal{}, ErrInvalidPeriod
	}
	if err := ValidateObjectives(in.Objectives); err != nil {
		return Appraisal{}, err
	}
	if _, err := s.people.ManagerIDByEmployeeID(ctx, user.TenantID, in.EmployeeID); err != nil {
		return Appraisal{}, err
	}
	a := Appraisal{EmployeeID: in.EmployeeID, Period: in.Period, Status: workflow.StatusDraft}
	for _, o := range in.Objectives {
		a.Objectives = append(a.Objectives, Objective{Title: strings.TrimSpace(o.Title), Weight: o.Weight})
	}
	id, err := s.store.Create(ctx, user.TenantID, user.UserID, a)
	if err != nil {
		return Appraisal{}, err
	}
	s.tellOwner(ctx, user.TenantID, a.EmployeeID, notifications.TypeAppraisalAssigned, "Appraisal "+a.Period+" is ready for your self assessment", "")
	return s.store.Get(ctx, user.TenantID, id)
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, appraisalID string) (Appraisal, []workflow.Step, error) {
	a, err := s.store.Get(ctx, user.TenantID, appraisalID)
	if err != nil {
		return Appraisal{}, nil, err
	}
	if !visible(user, a) {
		return Appraisal{}, nil, ErrNotFound
	}
	steps, err := s.store.Steps(ctx, user.TenantID, appraisalID)
	if err != nil {
		return Appraisal{}, nil, err
	}
	return a, steps, nil
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]Appraisal, error) {
	return s.store.List(ctx, user.TenantID, auth.ScopeFor(user), filter)
}

func (s *Service) Queue(ctx context.Context, user auth.UserContext) ([]Appraisal, error) {
	pending, err := s.store.Pending(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	actor := workflow.ActorFrom(user)
	out := make([]Appraisal, 0, len(pending))
	for _, a := range pending {
		if workflow.AppraisalChain.Actionable(a.Status, actor, subjectOf(a)) {
			out = append(out, a)
		}
	}
	return out, nil
}

// SelfAssess records the employee's own scores while the appraisal is a draft.
func (s *Service) SelfAssess(ctx context.Context, user auth.UserContext, appraisalID string, in Assessment) (Appraisal, error) {
	a, err := s.owned(ctx, user, appraisalID)
	if err != nil {
		return Appraisal{}, err
	}
	if err := a.apply(in, false); err != nil {
		return Appraisal{}, err
	}
	if err := s.store.SaveAssessment(ctx, user.TenantID, a); err != nil {
		return Appraisal{}, err
	}
	return a, nil
}

func (s *Service) Submit(ctx context.Context, user auth.UserContext, appraisalID string) (Appraisal, error) {
	a, err := s.owned(ctx, user, appraisalID)
	if err != nil {
		return Appraisal{}, err
	}
	if !a.selfScored() {
		return Appraisal{}, ErrScoresMissing
	}
	var skip []string
	if a.ManagerID == "" {
		skip = append(skip, auth.RoleTeamLead)
	}
	d := workflow.AppraisalChain.Start(user.RoleName, skip...)
	return s.apply(ctx, user, a, workflow.ActionSubmit, d)
}

func (s *Service) owned(ctx context.Context, user auth.UserContext, appraisalID string) (Appraisal, error) {
	a, err := s.store.Get(ctx, user.TenantID, appraisalID)
	if err != nil {
		return Appraisal{}, err
	}
	if user.EmployeeID == "" || a.EmployeeID != user.EmployeeID {
		return Appraisal{}, workflow.ErrNotOwner
	}
	if a.Status != workflow.StatusDraft {
		return Appraisal{}, ErrNotEditable
	}
	return a, nil
}

// LeadAssess records the team lead's scores while the appraisal waits on them.
func (s *Service) LeadAssess(ctx context.Context, user auth.UserContext, appraisalID string, in Assessment) (Appraisal, error) {
	a, err := s.store.Get(ctx, user.TenantID, appraisalID)
	if err != nil {
		return Appraisal{}, err
	}
	if a.Status != workflow.StatusPendingTeamLead {
		return Appraisal{}, ErrNotEditable
	}
	if err := workflow.AppraisalChain.Authorize(a.Status, workflow.ActorFrom(user), subjectOf(a)); err != nil {
		return Appraisal{}, err
	}
	if err := a.apply(in, true); err != nil {
		return Appraisal{}, err
	}
	if err := s.store.SaveAssessment(ctx, user.TenantID, a); err != nil {
		return Appraisal{}, err
	}
	return a, nil
}

func (s *Service) Approve(ctx context.Context, user auth.UserContext, appraisalID string) (Appraisal, error) {
	a, err := s.store.Get(ctx, user.TenantID, appraisalID)
	if err != nil {
		return Appraisal{}, err
	}
	d, err := workflow.AppraisalChain.ApproveAs(a.Status, workflow.ActorFrom(user), subjectOf(a))
	if err != nil {
		return Appraisal{}, err
	}
	return s.apply(ctx, user, a, workflow.ActionApprove, d)
}

func (s *Service) Reject(ctx context.Context, user auth.UserContext, appraisalID, note string) (Appraisal, error) {
	a, err := s.store.Get(ctx, user.TenantID, appraisalID)
	if err != nil {
		return Appraisal{}, err
	}
	d, err := workflow.AppraisalChain.RejectAs(a.Status, workflow.ActorFrom(user), subjectOf(a), note)
	if err != nil {
		return Appraisal{}, err
	}
	return s.apply(ctx, user, a, workflow.ActionReject, d)
}

// Reopen returns a rejected appraisal to draft. HR only.
func (s *Service) Reopen(ctx context.Context, user auth.UserContext, appraisalID string) (Appraisal, error) {
	switch auth.NormalizeRole(user.RoleName) {
	case auth.RoleHR, auth.RoleAdmin:
	default:
		return Appraisal{}, workflow.ErrForbidden
	}
	a, err := s.store.Get(ctx, user.TenantID, appraisalID)
	if err != nil {
		return Appraisal{}, err
	}
	d, err := workflow.Reopen(a.Status)
	if err != nil {
		return Appraisal{}, err
	}
	a, err = s.apply(ctx, user, a, workflow.ActionReopen, d)
	if err != nil {
		return Appraisal{}, err
	}
	s.tellOwner(ctx, user.TenantID, a.EmployeeID, notifications.TypeAppraisalAssigned, "Appraisal "+a.Period+" reopened", a.DecisionNote)
	return a, nil
}

func (s *Service) apply(ctx context.Context, user auth.UserContext, a Appraisal, action string, d workflow.Decision) (Appraisal, error) {
	if score, ok := a.Score(); ok {
		a.FinalScore = &score
	}
	step := workflow.NewStep(workflow.EntityAppraisal, a.ID, action, workflow.ActorFrom(user), d)
	if err := s.store.Transition(ctx, user.TenantID, a, d, step); err != nil {
		return Appraisal{}, err
	}
	a.Status = d.To
	if d.Note != "" {
		a.DecisionNote = d.Note
	}
	ownerUser := ""
	if s.people != nil {
		ownerUser, _ = s.people.EmployeeUserID(ctx, user.TenantID, a.EmployeeID)
	}
	workflow.Announce(ctx, s.people, s.notify, user.TenantID, d, a.EmployeeID, ownerUser, "Appraisal "+a.Period)
	return a, nil
}

func (s *Service) tellOwner(ctx context.Context, tenantID, employeeID, ntype, title, body string) {
	if s.notify == nil {
		return
	}
	userID, err := s.people.EmployeeUserID(ctx, tenantID, employeeID)
	if err != nil || userID == "" {
		slog.Warn("appraisal owner lookup failed", "employee_id", employeeID, "err", err)
		return
	}
	s.notify.Broadcast(ctx, tenantID, []string{userID}, ntype, title, body)
}

func visible(user auth.UserContext, a Appraisal) bool {
	return auth.ScopeFor(user).Allows(a.EmployeeID, a.ManagerID) ||
		workflow.AppraisalChain.CanAct(a.Status, user.RoleName)
}

func subjectOf(a Appraisal) workflow.Subject {
	return workflow.Subject{OwnerEmployeeID: a.EmployeeID, ManagerEmployeeID: a.ManagerID}
}
