package leave

import (
	"context"
	"strings"

	"hris/internal/domain/auth"
	"hris/internal/domain/settings"
	"hris/internal/domain/workflow"
)

type SettingsSource interface {
	Get(ctx context.Context, tenantID string) (settings.Settings, error)
}

// People is the slice of the employee directory leave needs.
type People interface {
	workflow.Directory
	ManagerIDByEmployeeID(ctx context.Context, tenantID, employeeID string) (string, error)
	EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error)
}

type Service struct {
	store    StoreAPI
	people   People
	settings SettingsSource
	notify   workflow.Notifier
}

func NewService(store StoreAPI, people People, settings SettingsSource, notify workflow.Notifier) *Service {
	return &Service{store: store, people: people, settings: settings, notify: notify}
}

func (s *Service) ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	return s.store.ListTypes(ctx, tenantID)
}

func (s *Service) CreateType(ctx context.Context, tenantID string, payload LeaveType) (string, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Code = strings.ToUpper(strings.TrimSpace(payload.Code))
	return s.store.CreateType(ctx, tenantID, payload)
}

// Balances returns employeeID's balances, or the caller's own when blank.
func (s *Service) Balances(ctx context.Context, user auth.UserContext, employeeID string) ([]Balance, error) {
	if employeeID == "" {
		employeeID = user.EmployeeID
	}
	if employeeID == "" {
		return nil, ErrNoEmployee
	}
	if err := s.checkScope(ctx, user, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListBalances(ctx, user.TenantID, employeeID)
}

func (s *Service) SetEntitlement(ctx context.Context, tenantID, employeeID, leaveTypeID string, entitlement float64) error {
	if _, err := s.store.GetType(ctx, tenantID, leaveTypeID); err != nil {
		return err
	}
	return s.store.SetEntitlement(ctx, tenantID, employeeID, leaveTypeID, entitlement)
}

func (s *Service) Submit(ctx context.Context, user auth.UserContext, in SubmitInput) (Request, error) {
	if user.EmployeeID == "" {
		return Request{}, ErrNoEmployee
	}
	days, err := CalculateRequestDays(in.StartDate, in.EndDate, in.StartHalf, in.EndHalf)
	if err != nil {
		return Request{}, err
	}
	leaveType, err := s.store.GetType(ctx, user.TenantID, in.LeaveTypeID)
	if err != nil {
		return Request{}, err
	}
	existing, err := s.store.ActiveRequests(ctx, user.TenantID, user.EmployeeID, dateOnly(in.StartDate), dateOnly(in.EndDate))
	if err != nil {
		return Request{}, err
	}
	for _, other := range existing {
		if Overlaps(in.StartDate, in.EndDate, other.StartDate, other.EndDate) {
			return Request{}, ErrOverlap
		}
	}
	if leaveType.IsPaid {
		if err := s.checkAvailable(ctx, user, leaveType.ID, days); err != nil {
			return Request{}, err
		}
	}

	cfg, err := s.settings.Get(ctx, user.TenantID)
	if err != nil {
		return Request{}, err
	}
	managerID, err := s.people.ManagerIDByEmployeeID(ctx, user.TenantID, user.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	var skip []string
	if managerID == "" {
		skip = append(skip, auth.RoleTeamLead)
	}
	chain := ChainFor(days, cfg.LeaveMDThresholdDays)
	d := chain.Start(user.RoleName, skip...)

	req := Request{
		EmployeeID:    user.EmployeeID,
		ManagerID:     managerID,
		LeaveTypeID:   leaveType.ID,
		LeaveTypeName: leaveType.Name,
		IsPaid:        leaveType.IsPaid,
		StartDate:     dateOnly(in.StartDate),
		EndDate:       dateOnly(in.EndDate),
		StartHalf:     in.StartHalf,
		EndHalf:       in.EndHalf,
		Days:          days,
		Reason:        strings.TrimSpace(in.Reason),
		Chain:         chain,
		Status:        d.To,
	}
	step := workflow.NewStep(workflow.EntityLeave, "", workflow.ActionSubmit, workflow.ActorFrom(user), d)
	id, err := s.store.CreateRequest(ctx, user.TenantID, req, step)
	if err != nil {
		return Request{}, err
	}
	req.ID = id
	workflow.Announce(ctx, s.people, s.notify, user.TenantID, d, req.EmployeeID, user.UserID, "Leave request")
	return req, nil
}

func (s *Service) checkAvailable(ctx context.Context, user auth.UserContext, leaveTypeID string, days float64) error {
	balances, err := s.store.ListBalances(ctx, user.TenantID, user.EmployeeID)
	if err != nil {
		return err
	}
	for _, b := range balances {
		if b.LeaveTypeID == leaveTypeID {
			if b.Available() < days {
				return ErrInsufficientBalance
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, requestID string) (Request, []workflow.Step, error) {
	req, err := s.store.GetRequest(ctx, user.TenantID, requestID)
	if err != nil {
		return Request{}, nil, err
	}
	if !s.visible(user, req) {
		return Request{}, nil, ErrNotFound
	}
	steps, err := s.store.Steps(ctx, user.TenantID, requestID)
	if err != nil {
		return Request{}, nil, err
	}
	return req, steps, nil
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]Request, error) {
	return s.store.ListRequests(ctx, user.TenantID, auth.ScopeFor(user), filter)
}

// Queue returns the pending requests the caller may act on now.
func (s *Service) Queue(ctx context.Context, user auth.UserContext) ([]Request, error) {
	pending, err := s.store.PendingRequests(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	actor := workflow.ActorFrom(user)
	out := make([]Request, 0, len(pending))
	for _, req := range pending {
		if workflow.Chain(req.Chain).Actionable(req.Status, actor, subjectOf(req)) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *Service) Approve(ctx context.Context, user auth.UserContext, requestID string) (Request, error) {
	return s.decide(ctx, user, requestID, workflow.ActionApprove, func(req Request, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.Chain(req.Chain).ApproveAs(req.Status, actor, subjectOf(req))
	})
}

func (s *Service) Reject(ctx context.Context, user auth.UserContext, requestID, note string) (Request, error) {
	return s.decide(ctx, user, requestID, workflow.ActionReject, func(req Request, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.Chain(req.Chain).RejectAs(req.Status, actor, subjectOf(req), note)
	})
}

func (s *Service) Cancel(ctx context.Context, user auth.UserContext, requestID string) (Request, error) {
	return s.decide(ctx, user, requestID, workflow.ActionCancel, func(req Request, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.CancelAs(req.Status, actor, subjectOf(req))
	})
}

func (s *Service) decide(ctx context.Context, user auth.UserContext, requestID, action string, transition func(Request, workflow.Actor) (workflow.Decision, error)) (Request, error) {
	req, err := s.store.GetRequest(ctx, user.TenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	actor := workflow.ActorFrom(user)
	d, err := transition(req, actor)
	if err != nil {
		return Request{}, err
	}
	step := workflow.NewStep(workflow.EntityLeave, req.ID, action, actor, d)
	if err := s.store.Transition(ctx, user.TenantID, req, d, step); err != nil {
		return Request{}, err
	}
	req.Status = d.To
	if d.Note != "" {
		req.DecisionNote = d.Note
	}
	if action != workflow.ActionCancel {
		ownerUser, err := s.people.EmployeeUserID(ctx, user.TenantID, req.EmployeeID)
		if err == nil {
			workflow.Announce(ctx, s.people, s.notify, user.TenantID, d, req.EmployeeID, ownerUser, "Leave request")
		}
	}
	return req, nil
}

func (s *Service) visible(user auth.UserContext, req Request) bool {
	if auth.ScopeFor(user).Allows(req.EmployeeID, req.ManagerID) {
		return true
	}
	return workflow.Chain(req.Chain).CanAct(req.Status, user.RoleName)
}

func (s *Service) checkScope(ctx context.Context, user auth.UserContext, employeeID string) error {
	scope := auth.ScopeFor(user)
	if scope.All || employeeID == user.EmployeeID {
		return nil
	}
	managerID, err := s.people.ManagerIDByEmployeeID(ctx, user.TenantID, employeeID)
	if err != nil {
		return err
	}
	if !scope.Allows(employeeID, managerID) {
		return workflow.ErrForbidden
	}
	return nil
}

func subjectOf(req Request) workflow.Subject {
	return workflow.Subject{OwnerEmployeeID: req.EmployeeID, ManagerEmployeeID: req.ManagerID}
}
