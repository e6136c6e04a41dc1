package loan

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"hris/internal/domain/auth"
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

func (s *Service) Submit(ctx context.Context, user auth.UserContext, in SubmitInput) (Request, error) {
	if user.EmployeeID == "" {
		return Request{}, ErrNoEmployee
	}
	schedule, err := Schedule(in.Amount, in.Installments)
	if err != nil {
		return Request{}, err
	}
	managerID, err := s.people.ManagerIDByEmployeeID(ctx, user.TenantID, user.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	d := workflow.LoanChain.Start(user.RoleName)
	r := Request{
		EmployeeID:         user.EmployeeID,
		ManagerID:          managerID,
		Amount:             in.Amount,
		Purpose:            strings.TrimSpace(in.Purpose),
		Installments:       in.Installments,
		MonthlyInstallment: schedule[0].Amount,
		Outstanding:        in.Amount,
		Status:             d.To,
	}
	step := workflow.NewStep(workflow.EntityLoan, "", workflow.ActionSubmit, workflow.ActorFrom(user), d)
	id, err := s.store.Create(ctx, user.TenantID, r, step)
	if err != nil {
		return Request{}, err
	}
	r.ID = id
	workflow.Announce(ctx, s.people, s.notify, user.TenantID, d, r.EmployeeID, user.UserID, "Loan request")
	return r, nil
}

// Get returns the loan with its repayment schedule and decision history.
func (s *Service) Get(ctx context.Context, user auth.UserContext, loanID string) (Request, []Installment, []workflow.Step, error) {
	r, err := s.store.Get(ctx, user.TenantID, loanID)
	if err != nil {
		return Request{}, nil, nil, err
	}
	if !visible(user, r) {
		return Request{}, nil, nil, ErrNotFound
	}
	schedule, err := Schedule(r.Amount, r.Installments)
	if err != nil {
		return Request{}, nil, nil, err
	}
	steps, err := s.store.Steps(ctx, user.TenantID, loanID)
	if err != nil {
		return Request{}, nil, nil, err
	}
	return r, schedule, steps, nil
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]Request, error) {
	return s.store.List(ctx, user.TenantID, auth.ScopeFor(user), filter)
}

func (s *Service) Queue(ctx context.Context, user auth.UserContext) ([]Request, error) {
	pending, err := s.store.Pending(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	actor := workflow.ActorFrom(user)
	out := make([]Request, 0, len(pending))
	for _, r := range pending {
		if workflow.LoanChain.Actionable(r.Status, actor, subjectOf(r)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) Approve(ctx context.Context, user auth.UserContext, loanID string) (Request, error) {
	return s.decide(ctx, user, loanID, workflow.ActionApprove, func(r Request, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.LoanChain.ApproveAs(r.Status, actor, subjectOf(r))
	})
}

func (s *Service) Reject(ctx context.Context, user auth.UserContext, loanID, note string) (Request, error) {
	return s.decide(ctx, user, loanID, workflow.ActionReject, func(r Request, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.LoanChain.RejectAs(r.Status, actor, subjectOf(r), note)
	})
}

func (s *Service) Cancel(ctx context.Context, user auth.UserContext, loanID string) (Request, error) {
	return s.decide(ctx, user, loanID, workflow.ActionCancel, func(r Request, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.CancelAs(r.Status, actor, subjectOf(r))
	})
}

func (s *Service) decide(ctx context.Context, user auth.UserContext, loanID, action string, transition func(Request, workflow.Actor) (workflow.Decision, error)) (Request, error) {
	r, err := s.store.Get(ctx, user.TenantID, loanID)
	if err != nil {
		return Request{}, err
	}
	actor := workflow.ActorFrom(user)
	d, err := transition(r, actor)
	if err != nil {
		return Request{}, err
	}
	step := workflow.NewStep(workflow.EntityLoan, r.ID, action, actor, d)
	if err := s.store.Transition(ctx, user.TenantID, r, d, step); err != nil {
		return Request{}, err
	}
	r.Status = d.To
	if d.Note != "" {
		r.DecisionNote = d.Note
	}
	if action != workflow.ActionCancel {
		ownerUser, _ := s.people.EmployeeUserID(ctx, user.TenantID, r.EmployeeID)
		workflow.Announce(ctx, s.people, s.notify, user.TenantID, d, r.EmployeeID, ownerUser, "Loan request")
	}
	return r, nil
}

// Deductions lists what payroll should withhold from the employee this period.
func (s *Service) Deductions(ctx context.Context, tenantID, employeeID string) ([]Deduction, error) {
	loans, err := s.store.ActiveLoans(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	var out []Deduction
	for _, l := range loans {
		if due := Due(l); due.IsPositive() {
			out = append(out, Deduction{LoanID: l.ID, Amount: due})
		}
	}
	return out, nil
}

// Total sums deduction amounts.
func Total(deductions []Deduction) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range deductions {
		sum = sum.Add(d.Amount)
	}
	return sum
}

func visible(user auth.UserContext, r Request) bool {
	return auth.ScopeFor(user).Allows(r.EmployeeID, r.ManagerID) ||
		workflow.LoanChain.CanAct(r.Status, user.RoleName)
}

func subjectOf(r Request) workflow.Subject {
	return workflow.Subject{OwnerEmployeeID: r.EmployeeID, ManagerEmployeeID: r.ManagerID}
}
