package workflow

import (
	"context"

	"hris/internal/domain/auth"
)

// Actor is the reviewer attempting a transition.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       string
}

func ActorFrom(user auth.UserContext) Actor {
	return Actor{UserID: user.UserID, EmployeeID: user.EmployeeID, Role: user.RoleName}
}

// Subject identifies whose record is being reviewed and their team lead.
type Subject struct {
	OwnerEmployeeID   string
	ManagerEmployeeID string
}

// Authorize applies the stage gate, then the reporting-line rules: nobody
// reviews their own record and a team lead only reviews direct reports.
func (c Chain) Authorize(status string, actor Actor, subject Subject) error {
	if _, err := c.gate(status, actor.Role); err != nil {
		return err
	}
	if actor.EmployeeID != "" && actor.EmployeeID == subject.OwnerEmployeeID {
		return ErrSelfReview
	}
	stage, _ := StageRole(status)
	if stage == auth.RoleTeamLead && auth.NormalizeRole(actor.Role) == auth.RoleTeamLead {
		if subject.ManagerEmployeeID == "" || subject.ManagerEmployeeID != actor.EmployeeID {
			return ErrForbidden
		}
	}
	return nil
}

func (c Chain) ApproveAs(status string, actor Actor, subject Subject) (Decision, error) {
	if err := c.Authorize(status, actor, subject); err != nil {
		return Decision{}, err
	}
	return c.Approve(status, actor.Role)
}

func (c Chain) RejectAs(status string, actor Actor, subject Subject, note string) (Decision, error) {
	if err := c.Authorize(status, actor, subject); err != nil {
		return Decision{}, err
	}
	return c.Reject(status, actor.Role, note)
}

// CancelAs lets only the owner withdraw their record.
func CancelAs(status string, actor Actor, subject Subject) (Decision, error) {
	if actor.EmployeeID == "" || actor.EmployeeID != subject.OwnerEmployeeID {
		return Decision{}, ErrNotOwner
	}
	return Cancel(status)
}

// Directory resolves the users who should hear about a stage change.
type Directory interface {
	UserIDsByRole(ctx context.Context, tenantID, role string) ([]string, error)
	ManagerUserID(ctx context.Context, tenantID, employeeID string) (string, error)
}

// Reviewers returns the user ids that must act on a record in status.
func Reviewers(ctx context.Context, dir Directory, tenantID, status, ownerEmployeeID string) ([]string, error) {
	stage, ok := StageRole(status)
	if !ok || dir == nil {
		return nil, nil
	}
	if stage == auth.RoleTeamLead {
		id, err := dir.ManagerUserID(ctx, tenantID, ownerEmployeeID)
		if err != nil || id == "" {
			return nil, err
		}
		return []string{id}, nil
	}
	return dir.UserIDsByRole(ctx, tenantID, stage)
}
