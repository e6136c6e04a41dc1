// Package workflow implements the sequential review chain shared by leave,
// handover, appraisal and loan requests.
//
// A record moves through one pending status per reviewer role in its Chain
// and ends in approved, rejected or cancelled. Each stage may be acted on only
// by the role that owns it; admin may act on any stage.
package workflow

import (
	"strings"

	"hris/internal/domain/auth"
)

const (
	StatusDraft           = "draft"
	StatusPendingTeamLead = "pending_teamlead"
	StatusPendingHR       = "pending_hr"
	StatusPendingMD       = "pending_md"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusCancelled       = "cancelled"
)

const pendingPrefix = "pending_"

const (
	ActionSubmit  = "submit"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionCancel  = "cancel"
	ActionReopen  = "reopen"
)

// Chain is the ordered list of reviewer roles a record must pass.
type Chain []string

var (
	LeaveChain       = Chain{auth.RoleTeamLead, auth.RoleHR}
	LeaveChainWithMD = Chain{auth.RoleTeamLead, auth.RoleHR, auth.RoleMD}
	HandoverChain    = Chain{auth.RoleTeamLead, auth.RoleHR}
	AppraisalChain   = Chain{auth.RoleTeamLead, auth.RoleHR, auth.RoleMD}
	LoanChain        = Chain{auth.RoleHR, auth.RoleMD}
)

// Decision is the outcome of a transition.
type Decision struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Stage string `json:"stage,omitempty"`
	Final bool   `json:"final"`
	Note  string `json:"note,omitempty"`
}

func PendingStatus(role string) string {
	return pendingPrefix + auth.NormalizeRole(role)
}

// StageRole returns the reviewer role a pending status waits on.
func StageRole(status string) (string, bool) {
	if !strings.HasPrefix(status, pendingPrefix) {
		return "", false
	}
	role := strings.TrimPrefix(status, pendingPrefix)
	return role, role != ""
}

func IsPending(status string) bool {
	_, ok := StageRole(status)
	return ok
}

func IsTerminal(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (c Chain) index(role string) int {
	for i, candidate := range c {
		if candidate == role {
			return i
		}
	}
	return -1
}

// Start returns the first pending status for a submission, skipping stages
// ranked at or below the submitter and any role listed in skip.
func (c Chain) Start(submitterRole string, skip ...string) Decision {
	rank := auth.Rank(submitterRole)
	for _, role := range c {
		if auth.Rank(role) <= rank || contains(skip, role) {
			continue
		}
		return Decision{From: StatusDraft, To: PendingStatus(role), Stage: role}
	}
	return Decision{From: StatusDraft, To: StatusApproved, Final: true}
}

// CanAct reports whether role may approve or reject a record in status.
func (c Chain) CanAct(status, role string) bool {
	stage, ok := StageRole(status)
	if !ok || c.index(stage) < 0 {
		return false
	}
	role = auth.NormalizeRole(role)
	return role == stage || role == auth.RoleAdmin
}

func (c Chain) gate(status, actorRole string) (int, error) {
	stage, ok := StageRole(status)
	if !ok {
		return -1, ErrInvalidState
	}
	idx := c.index(stage)
	if idx < 0 {
		return -1, ErrInvalidState
	}
	if !c.CanAct(status, actorRole) {
		return -1, ErrForbidden
	}
	return idx, nil
}

func (c Chain) Approve(status, actorRole string) (Decision, error) {
	idx, err := c.gate(status, actorRole)
	if err != nil {
		return Decision{}, err
	}
	if idx == len(c)-1 {
		return Decision{From: status, To: StatusApproved, Final: true}, nil
	}
	next := c[idx+1]
	return Decision{From: status, To: PendingStatus(next), Stage: next}, nil
}

func (c Chain) Reject(status, actorRole, note string) (Decision, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return Decision{}, ErrNoteRequired
	}
	if _, err := c.gate(status, actorRole); err != nil {
		return Decision{}, err
	}
	return Decision{From: status, To: StatusRejected, Final: true, Note: note}, nil
}

// Cancel withdraws a draft or pending record. Only the owner may call it.
func Cancel(status string) (Decision, error) {
	if status != StatusDraft && !IsPending(status) {
		return Decision{}, ErrInvalidState
	}
	return Decision{From: status, To: StatusCancelled, Final: true}, nil
}

// Reopen sends a rejected record back to draft for rework.
func Reopen(status string) (Decision, error) {
	if status != StatusRejected {
		return Decision{}, ErrInvalidState
	}
	return Decision{From: status, To: StatusDraft}, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
