package auth

import "strings"

const (
	RoleEmployee = "employee"
	RoleTeamLead = "teamlead"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
	RoleMD       = "md"
)

var Roles = []string{RoleEmployee, RoleTeamLead, RoleHR, RoleAdmin, RoleMD}

// UserContext is the authenticated principal carried on the request context.
type UserContext struct {
	UserID     string
	TenantID   string
	EmployeeID string
	RoleName   string
	SessionID  string
}

func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func ValidRole(role string) bool {
	normalized := NormalizeRole(role)
	for _, candidate := range Roles {
		if candidate == normalized {
			return true
		}
	}
	return false
}

// Rank orders roles along the review hierarchy. Admin sits with hr.
func Rank(role string) int {
	switch NormalizeRole(role) {
	case RoleTeamLead:
		return 1
	case RoleHR, RoleAdmin:
		return 2
	case RoleMD:
		return 3
	default:
		return 0
	}
}

// CanDelete reports whether the role is offered destructive record actions.
func CanDelete(role string) bool {
	switch NormalizeRole(role) {
	case RoleTeamLead, RoleHR:
		return true
	}
	return false
}

// SeesSensitive reports whether the role may read salary, bank and national id fields.
func SeesSensitive(role string) bool {
	switch NormalizeRole(role) {
	case RoleHR, RoleAdmin, RoleMD:
		return true
	}
	return false
}
