package auth

// Scope narrows list queries to the records a user may see: everything,
// their own plus their direct reports, or their own only.
type Scope struct {
	All         bool
	EmployeeID  string
	WithReports bool
}

func ScopeFor(user UserContext) Scope {
	switch NormalizeRole(user.RoleName) {
	case RoleHR, RoleAdmin, RoleMD:
		return Scope{All: true}
	case RoleTeamLead:
		return Scope{EmployeeID: user.EmployeeID, WithReports: true}
	default:
		return Scope{EmployeeID: user.EmployeeID}
	}
}

// Allows reports whether a record owned by ownerID, whose team lead is
// managerID, falls inside the scope.
func (s Scope) Allows(ownerID, managerID string) bool {
	if s.All {
		return true
	}
	if s.EmployeeID == "" {
		return false
	}
	return ownerID == s.EmployeeID || (s.WithReports && managerID == s.EmployeeID)
}
