package auth

import (
	"context"
	"sort"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/go-faster/errors"
)

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// Enforcer answers role/permission checks from the RolePermissions table.
type Enforcer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

func NewEnforcer(table map[string][]string) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, errors.Wrap(err, "authz: parse model")
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "authz: init enforcer")
	}
	var rules [][]string
	for role, perms := range table {
		for _, perm := range perms {
			rules = append(rules, []string{role, perm})
		}
	}
	if len(rules) > 0 {
		if _, err := enf.AddPolicies(rules); err != nil {
			return nil, errors.Wrap(err, "authz: load policies")
		}
	}
	return &Enforcer{enforcer: enf}, nil
}

func (e *Enforcer) HasPermission(_ context.Context, role, permission string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ok, err := e.enforcer.Enforce(NormalizeRole(role), permission)
	if err != nil {
		return false, errors.Wrap(err, "authz: enforce")
	}
	return ok, nil
}

// Permissions lists the known permissions granted to role, sorted.
func (e *Enforcer) Permissions(role string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	normalized := NormalizeRole(role)
	out := make([]string, 0, len(DefaultPermissions))
	for _, perm := range DefaultPermissions {
		if ok, err := e.enforcer.Enforce(normalized, perm); err == nil && ok {
			out = append(out, perm)
		}
	}
	sort.Strings(out)
	return out
}
