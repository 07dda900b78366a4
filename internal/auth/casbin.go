package auth

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

//go:embed model.conf
var casbinModelContent string

// RolePolicy answers role-wide authorization questions with an in-memory Casbin enforcer.
// Per-canvas ownership and shares are evaluated by Evaluator, not stored as policies.
type RolePolicy struct {
	enforcer casbin.IEnforcer
}

// NewRolePolicy builds the enforcer from the embedded model and the given grants.
func NewRolePolicy(grants []RoleGrant) (*RolePolicy, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	for _, g := range grants {
		if _, err := enforcer.AddPolicy(string(g.Role), g.Object, g.Action); err != nil {
			return nil, fmt.Errorf("add policy %s %s %s: %w", g.Role, g.Object, g.Action, err)
		}
	}

	return &RolePolicy{enforcer: enforcer}, nil
}

// NewDefaultRolePolicy builds a RolePolicy with DefaultRoleGrants.
func NewDefaultRolePolicy() (*RolePolicy, error) {
	return NewRolePolicy(DefaultRoleGrants)
}

// Allows reports whether role may perform action on object. Enforcer errors deny.
func (p *RolePolicy) Allows(role models.Role, object, action string) bool {
	if p == nil || p.enforcer == nil {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), object, action)
	if err != nil {
		return false
	}
	return ok
}
