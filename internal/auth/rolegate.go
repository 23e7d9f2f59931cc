package auth

import (
	"github.com/iliyamo/contacts-api/internal/apperr"
	"github.com/iliyamo/contacts-api/internal/model"
)

// RoleGate admits users holding exactly Role. It runs after the user has
// been resolved, so a rejection is always 403 and never 401.
type RoleGate struct {
	Role model.Role
}

// AdminGate admits administrators only.
var AdminGate = RoleGate{Role: model.RoleAdmin}

// Check returns u unchanged when it holds the gate's role.
func (g RoleGate) Check(u model.User) (model.User, error) {
	if u.Role != g.Role {
		return model.User{}, apperr.Forbidden("not enough permissions")
	}
	return u, nil
}

func (g RoleGate) String() string { return "role=" + string(g.Role) }

// RequireRole is shorthand for RoleGate{Role: role}.Check(u).
func RequireRole(u model.User, role model.Role) (model.User, error) {
	return RoleGate{Role: role}.Check(u)
}

// RequireAdmin is shorthand for AdminGate.Check(u).
func RequireAdmin(u model.User) (model.User, error) {
	return AdminGate.Check(u)
}
