// Package authz centralizes the role gating applied by every screen.
//
// The checks here only shape what the operator is offered. The API
// enforces its own rules and remains the authority; a request that passes
// Allowed can still be refused server-side.
package authz

import (
	"assignboard/internal/models"
)

// Action is something an identity may attempt against assignments.
type Action string

const (
	ReadAssignment   Action = "assignment:read"
	CreateAssignment Action = "assignment:create"
	UpdateAssignment Action = "assignment:update"
	DeleteAssignment Action = "assignment:delete"
	// ManageAssignments gates the combined create/edit/delete screen.
	ManageAssignments Action = "assignment:manage"
)

// Authors is the set of roles that may write assignments.
var Authors = map[models.Role]struct{}{
	models.RoleTeamManager: {},
	models.RoleOrgAdmin:    {},
	models.RoleSuperAdmin:  {},
}

// IsAuthor reports whether role may create, edit and delete assignments.
func IsAuthor(role models.Role) bool {
	_, ok := Authors[role]
	return ok
}

// Allowed reports whether role may perform action on an assignment of the
// given scope. Reads by employees are only allowed for general assignments
// here; individual ones depend on membership and go through VisibleTo.
func Allowed(role models.Role, action Action, scope models.Scope) bool {
	if !role.Valid() {
		return false
	}
	switch action {
	case ReadAssignment:
		if IsAuthor(role) {
			return true
		}
		return scope == models.ScopeGeneral
	case CreateAssignment, UpdateAssignment, DeleteAssignment, ManageAssignments:
		return IsAuthor(role)
	}
	return false
}

// VisibleTo reports whether the identity may read a.
func VisibleTo(id models.Identity, a models.Assignment) bool {
	if IsAuthor(id.Role) {
		return true
	}
	if id.Role != models.RoleEmployee {
		return false
	}
	return a.General || a.AssignedTo(id.ID)
}

// FilterVisible keeps the assignments the identity may read, preserving order.
func FilterVisible(id models.Identity, all []models.Assignment) []models.Assignment {
	visible := make([]models.Assignment, 0, len(all))
	for _, a := range all {
		if VisibleTo(id, a) {
			visible = append(visible, a)
		}
	}
	return visible
}

// CanTargetTeam reports whether the identity may publish a team-scoped
// assignment to team. Team managers are limited to the teams they manage.
func CanTargetTeam(id models.Identity, team models.Team) bool {
	if !Allowed(id.Role, CreateAssignment, models.ScopeTeam) {
		return false
	}
	if id.Role == models.RoleTeamManager {
		return team.ManagerID == id.ID
	}
	return true
}

// LandingPath returns where an identity goes right after login or signup.
func LandingPath(role models.Role) string {
	switch role {
	case models.RoleSuperAdmin:
		return "/super/dashboard"
	case models.RoleOrgAdmin:
		return "/org/dashboard"
	case models.RoleTeamManager:
		return "/manager/dashboard"
	}
	return "/assignments"
}
