package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"assignboard/internal/models"
)

func int64p(v int64) *int64 { return &v }

func TestAllowed(t *testing.T) {
	var tts = []struct {
		Role   models.Role
		Action Action
		Scope  models.Scope
		Want   bool
	}{
		{models.RoleEmployee, ReadAssignment, models.ScopeGeneral, true},
		{models.RoleEmployee, ReadAssignment, models.ScopeTeam, false},
		{models.RoleEmployee, ReadAssignment, models.ScopeIndividual, false},
		{models.RoleEmployee, CreateAssignment, models.ScopeGeneral, false},
		{models.RoleEmployee, ManageAssignments, models.ScopeGeneral, false},
		{models.RoleTeamManager, CreateAssignment, models.ScopeTeam, true},
		{models.RoleTeamManager, DeleteAssignment, models.ScopeIndividual, true},
		{models.RoleOrgAdmin, UpdateAssignment, models.ScopeGeneral, true},
		{models.RoleSuperAdmin, ManageAssignments, models.ScopeGeneral, true},
		{models.RoleSuperAdmin, ReadAssignment, models.ScopeIndividual, true},
		{"visitor", ReadAssignment, models.ScopeGeneral, false},
		{models.RoleOrgAdmin, "assignment:archive", models.ScopeGeneral, false},
	}

	for _, tt := range tts {
		got := Allowed(tt.Role, tt.Action, tt.Scope)
		assert.Equal(t, tt.Want, got, "%s %s %s", tt.Role, tt.Action, tt.Scope)
	}
}

func TestFilterVisibleForEmployee(t *testing.T) {
	employee := models.Identity{ID: 5, Email: "e@example.com", Role: models.RoleEmployee}
	all := []models.Assignment{
		{ID: 1, Title: "All hands", General: true},
		{ID: 2, Title: "Mine", EmployeeIDs: []int64{3, 5}},
		{ID: 3, Title: "Not mine", EmployeeIDs: []int64{4}},
		{ID: 4, Title: "Team", TeamID: int64p(2)},
	}

	visible := FilterVisible(employee, all)

	ids := make([]int64, 0, len(visible))
	for _, a := range visible {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestFilterVisibleForAuthors(t *testing.T) {
	all := []models.Assignment{
		{ID: 1, General: true},
		{ID: 2, EmployeeIDs: []int64{4}},
	}
	for _, role := range []models.Role{models.RoleTeamManager, models.RoleOrgAdmin, models.RoleSuperAdmin} {
		visible := FilterVisible(models.Identity{ID: 9, Email: "m@example.com", Role: role}, all)
		assert.Len(t, visible, 2, role)
	}
}

func TestCanTargetTeam(t *testing.T) {
	team := models.Team{ID: 3, Name: "Ops", ManagerID: 7}

	assert.True(t, CanTargetTeam(models.Identity{ID: 7, Role: models.RoleTeamManager}, team))
	assert.False(t, CanTargetTeam(models.Identity{ID: 8, Role: models.RoleTeamManager}, team))
	assert.True(t, CanTargetTeam(models.Identity{ID: 8, Role: models.RoleOrgAdmin}, team))
	assert.False(t, CanTargetTeam(models.Identity{ID: 7, Role: models.RoleEmployee}, team))
}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, "/super/dashboard", LandingPath(models.RoleSuperAdmin))
	assert.Equal(t, "/org/dashboard", LandingPath(models.RoleOrgAdmin))
	assert.Equal(t, "/manager/dashboard", LandingPath(models.RoleTeamManager))
	assert.Equal(t, "/assignments", LandingPath(models.RoleEmployee))
}
