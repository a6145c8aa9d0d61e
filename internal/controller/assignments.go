package controller

import (
	"context"

	"assignboard/internal/authz"
	"assignboard/internal/models"
)

// AssignmentList is the screen listing the assignments visible to the
// operator.
type AssignmentList struct {
	View
	Assignments []models.Assignment
	// CanManage offers the link to the manage screen.
	CanManage bool

	deps Deps
}

// NewAssignmentList builds the list screen.
func NewAssignmentList(deps Deps) *AssignmentList {
	return &AssignmentList{deps: deps}
}

// Load fetches the assignments. Employees only keep general assignments
// and the ones naming them.
func (c *AssignmentList) Load(ctx context.Context) {
	if !c.snapshot(c.deps.Sessions) {
		return
	}
	c.State = StateLoading
	c.Error = ""

	all, err := c.deps.API.ListAssignments(ctx)
	if err != nil {
		c.Assignments = nil
		c.fail(c.deps.logger(), err, "Error fetching assignments")
		return
	}
	c.Assignments = authz.FilterVisible(*c.Identity, all)
	c.CanManage = authz.Allowed(c.Identity.Role, authz.ManageAssignments, models.ScopeGeneral)
	c.State = StateReady
}

// AssignmentDetail is the screen showing one assignment.
type AssignmentDetail struct {
	View
	ID         int64
	Assignment *models.Assignment

	deps Deps
}

// NewAssignmentDetail builds the detail screen for assignment id.
func NewAssignmentDetail(deps Deps, id int64) *AssignmentDetail {
	return &AssignmentDetail{deps: deps, ID: id}
}

// Load fetches the assignment. A missing record leaves the screen ready
// with a nil Assignment.
func (c *AssignmentDetail) Load(ctx context.Context) {
	if !c.snapshot(c.deps.Sessions) {
		return
	}
	c.State = StateLoading
	c.Error = ""

	a, err := c.deps.API.GetAssignment(ctx, c.ID)
	if err != nil {
		c.fail(c.deps.logger(), err, "Error fetching assignment")
		return
	}
	if a != nil && !authz.VisibleTo(*c.Identity, *a) {
		c.deny("Unauthorized: Cannot access this assignment")
		return
	}
	c.Assignment = a
	c.State = StateReady
}
