package controller

import (
	"context"
	"log/slog"
	"strings"

	"assignboard/internal/authz"
	"assignboard/internal/models"
)

const (
	msgManageDenied  = "Unauthorized: Employees cannot manage assignments."
	msgBothTargets   = "An assignment can target a team or employees, not both"
	msgInvalidTeamID = "Team ID must be a positive number"
	msgSaved         = "Assignment saved."
	msgDeleted       = "Assignment deleted."
)

// ManageAssignments is the combined create, edit and delete screen.
type ManageAssignments struct {
	View
	Assignments []models.Assignment
	// Teams backs the team ownership check on new assignments.
	Teams []models.Team
	// Form holds the values shown in the editor.
	Form ManageForm
	// Succeeded reports whether Notice describes a completed action.
	Succeeded bool

	deps Deps
}

// NewManageAssignments builds the manage screen.
func NewManageAssignments(deps Deps) *ManageAssignments {
	return &ManageAssignments{deps: deps}
}

// Load fetches every assignment the API lets the operator see, and the
// teams new assignments may target.
func (c *ManageAssignments) Load(ctx context.Context) {
	if !c.snapshot(c.deps.Sessions) {
		return
	}
	if !authz.Allowed(c.Identity.Role, authz.ManageAssignments, models.ScopeGeneral) {
		c.deny(msgManageDenied)
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
	teams, err := c.deps.API.ListTeams(ctx)
	if err != nil {
		c.fail(c.deps.logger(), err, "Error fetching teams")
		return
	}
	c.Assignments = all
	c.Teams = teams
	c.State = StateReady
}

// Edit prefills the form from a loaded assignment. It reports false when
// id is not on the screen.
func (c *ManageAssignments) Edit(id int64) bool {
	if !c.Ready() {
		return false
	}
	for _, a := range c.Assignments {
		if a.ID != id {
			continue
		}
		c.Form = ManageForm{
			EditingID:   a.ID,
			Title:       a.Title,
			Description: a.Description,
			DueDate:     a.DueText(),
			EmployeeIDs: joinIDs(a.EmployeeIDs),
		}
		if a.TeamID != nil {
			c.Form.TeamID = joinIDs([]int64{*a.TeamID})
		}
		return true
	}
	return false
}

// Save creates a new assignment, or updates form.EditingID when set. On
// success the list is reloaded and the form cleared.
func (c *ManageAssignments) Save(ctx context.Context, form ManageForm) {
	if !c.Ready() {
		return
	}
	c.Form = form
	c.Notice = ""
	c.Succeeded = false

	in, msg := buildManageInput(form)
	if msg == "" && form.EditingID == 0 && in.TeamID != nil {
		_, msg = checkTeamTarget(*c.Identity, c.Teams, *in.TeamID)
	}
	if msg != "" {
		c.Notice = msg
		return
	}

	var err error
	if form.EditingID > 0 {
		_, err = c.deps.API.UpdateAssignment(ctx, form.EditingID, in)
	} else {
		_, err = c.deps.API.CreateAssignment(ctx, in)
	}
	if err != nil {
		c.Notice = actionMessage(err, "Failed to save assignment")
		c.deps.logger().Warn("save assignment failed", slog.String("error", err.Error()))
		return
	}

	c.Form = ManageForm{}
	c.Load(ctx)
	if c.Ready() {
		c.Notice = msgSaved
		c.Succeeded = true
	}
}

// Delete removes assignment id and reloads the list.
func (c *ManageAssignments) Delete(ctx context.Context, id int64) {
	if !c.Ready() {
		return
	}
	c.Notice = ""
	c.Succeeded = false
	if err := c.deps.API.DeleteAssignment(ctx, id); err != nil {
		c.Notice = actionMessage(err, "Failed to delete assignment")
		c.deps.logger().Warn("delete assignment failed", slog.Int64("id", id), slog.String("error", err.Error()))
		return
	}
	c.Load(ctx)
	if c.Ready() {
		c.Notice = msgDeleted
		c.Succeeded = true
	}
}

func buildManageInput(form ManageForm) (models.AssignmentInput, string) {
	if strings.TrimSpace(form.Title) == "" {
		return models.AssignmentInput{}, msgTitleRequired
	}
	due, err := models.ParseDueDate(form.DueDate)
	if err != nil {
		return models.AssignmentInput{}, msgInvalidDueDate
	}
	teamID, err := parseOptionalID(form.TeamID)
	if err != nil {
		return models.AssignmentInput{}, msgInvalidTeamID
	}
	employees := parseIDList(form.EmployeeIDs)

	in := models.AssignmentInput{
		Title:       form.Title,
		Description: form.Description,
		DueDate:     due,
		Scope:       models.ScopeGeneral,
	}
	switch {
	case teamID != nil && len(employees) > 0:
		return models.AssignmentInput{}, msgBothTargets
	case teamID != nil:
		in.Scope = models.ScopeTeam
		in.TeamID = teamID
	case len(employees) > 0:
		in.Scope = models.ScopeIndividual
		in.EmployeeIDs = employees
	}
	if err := in.Validate(); err != nil {
		return models.AssignmentInput{}, err.Error()
	}
	return in, ""
}
