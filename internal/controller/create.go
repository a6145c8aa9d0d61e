package controller

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"assignboard/internal/authz"
	"assignboard/internal/models"
)

// Messages shown by the create screen.
const (
	msgCreateDenied   = "Access denied: you don't have permission to create assignments."
	msgTitleRequired  = "Title is required"
	msgTeamNotFound   = "Team not found"
	msgNotYourTeam    = "You can only assign to teams you manage"
	msgSelectUser     = "Select at least one user"
	msgInvalidDueDate = "Due date must be a valid date (YYYY-MM-DD)"
	msgCreated        = "Assignment created successfully!"
)

// CreateAssignment is the screen for publishing a new assignment.
type CreateAssignment struct {
	View
	Teams []models.Team
	Users []models.User
	// Form echoes the last submission so the screen can redisplay it.
	Form CreateForm
	// Created is set once a submission succeeded.
	Created bool
	// Redirect is where the operator goes after a successful submission.
	Redirect string

	deps Deps
}

// NewCreateAssignment builds the create screen.
func NewCreateAssignment(deps Deps) *CreateAssignment {
	return &CreateAssignment{deps: deps, Form: CreateForm{Scope: string(models.ScopeGeneral)}}
}

// Load checks the operator's role and fetches the teams and users the
// form offers.
func (c *CreateAssignment) Load(ctx context.Context) {
	if !c.snapshot(c.deps.Sessions) {
		return
	}
	if !authz.Allowed(c.Identity.Role, authz.CreateAssignment, models.ScopeGeneral) {
		c.deny(msgCreateDenied)
		return
	}
	c.State = StateLoading
	c.Error = ""

	teams, err := c.deps.API.ListTeams(ctx)
	if err != nil {
		c.fail(c.deps.logger(), err, "Error fetching teams")
		return
	}
	users, err := c.deps.API.ListUsers(ctx)
	if err != nil {
		c.fail(c.deps.logger(), err, "Error fetching users")
		return
	}
	c.Teams = teams
	c.Users = users
	c.State = StateReady
}

// Submit checks form against the loaded teams and users and, when it is
// consistent, asks the API to create the assignment. Every outcome is
// reported through Notice; the screen stays ready.
func (c *CreateAssignment) Submit(ctx context.Context, form CreateForm) {
	if !c.Ready() {
		return
	}
	c.Form = form
	c.Notice = ""
	c.Created = false
	c.Redirect = ""

	in, msg := c.buildInput(form)
	if msg != "" {
		c.Notice = msg
		return
	}

	res, err := c.deps.API.CreateAssignment(ctx, in)
	if err != nil {
		if errors.Is(err, models.ErrInvalidScope) {
			c.Notice = err.Error()
			return
		}
		c.Notice = actionMessage(err, "")
		return
	}
	c.deps.logger().Info("assignment created", slog.Int64("id", res.AssignmentID), slog.String("scope", string(in.Scope)))
	c.Notice = msgCreated
	c.Created = true
	c.Redirect = "/assignments"
	c.Form = CreateForm{Scope: string(models.ScopeGeneral)}
}

// SelectedUser reports whether id is ticked in the current form.
func (c *CreateAssignment) SelectedUser(id int64) bool {
	for _, u := range c.Form.UserIDs {
		if u == id {
			return true
		}
	}
	return false
}

func (c *CreateAssignment) buildInput(form CreateForm) (models.AssignmentInput, string) {
	if strings.TrimSpace(form.Title) == "" {
		return models.AssignmentInput{}, msgTitleRequired
	}
	due, err := models.ParseDueDate(form.DueDate)
	if err != nil {
		return models.AssignmentInput{}, msgInvalidDueDate
	}
	scope, err := models.ParseScope(form.Scope)
	if err != nil {
		return models.AssignmentInput{}, err.Error()
	}

	in := models.AssignmentInput{
		Title:       form.Title,
		Description: form.Description,
		DueDate:     due,
		Scope:       scope,
	}

	switch scope {
	case models.ScopeTeam:
		teamID, err := strconv.ParseInt(strings.TrimSpace(form.TeamID), 10, 64)
		if err != nil {
			return models.AssignmentInput{}, msgTeamNotFound
		}
		team, msg := checkTeamTarget(*c.Identity, c.Teams, teamID)
		if msg != "" {
			return models.AssignmentInput{}, msg
		}
		in.TeamID = &team.ID
	case models.ScopeIndividual:
		if len(form.UserIDs) == 0 {
			return models.AssignmentInput{}, msgSelectUser
		}
		in.EmployeeIDs = form.UserIDs
	}
	return in, ""
}

// checkTeamTarget looks teamID up in the fetched teams and applies the
// team ownership rule for id. It returns the message to show when the
// target is refused.
func checkTeamTarget(id models.Identity, teams []models.Team, teamID int64) (models.Team, string) {
	for _, t := range teams {
		if t.ID != teamID {
			continue
		}
		if !authz.CanTargetTeam(id, t) {
			return models.Team{}, msgNotYourTeam
		}
		return t, ""
	}
	return models.Team{}, msgTeamNotFound
}
