package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"assignboard/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// identityResponse is the login/signup reply. Fields are optional because
// some deployments answer signup with only a message.
type identityResponse struct {
	ID             int64       `json:"id"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	OrganizationID int64       `json:"organization_id"`
	Message        string      `json:"message"`
}

func (r identityResponse) identity() models.Identity {
	return models.Identity{ID: r.ID, Email: r.Email, Role: r.Role}
}

// Login authenticates with email and password. The API sets the session
// cookie on the reply.
func (c *Client) Login(ctx context.Context, email, password string) (models.Identity, error) {
	var resp identityResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return models.Identity{}, err
	}
	return resp.identity(), nil
}

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID int64  `json:"organization_id"`
}

// SignupResult holds what the API returned for a new account. Identity is
// set only when the reply carried a complete identity.
type SignupResult struct {
	Identity *models.Identity
	Message  string
}

// Signup creates an account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	var resp identityResponse
	if err := c.do(ctx, http.MethodPost, "/api/signup", req, &resp); err != nil {
		return SignupResult{}, err
	}
	result := SignupResult{Message: resp.Message}
	if id := resp.identity(); id.Complete() {
		result.Identity = &id
	}
	return result, nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// CurrentUser asks the API who the session cookie belongs to. It reports
// false when the API considers the session anonymous.
func (c *Client) CurrentUser(ctx context.Context) (models.Identity, bool, error) {
	var resp identityResponse
	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &resp); err != nil {
		return models.Identity{}, false, err
	}
	id := resp.identity()
	return id, id.Complete(), nil
}

// ListAssignments returns every assignment the session may see.
func (c *Client) ListAssignments(ctx context.Context) ([]models.Assignment, error) {
	var resp struct {
		Assignments []models.Assignment `json:"assignments"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/assignments", nil, &resp); err != nil {
		return nil, err
	}
	for _, a := range resp.Assignments {
		c.noteRawDueDate(a)
	}
	return resp.Assignments, nil
}

// GetAssignment fetches one assignment. A reply without a record yields
// nil and no error.
func (c *Client) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	var resp struct {
		Assignment *models.Assignment `json:"assignment"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/assignments/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Assignment != nil {
		c.noteRawDueDate(*resp.Assignment)
	}
	return resp.Assignment, nil
}

func (c *Client) noteRawDueDate(a models.Assignment) {
	if a.DueRaw != "" {
		c.logger.Warn("assignment due_date kept as text", slog.Int64("id", a.ID), slog.String("due_date", a.DueRaw))
	}
}

// Mutation is the reply to a create or update.
type Mutation struct {
	Message      string             `json:"message"`
	AssignmentID int64              `json:"assignment_id"`
	Assignment   *models.Assignment `json:"assignment"`
}

// CreateAssignment publishes a new assignment. in is validated first and
// nothing is sent when it is inconsistent.
func (c *Client) CreateAssignment(ctx context.Context, in models.AssignmentInput) (Mutation, error) {
	if err := in.Validate(); err != nil {
		return Mutation{}, err
	}
	var resp Mutation
	if err := c.do(ctx, http.MethodPost, "/api/assignments", in, &resp); err != nil {
		return Mutation{}, err
	}
	return resp, nil
}

// UpdateAssignment replaces assignment id with in.
func (c *Client) UpdateAssignment(ctx context.Context, id int64, in models.AssignmentInput) (Mutation, error) {
	if err := in.Validate(); err != nil {
		return Mutation{}, err
	}
	var resp Mutation
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/assignments/%d", id), in, &resp); err != nil {
		return Mutation{}, err
	}
	if resp.AssignmentID == 0 {
		resp.AssignmentID = id
	}
	return resp, nil
}

// DeleteAssignment removes assignment id.
func (c *Client) DeleteAssignment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/assignments/%d", id), nil, nil)
}

// ListTeams returns the organization's teams.
func (c *Client) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := c.do(ctx, http.MethodGet, "/api/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// ListUsers returns the accounts that can be named on an assignment.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var resp struct {
		Users []models.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// ListEmployees returns the employee roster.
func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := c.do(ctx, http.MethodGet, "/api/employees", nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// Message returns a displayable message for err: the server's message for
// API errors, fallback for everything else.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsError(err); ok && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}
