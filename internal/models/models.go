package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by the API for due dates.
const DateLayout = "2006-01-02"

// Role is the permission level attached to an identity.
type Role string

const (
	RoleEmployee    Role = "employee"
	RoleTeamManager Role = "team_manager"
	RoleOrgAdmin    Role = "org_admin"
	RoleSuperAdmin  Role = "super_admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleTeamManager, RoleOrgAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Identity is the authenticated operator as returned by login or signup.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Complete reports whether every field required to act on behalf of the
// identity is present.
func (i Identity) Complete() bool {
	return i.ID > 0 && strings.TrimSpace(i.Email) != "" && i.Role.Valid()
}

// Scope is the breadth an assignment applies to.
type Scope string

const (
	ScopeGeneral    Scope = "general"
	ScopeTeam       Scope = "team"
	ScopeIndividual Scope = "individual"
)

// ParseScope converts a form value into a Scope. Empty input means general.
func ParseScope(raw string) (Scope, error) {
	switch Scope(strings.TrimSpace(raw)) {
	case "", ScopeGeneral:
		return ScopeGeneral, nil
	case ScopeTeam:
		return ScopeTeam, nil
	case ScopeIndividual:
		return ScopeIndividual, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, raw)
}

var (
	// ErrInvalidScope is returned when team_id and employee_ids disagree with the scope.
	ErrInvalidScope = errors.New("invalid assignment scope")
	// ErrTitleRequired is returned for assignments without a title.
	ErrTitleRequired = errors.New("title is required")
)

// Assignment is a unit of work published by the API.
type Assignment struct {
	ID          int64
	Title       string
	Description string
	DueDate     *time.Time
	// DueRaw keeps a due_date the API sent in a format ParseDueDate does
	// not read. DueDate is nil when it is set.
	DueRaw      string
	General     bool
	TeamID      *int64
	EmployeeIDs []int64
}

type assignmentWire struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	IsGeneral   int     `json:"is_general"`
	TeamID      *int64  `json:"team_id"`
	EmployeeIDs []int64 `json:"employee_ids"`
}

// UnmarshalJSON decodes the API representation, where the scope is spread
// over is_general, team_id and employee_ids. The API stores due_date as
// free text, so an unreadable date is kept in DueRaw rather than rejected.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	var w assignmentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = Assignment{
		ID:          w.ID,
		Title:       w.Title,
		Description: derefString(w.Description),
		General:     w.IsGeneral != 0,
		EmployeeIDs: w.EmployeeIDs,
	}
	raw := strings.TrimSpace(derefString(w.DueDate))
	if due, err := ParseDueDate(raw); err == nil {
		a.DueDate = due
	} else {
		a.DueRaw = raw
	}
	if w.TeamID != nil && *w.TeamID > 0 {
		id := *w.TeamID
		a.TeamID = &id
	}
	return nil
}

// MarshalJSON encodes the assignment back into the API representation.
func (a Assignment) MarshalJSON() ([]byte, error) {
	w := assignmentWire{
		ID:          a.ID,
		Title:       a.Title,
		Description: &a.Description,
		TeamID:      a.TeamID,
		EmployeeIDs: a.EmployeeIDs,
	}
	if a.General {
		w.IsGeneral = 1
	}
	if due := a.DueText(); due != "" {
		w.DueDate = &due
	}
	if w.EmployeeIDs == nil {
		w.EmployeeIDs = []int64{}
	}
	return json.Marshal(w)
}

// DueText renders the due date in DateLayout, or the raw text the API sent
// when it could not be parsed.
func (a Assignment) DueText() string {
	if a.DueDate != nil {
		return FormatDueDate(a.DueDate)
	}
	return a.DueRaw
}

// Scope derives the assignment scope from the API flags.
func (a Assignment) Scope() Scope {
	switch {
	case a.General:
		return ScopeGeneral
	case a.TeamID != nil:
		return ScopeTeam
	case len(a.EmployeeIDs) > 0:
		return ScopeIndividual
	}
	return ScopeGeneral
}

// AssignedTo reports whether userID is named in the assignment.
func (a Assignment) AssignedTo(userID int64) bool {
	for _, id := range a.EmployeeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AssignmentInput is the payload for creating or updating an assignment.
type AssignmentInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Scope       Scope
	TeamID      *int64
	EmployeeIDs []int64
}

// Validate enforces the title requirement and the mutual exclusivity of
// team_id and employee_ids against the scope.
func (in AssignmentInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	switch in.Scope {
	case ScopeGeneral:
		if in.TeamID != nil || len(in.EmployeeIDs) > 0 {
			return fmt.Errorf("%w: general assignments take neither team nor employees", ErrInvalidScope)
		}
	case ScopeTeam:
		if in.TeamID == nil || *in.TeamID <= 0 {
			return fmt.Errorf("%w: team assignments need a team id", ErrInvalidScope)
		}
		if len(in.EmployeeIDs) > 0 {
			return fmt.Errorf("%w: team assignments take no employee ids", ErrInvalidScope)
		}
	case ScopeIndividual:
		if len(in.EmployeeIDs) == 0 {
			return fmt.Errorf("%w: individual assignments need at least one employee", ErrInvalidScope)
		}
		if in.TeamID != nil {
			return fmt.Errorf("%w: individual assignments take no team id", ErrInvalidScope)
		}
		for _, id := range in.EmployeeIDs {
			if id <= 0 {
				return fmt.Errorf("%w: employee id %d", ErrInvalidScope, id)
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScope, in.Scope)
	}
	return nil
}

// MarshalJSON produces the request body expected by the API.
func (in AssignmentInput) MarshalJSON() ([]byte, error) {
	body := struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		DueDate     *string `json:"due_date"`
		TeamID      *int64  `json:"team_id,omitempty"`
		EmployeeIDs []int64 `json:"employee_ids,omitempty"`
	}{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		TeamID:      in.TeamID,
		EmployeeIDs: in.EmployeeIDs,
	}
	if in.DueDate != nil {
		s := FormatDueDate(in.DueDate)
		body.DueDate = &s
	}
	return json.Marshal(body)
}

// Team groups employees under one manager.
type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ManagerID int64  `json:"manager_id"`
}

// User is an account known to the API.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Employee is a roster entry. The API sends it as a positional row of
// eight columns: [id, first_name, last_name, email, position, department,
// phone, user_id]. The trailing user_id is not kept.
type Employee struct {
	ID         int64
	FirstName  string
	LastName   string
	Email      string
	Position   string
	Department string
	Phone      string
}

// UnmarshalJSON decodes the positional row. Missing trailing columns and
// nulls are left empty.
func (e *Employee) UnmarshalJSON(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("employee row: %w", err)
	}
	if len(row) == 0 {
		return fmt.Errorf("employee row: empty")
	}
	if err := json.Unmarshal(row[0], &e.ID); err != nil {
		return fmt.Errorf("employee id: %w", err)
	}
	fields := []*string{&e.FirstName, &e.LastName, &e.Email, &e.Position, &e.Department, &e.Phone}
	for i, dst := range fields {
		if i+1 >= len(row) {
			break
		}
		var v *string
		if err := json.Unmarshal(row[i+1], &v); err != nil {
			return fmt.Errorf("employee column %d: %w", i+1, err)
		}
		*dst = derefString(v)
	}
	return nil
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp. The empty
// string means no due date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, s)
		if tsErr != nil {
			return nil, fmt.Errorf("parse due_date: %w", err)
		}
		t = ts
	}
	utc := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	return &utc, nil
}

// FormatDueDate renders a due date in DateLayout; nil renders empty.
func FormatDueDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
