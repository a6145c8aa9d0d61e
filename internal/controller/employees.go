package controller

import (
	"context"

	"assignboard/internal/models"
)

// EmployeeRoster lists the organization's employees. It does not require
// an identity; the API decides what an anonymous caller may see.
type EmployeeRoster struct {
	View
	Employees []models.Employee

	deps Deps
}

// NewEmployeeRoster builds the roster screen.
func NewEmployeeRoster(deps Deps) *EmployeeRoster {
	return &EmployeeRoster{deps: deps}
}

// Load fetches the roster.
func (c *EmployeeRoster) Load(ctx context.Context) {
	if id, ok := c.deps.Sessions.Current(); ok {
		c.Identity = &id
	}
	c.State = StateLoading
	c.Error = ""

	employees, err := c.deps.API.ListEmployees(ctx)
	if err != nil {
		c.fail(c.deps.logger(), err, "Failed to fetch employees")
		return
	}
	c.Employees = employees
	c.State = StateReady
}
