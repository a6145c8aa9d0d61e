package server

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"assignboard/internal/controller"
)

// handleListAssignments renders the assignments visible to the operator.
func (s *Server) handleListAssignments(c *gin.Context) {
	screen := controller.NewAssignmentList(s.deps)
	screen.Load(c.Request.Context())
	if screen.Ready() {
		screen.Notice = c.Query("notice")
	}
	s.renderScreen(c, screen.View, "assignments.html", "Assignments", screen)
}

// handleShowAssignment renders one assignment.
func (s *Server) handleShowAssignment(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	screen := controller.NewAssignmentDetail(s.deps, id)
	screen.Load(c.Request.Context())
	s.renderScreen(c, screen.View, "assignment.html", "Assignment", screen)
}

// handleCreatePage renders the empty create form.
func (s *Server) handleCreatePage(c *gin.Context) {
	screen := controller.NewCreateAssignment(s.deps)
	screen.Load(c.Request.Context())
	s.renderScreen(c, screen.View, "create.html", "Create assignment", screen)
}

// handleCreateAssignment reloads the form's teams and users, then submits.
// A created assignment sends the operator back to the list.
func (s *Server) handleCreateAssignment(c *gin.Context) {
	var form controller.CreateForm
	if !s.bindForm(c, &form) {
		return
	}
	screen := controller.NewCreateAssignment(s.deps)
	screen.Load(c.Request.Context())
	screen.Submit(c.Request.Context(), form)
	if screen.Redirect != "" {
		c.Redirect(http.StatusSeeOther, screen.Redirect+"?notice="+url.QueryEscape(screen.Notice))
		return
	}
	s.renderScreen(c, screen.View, "create.html", "Create assignment", screen)
}

// handleManagePage renders every assignment with an empty editor.
func (s *Server) handleManagePage(c *gin.Context) {
	screen := controller.NewManageAssignments(s.deps)
	screen.Load(c.Request.Context())
	s.renderScreen(c, screen.View, "manage.html", "Manage assignments", screen)
}

// handleEditAssignment renders the manage page with the editor prefilled.
func (s *Server) handleEditAssignment(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	screen := controller.NewManageAssignments(s.deps)
	screen.Load(c.Request.Context())
	if screen.Ready() && !screen.Edit(id) {
		screen.Notice = "Assignment not found."
	}
	s.renderScreen(c, screen.View, "manage.html", "Manage assignments", screen)
}

// handleSaveAssignment creates or updates from the manage editor.
func (s *Server) handleSaveAssignment(c *gin.Context) {
	var form controller.ManageForm
	if !s.bindForm(c, &form) {
		return
	}
	screen := controller.NewManageAssignments(s.deps)
	screen.Load(c.Request.Context())
	screen.Save(c.Request.Context(), form)
	s.renderScreen(c, screen.View, "manage.html", "Manage assignments", screen)
}

// handleDeleteAssignment removes an assignment from the manage page.
func (s *Server) handleDeleteAssignment(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	screen := controller.NewManageAssignments(s.deps)
	screen.Load(c.Request.Context())
	screen.Delete(c.Request.Context(), id)
	s.renderScreen(c, screen.View, "manage.html", "Manage assignments", screen)
}

// handleEmployees renders the roster.
func (s *Server) handleEmployees(c *gin.Context) {
	screen := controller.NewEmployeeRoster(s.deps)
	screen.Load(c.Request.Context())
	s.renderScreen(c, screen.View, "employees.html", "Employees", screen)
}
