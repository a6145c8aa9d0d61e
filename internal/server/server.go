package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"assignboard/internal/controller"
)

// Options carries the collaborators the server renders screens from.
type Options struct {
	API      controller.API
	Sessions controller.Sessions
	// Cookies is reset on logout. It may be nil.
	Cookies controller.CookieResetter
	// OrganizationID is sent with every signup.
	OrganizationID int64
	Logger         *slog.Logger
}

// Server maps the board's pages onto the screen controllers.
type Server struct {
	engine  *gin.Engine
	deps    controller.Deps
	cookies controller.CookieResetter
	orgID   int64
	logger  *slog.Logger
}

// New constructs the HTTP server with routes, templates and middleware configured.
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	srv := &Server{
		engine:  router,
		deps:    controller.Deps{API: opts.API, Sessions: opts.Sessions, Logger: logger},
		cookies: opts.Cookies,
		orgID:   opts.OrganizationID,
		logger:  logger,
	}

	if err := srv.registerRoutes(); err != nil {
		return nil, err
	}
	return srv, nil
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all page, API and static handlers together.
func (s *Server) registerRoutes() error {
	s.engine.GET("/", s.handleHome)

	s.engine.GET("/login", s.handleLoginPage)
	s.engine.POST("/login", s.handleLogin)
	s.engine.GET("/signup", s.handleSignupPage)
	s.engine.POST("/signup", s.handleSignup)
	s.engine.GET("/logout", s.handleLogout)
	s.engine.POST("/logout", s.handleLogout)

	assignments := s.engine.Group("/assignments")
	{
		assignments.GET("", s.handleListAssignments)
		assignments.GET("/:id", s.handleShowAssignment)
		assignments.GET("/create", s.handleCreatePage)
		assignments.POST("/create", s.handleCreateAssignment)

		manage := assignments.Group("/manage")
		{
			manage.GET("", s.handleManagePage)
			manage.POST("", s.handleSaveAssignment)
			manage.GET("/:id/edit", s.handleEditAssignment)
			manage.POST("/:id/delete", s.handleDeleteAssignment)
		}
	}

	s.engine.GET("/employees", s.handleEmployees)

	for _, dashboard := range []string{"/super/dashboard", "/org/dashboard", "/manager/dashboard"} {
		s.engine.GET(dashboard, s.handleDashboard)
	}

	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
	}

	return s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	_, authenticated := s.deps.Sessions.Current()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "authenticated": authenticated})
}

// handleHome sends an operator with a session to their landing page.
func (s *Server) handleHome(c *gin.Context) {
	if _, ok := s.deps.Sessions.Current(); ok {
		c.Redirect(http.StatusSeeOther, "/assignments")
		return
	}
	s.render(c, http.StatusOK, "home.html", s.page(c, "Assignment Board", nil))
}

// handleDashboard stands in for the per-role dashboards.
func (s *Server) handleDashboard(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/assignments/manage")
}

// page builds the template data shared by every page.
func (s *Server) page(c *gin.Context, title string, screen any) gin.H {
	data := gin.H{"Title": title, "Screen": screen, "Path": c.Request.URL.Path}
	if id, ok := s.deps.Sessions.Current(); ok {
		data["Identity"] = id
	}
	return data
}

// render writes the named page with status.
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	c.HTML(status, name, data)
}

// renderScreen renders name for a loaded screen, or the gate and denied
// pages when the screen ended there.
func (s *Server) renderScreen(c *gin.Context, view controller.View, name, title string, screen any) {
	switch view.State {
	case controller.StateGate:
		s.render(c, http.StatusUnauthorized, "gate.html", s.page(c, "Login required", screen))
	case controller.StateDenied:
		s.render(c, http.StatusForbidden, "denied.html", s.page(c, "Access denied", screen))
	default:
		s.render(c, http.StatusOK, name, s.page(c, title, screen))
	}
}

// parseID converts a path parameter to int64, rendering the not found
// page when it is not a positive number.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.notFound(c)
		return 0, false
	}
	return id, true
}

// bindForm decodes the posted form into obj. Validation failures are left
// to the controllers, which turn them into field messages.
func (s *Server) bindForm(c *gin.Context, obj any) bool {
	err := c.ShouldBind(obj)
	var verrs validator.ValidationErrors
	if err == nil || errors.As(err, &verrs) {
		return true
	}
	s.logger.Warn("malformed form", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	s.render(c, http.StatusBadRequest, "error.html", s.page(c, "Bad request", gin.H{"Error": "The submitted form could not be read."}))
	return false
}
