// Package apitest runs an in-memory stand-in for the remote assignment API
// so clients and screens can be exercised end to end in tests.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"assignboard/internal/models"
)

// SessionCookie is the cookie the fake API uses to track logins.
const SessionCookie = "session"

// Account is a seeded login.
type Account struct {
	User     models.User
	Password string
}

// Server is a fake API backed by maps. Seed it with the Add* helpers.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]Account
	sessions    map[string]int64
	assignments map[int64]models.Assignment
	teams       []models.Team
	employees   [][]any
	nextID      int64
	failures    map[string]int
	requests    map[string]int
}

// New starts a fake API. Callers must Close it.
func New() *Server {
	s := &Server{
		accounts:    map[string]Account{},
		sessions:    map[string]int64{},
		assignments: map[int64]models.Assignment{},
		failures:    map[string]int{},
		requests:    map[string]int{},
		nextID:      1,
	}

	gin.SetMode(gin.ReleaseMode) // avoid unnecessary log
	router := gin.New()
	router.Use(s.count, s.injectFailure)

	api := router.Group("/api")
	{
		api.POST("/login", s.handleLogin)
		api.POST("/signup", s.handleSignup)
		api.POST("/logout", s.handleLogout)
		api.GET("/user", s.handleCurrentUser)
		api.GET("/assignments", s.handleListAssignments)
		api.POST("/assignments", s.handleCreateAssignment)
		api.GET("/assignments/:id", s.handleGetAssignment)
		api.PUT("/assignments/:id", s.handleUpdateAssignment)
		api.DELETE("/assignments/:id", s.handleDeleteAssignment)
		api.GET("/teams", s.handleListTeams)
		api.GET("/users", s.handleListUsers)
		api.GET("/employees", s.handleListEmployees)
	}

	s.Server = httptest.NewServer(router)
	return s
}

// AddAccount seeds a login.
func (s *Server) AddAccount(user models.User, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user.Email] = Account{User: user, Password: password}
}

// AddTeam seeds a team.
func (s *Server) AddTeam(team models.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = append(s.teams, team)
}

// AddAssignment seeds an assignment and returns its id.
func (s *Server) AddAssignment(a models.Assignment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID
	}
	if a.ID >= s.nextID {
		s.nextID = a.ID + 1
	}
	s.assignments[a.ID] = a
	return a.ID
}

// Assignment returns a stored assignment.
func (s *Server) Assignment(id int64) (models.Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	return a, ok
}

// AddEmployeeRow seeds a raw roster row.
func (s *Server) AddEmployeeRow(row ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = append(s.employees, row)
}

// FailNext makes the next call to route ("GET /api/assignments") answer
// with status and a message body.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// Count returns how many times route ("POST /api/assignments") was called.
func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.requests[c.Request.Method+" "+c.FullPath()]++
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFailure(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()
	s.mu.Lock()
	status, ok := s.failures[route]
	delete(s.failures, route)
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(status, gin.H{"message": fmt.Sprintf("injected failure %d", status)})
	}
}

func (s *Server) currentUser(c *gin.Context) (models.User, bool) {
	token, err := c.Cookie(SessionCookie)
	if err != nil {
		return models.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	if !ok {
		return models.User{}, false
	}
	for _, acc := range s.accounts {
		if acc.User.ID == id {
			return acc.User, true
		}
	}
	return models.User{}, false
}

func (s *Server) requireUser(c *gin.Context) (models.User, bool) {
	user, ok := s.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	}
	return user, ok
}

func (s *Server) requireAuthor(c *gin.Context) (models.User, bool) {
	user, ok := s.requireUser(c)
	if !ok {
		return user, false
	}
	if user.Role == models.RoleEmployee {
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized: Access restricted to org_admin, team_manager"})
		return user, false
	}
	return user, true
}

func (s *Server) startSession(c *gin.Context, user models.User) {
	s.mu.Lock()
	token := fmt.Sprintf("tok-%d-%d", user.ID, len(s.sessions)+1)
	s.sessions[token] = user.ID
	s.mu.Unlock()
	http.SetCookie(c.Writer, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true})
}

type credentials struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID int64  `json:"organization_id"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || acc.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	s.startSession(c, acc.User)
	c.JSON(http.StatusOK, gin.H{"id": acc.User.ID, "email": acc.User.Email, "role": acc.User.Role, "organization_id": 1})
}

func (s *Server) handleSignup(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" || req.OrganizationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email, password, and organization ID are required"})
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email already exists"})
		return
	}
	user := models.User{ID: int64(len(s.accounts) + 100), Email: req.Email, Role: models.RoleEmployee}
	s.accounts[req.Email] = Account{User: user, Password: req.Password}
	s.mu.Unlock()

	s.startSession(c, user)
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email, "role": user.Role, "message": "Signup successful!"})
}

func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
	}
	http.SetCookie(c.Writer, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"email": nil, "is_admin": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email, "role": user.Role})
}

func (s *Server) handleListAssignments(c *gin.Context) {
	if _, ok := s.requireUser(c); !ok {
		return
	}
	s.mu.Lock()
	list := make([]models.Assignment, 0, len(s.assignments))
	for id := int64(1); id < s.nextID; id++ {
		if a, ok := s.assignments[id]; ok {
			list = append(list, a)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"assignments": list})
}

func (s *Server) handleGetAssignment(c *gin.Context) {
	if _, ok := s.requireUser(c); !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, found := s.Assignment(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Assignment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": a})
}

type assignmentRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	TeamID      *int64  `json:"team_id"`
	EmployeeIDs []int64 `json:"employee_ids"`
}

func (r assignmentRequest) toAssignment(id int64) (models.Assignment, error) {
	due := ""
	if r.DueDate != nil {
		due = *r.DueDate
	}
	date, err := models.ParseDueDate(due)
	if err != nil {
		return models.Assignment{}, err
	}
	return models.Assignment{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     date,
		General:     r.TeamID == nil && len(r.EmployeeIDs) == 0,
		TeamID:      r.TeamID,
		EmployeeIDs: r.EmployeeIDs,
	}, nil
}

func (s *Server) handleCreateAssignment(c *gin.Context) {
	user, ok := s.requireAuthor(c)
	if !ok {
		return
	}
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.TeamID != nil && user.Role == models.RoleTeamManager && !s.manages(user.ID, *req.TeamID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized: Not manager of this team"})
		return
	}
	a, err := req.toAssignment(0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	id := s.AddAssignment(a)
	c.JSON(http.StatusCreated, gin.H{"message": "Assignment created successfully!", "assignment_id": id})
}

func (s *Server) handleUpdateAssignment(c *gin.Context) {
	if _, ok := s.requireAuthor(c); !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	a, err := req.toAssignment(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	s.mu.Lock()
	s.assignments[id] = a
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Assignment updated successfully!"})
}

func (s *Server) handleDeleteAssignment(c *gin.Context) {
	if _, ok := s.requireAuthor(c); !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.assignments, id)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Assignment deleted successfully!"})
}

func (s *Server) handleListTeams(c *gin.Context) {
	s.mu.Lock()
	teams := append([]models.Team{}, s.teams...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, teams)
}

func (s *Server) handleListUsers(c *gin.Context) {
	s.mu.Lock()
	users := make([]models.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		users = append(users, acc.User)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleListEmployees(c *gin.Context) {
	s.mu.Lock()
	rows := append([][]any{}, s.employees...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, rows)
}

func (s *Server) manages(userID, teamID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.teams {
		if t.ID == teamID {
			return t.ManagerID == userID
		}
	}
	return false
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid identifier"})
		return 0, false
	}
	return id, true
}
