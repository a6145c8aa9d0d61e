package server

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"assignboard/internal/controller"
)

// handleLoginPage shows the login form, with the notice left by signup.
func (s *Server) handleLoginPage(c *gin.Context) {
	data := s.page(c, "Login", nil)
	data["Notice"] = c.Query("notice")
	data["Form"] = controller.LoginForm{}
	s.render(c, http.StatusOK, "login.html", data)
}

// handleLogin authenticates and redirects to the role's landing page.
func (s *Server) handleLogin(c *gin.Context) {
	var form controller.LoginForm
	if !s.bindForm(c, &form) {
		return
	}

	res := controller.NewLogin(s.deps).Submit(c.Request.Context(), form)
	if res.OK() {
		c.Redirect(http.StatusSeeOther, res.Redirect)
		return
	}

	form.Password = ""
	data := s.page(c, "Login", nil)
	data["Form"] = form
	data["Result"] = res
	s.render(c, statusFor(res), "login.html", data)
}

// handleSignupPage shows the signup form.
func (s *Server) handleSignupPage(c *gin.Context) {
	data := s.page(c, "Sign up", nil)
	data["Form"] = controller.SignupForm{}
	s.render(c, http.StatusOK, "signup.html", data)
}

// handleSignup creates the account and either logs in or sends the
// operator to the login page with the API's message.
func (s *Server) handleSignup(c *gin.Context) {
	var form controller.SignupForm
	if !s.bindForm(c, &form) {
		return
	}

	res := controller.NewSignup(s.deps, s.orgID).Submit(c.Request.Context(), form)
	if res.OK() {
		target := res.Redirect
		if res.Notice != "" {
			target += "?notice=" + url.QueryEscape(res.Notice)
		}
		c.Redirect(http.StatusSeeOther, target)
		return
	}

	form.Password, form.ConfirmPassword = "", ""
	data := s.page(c, "Sign up", nil)
	data["Form"] = form
	data["Result"] = res
	s.render(c, statusFor(res), "signup.html", data)
}

// handleLogout ends the session and returns to the home page.
func (s *Server) handleLogout(c *gin.Context) {
	if err := controller.NewLogout(s.deps, s.cookies).Run(c.Request.Context()); err != nil {
		s.logger.Error("failed to clear session", slog.String("error", err.Error()))
		s.render(c, http.StatusInternalServerError, "error.html", s.page(c, "Logout failed", gin.H{"Error": "Could not clear the local session."}))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// statusFor picks the response code for a rejected login or signup.
func statusFor(res controller.AuthResult) int {
	if len(res.FieldErrors) > 0 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusUnauthorized
}
