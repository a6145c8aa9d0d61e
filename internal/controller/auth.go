package controller

import (
	"context"
	"log/slog"
	"strings"

	"assignboard/internal/api"
	"assignboard/internal/authz"
)

// AuthResult is the outcome of a login or signup submission.
type AuthResult struct {
	// Redirect is set on success.
	Redirect string
	// Error is the form-level message on failure.
	Error string
	// FieldErrors holds per-field validation messages.
	FieldErrors map[string]string
	// Notice is an informational message, e.g. signup without auto-login.
	Notice string
}

// OK reports whether the submission succeeded.
func (r AuthResult) OK() bool { return r.Redirect != "" }

const serverUnavailable = "Server error. Please try again later."

// Login handles the login screen.
type Login struct {
	deps Deps
}

// NewLogin builds the login screen.
func NewLogin(deps Deps) *Login {
	return &Login{deps: deps}
}

// Submit validates form, authenticates and establishes the session.
func (c *Login) Submit(ctx context.Context, form LoginForm) AuthResult {
	form.Email = strings.TrimSpace(form.Email)
	if errs := validate(form); errs != nil {
		return AuthResult{FieldErrors: errs}
	}

	identity, err := c.deps.API.Login(ctx, form.Email, form.Password)
	if err != nil {
		return authFailure(c.deps.logger(), err, "Login failed")
	}
	if err := c.deps.Sessions.Establish(ctx, identity.Email, identity.Role, identity.ID); err != nil {
		c.deps.logger().Warn("login returned an unusable identity", slog.String("error", err.Error()))
		return AuthResult{Error: "Login failed"}
	}
	c.deps.logger().Info("logged in", slog.String("email", identity.Email), slog.String("role", string(identity.Role)))
	return AuthResult{Redirect: authz.LandingPath(identity.Role)}
}

func authFailure(logger *slog.Logger, err error, fallback string) AuthResult {
	if _, ok := api.AsError(err); ok {
		return AuthResult{Error: api.Message(err, fallback)}
	}
	logger.Error("auth request failed", slog.String("error", err.Error()))
	return AuthResult{Error: serverUnavailable}
}

// Signup handles the signup screen.
type Signup struct {
	deps           Deps
	organizationID int64
}

// NewSignup builds the signup screen. New accounts join organizationID.
func NewSignup(deps Deps, organizationID int64) *Signup {
	return &Signup{deps: deps, organizationID: organizationID}
}

// Submit validates form, creates the account and, when the API hands
// back an identity, logs the operator in.
func (c *Signup) Submit(ctx context.Context, form SignupForm) AuthResult {
	form.Email = strings.TrimSpace(form.Email)
	if errs := validate(form); errs != nil {
		return AuthResult{FieldErrors: errs}
	}

	result, err := c.deps.API.Signup(ctx, api.SignupRequest{
		Email:          form.Email,
		Password:       form.Password,
		OrganizationID: c.organizationID,
	})
	if err != nil {
		return authFailure(c.deps.logger(), err, "Signup failed")
	}

	if result.Identity == nil {
		notice := result.Message
		if notice == "" {
			notice = "Signup successful! Please log in."
		}
		return AuthResult{Redirect: "/login", Notice: notice}
	}

	id := result.Identity
	if err := c.deps.Sessions.Establish(ctx, id.Email, id.Role, id.ID); err != nil {
		c.deps.logger().Warn("signup returned an unusable identity", slog.String("error", err.Error()))
		return AuthResult{Redirect: "/login", Notice: "Signup successful! Please log in."}
	}
	return AuthResult{Redirect: authz.LandingPath(id.Role)}
}

// CookieResetter drops the API session cookies kept by the client.
type CookieResetter interface {
	Reset(ctx context.Context) error
}

// Logout ends the session locally and on the API.
type Logout struct {
	deps    Deps
	cookies CookieResetter
}

// NewLogout builds the logout action. cookies may be nil.
func NewLogout(deps Deps, cookies CookieResetter) *Logout {
	return &Logout{deps: deps, cookies: cookies}
}

// Run tells the API to end the session, then clears the local identity
// and cookies. A failing API call is logged and does not stop the local
// clear.
func (c *Logout) Run(ctx context.Context) error {
	logger := c.deps.logger()
	if err := c.deps.API.Logout(ctx); err != nil {
		logger.Warn("logout request failed", slog.String("error", err.Error()))
	}
	if c.cookies != nil {
		if err := c.cookies.Reset(ctx); err != nil {
			logger.Error("failed to reset cookies", slog.String("error", err.Error()))
		}
	}
	return c.deps.Sessions.Clear(ctx)
}
