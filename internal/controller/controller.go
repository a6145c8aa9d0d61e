// Package controller holds the per-screen logic: what each screen fetches,
// which state it is in, and what happens when the operator acts on it.
//
// Every screen moves through the same states. It starts gated when it
// needs an identity and none is established, denied when the identity's
// role may not use it, and otherwise loads its data and ends up ready or
// failed. Mutations run from the ready state; success reloads the screen,
// failure leaves it ready with a notice.
package controller

import (
	"context"
	"fmt"
	"log/slog"

	"assignboard/internal/api"
	"assignboard/internal/models"
)

// State is the lifecycle position of a screen.
type State int

const (
	StateGate State = iota
	StateLoading
	StateReady
	StateFailed
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateGate:
		return "gate"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateDenied:
		return "denied"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Sessions is the identity store consulted and updated by the screens.
type Sessions interface {
	Current() (models.Identity, bool)
	Establish(ctx context.Context, email string, role models.Role, id int64) error
	Clear(ctx context.Context) error
}

// API is the remote calls the screens issue. *api.Client satisfies it.
type API interface {
	Login(ctx context.Context, email, password string) (models.Identity, error)
	Signup(ctx context.Context, req api.SignupRequest) (api.SignupResult, error)
	Logout(ctx context.Context) error
	ListAssignments(ctx context.Context) ([]models.Assignment, error)
	GetAssignment(ctx context.Context, id int64) (*models.Assignment, error)
	CreateAssignment(ctx context.Context, in models.AssignmentInput) (api.Mutation, error)
	UpdateAssignment(ctx context.Context, id int64, in models.AssignmentInput) (api.Mutation, error)
	DeleteAssignment(ctx context.Context, id int64) error
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
}

// Deps bundles what every screen is built from.
type Deps struct {
	API      API
	Sessions Sessions
	Logger   *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// View is the state shared by every screen.
type View struct {
	State State
	// Identity is the snapshot taken when the screen loaded.
	Identity *models.Identity
	// Error describes why the screen is failed or denied.
	Error string
	// Notice is an inline message left by the last action.
	Notice string
}

// Ready reports whether the screen holds data.
func (v View) Ready() bool { return v.State == StateReady }

// snapshot records the current identity. It returns false and gates the
// view when none is established.
func (v *View) snapshot(s Sessions) bool {
	id, ok := s.Current()
	if !ok {
		v.State = StateGate
		v.Identity = nil
		return false
	}
	v.Identity = &id
	return true
}

func (v *View) fail(logger *slog.Logger, err error, fallback string) {
	v.State = StateFailed
	v.Error = api.Message(err, fallback)
	logger.Warn("screen load failed", slog.String("error", err.Error()))
}

func (v *View) deny(reason string) {
	v.State = StateDenied
	v.Error = reason
}

// actionMessage renders the outcome of a failed mutation.
func actionMessage(err error, fallback string) string {
	if apiErr, ok := api.AsError(err); ok {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Server error %d", apiErr.Status)
	}
	if fallback != "" {
		return fallback
	}
	return "Network error: " + err.Error()
}
