package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assignboard/internal/api"
	"assignboard/internal/apitest"
	"assignboard/internal/models"
	"assignboard/internal/storage/sqlite"
)

func int64p(v int64) *int64 { return &v }

func newClient(t *testing.T, baseURL string, slots api.CookieSlots) (*api.Client, *api.PersistentJar) {
	t.Helper()
	if slots == nil {
		store, err := sqlite.Open(":memory:", nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		slots = store
	}
	jar, err := api.OpenJar(context.Background(), baseURL, slots, nil)
	require.NoError(t, err)
	client, err := api.New(api.Config{BaseURL: baseURL, Jar: jar, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client, jar
}

func seeded(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddAccount(models.User{ID: 1, Email: "admin@test.com", Role: models.RoleOrgAdmin}, "password123")
	srv.AddAccount(models.User{ID: 5, Email: "employee@test.com", Role: models.RoleEmployee}, "password123")
	return srv
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := api.New(api.Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
	_, err = api.New(api.Config{BaseURL: "://nope"})
	assert.Error(t, err)
}

func TestLoginCarriesSessionCookie(t *testing.T) {
	srv := seeded(t)
	client, _ := newClient(t, srv.URL, nil)
	ctx := context.Background()

	_, err := client.ListAssignments(ctx)
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Message)

	identity, err := client.Login(ctx, "admin@test.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, models.Identity{ID: 1, Email: "admin@test.com", Role: models.RoleOrgAdmin}, identity)

	current, ok, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, identity, current)

	_, err = client.ListAssignments(ctx)
	assert.NoError(t, err)

	require.NoError(t, client.Logout(ctx))
	_, ok, err = client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginFailureMessage(t *testing.T) {
	srv := seeded(t)
	client, _ := newClient(t, srv.URL, nil)

	_, err := client.Login(context.Background(), "admin@test.com", "wrong")
	assert.Equal(t, "Invalid email or password", api.Message(err, "Login failed"))
}

func TestSignup(t *testing.T) {
	srv := seeded(t)
	client, _ := newClient(t, srv.URL, nil)
	ctx := context.Background()

	result, err := client.Signup(ctx, api.SignupRequest{Email: "new@test.com", Password: "secret1", OrganizationID: 1})
	require.NoError(t, err)
	require.NotNil(t, result.Identity)
	assert.Equal(t, "new@test.com", result.Identity.Email)
	assert.Equal(t, models.RoleEmployee, result.Identity.Role)

	_, err = client.Signup(ctx, api.SignupRequest{Email: "new@test.com", Password: "secret1", OrganizationID: 1})
	assert.Equal(t, "Email already exists", api.Message(err, "Signup failed"))
}

func TestSignupMessageOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Signup successful!"}`))
	}))
	defer srv.Close()
	client, _ := newClient(t, srv.URL, nil)

	result, err := client.Signup(context.Background(), api.SignupRequest{Email: "a@b.c", Password: "secret1", OrganizationID: 1})
	require.NoError(t, err)
	assert.Nil(t, result.Identity)
	assert.Equal(t, "Signup successful!", result.Message)
}

func TestAssignmentLifecycle(t *testing.T) {
	srv := seeded(t)
	srv.AddTeam(models.Team{ID: 2, Name: "Ops", ManagerID: 1})
	client, _ := newClient(t, srv.URL, nil)
	ctx := context.Background()

	_, err := client.Login(ctx, "admin@test.com", "password123")
	require.NoError(t, err)

	due, err := models.ParseDueDate("2026-11-01")
	require.NoError(t, err)

	created, err := client.CreateAssignment(ctx, models.AssignmentInput{
		Title:       " Quarterly report ",
		Description: "numbers",
		DueDate:     due,
		Scope:       models.ScopeIndividual,
		EmployeeIDs: []int64{5},
	})
	require.NoError(t, err)
	assert.Equal(t, "Assignment created successfully!", created.Message)
	require.NotZero(t, created.AssignmentID)

	got, err := client.GetAssignment(ctx, created.AssignmentID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Quarterly report", got.Title)
	assert.Equal(t, "2026-11-01", models.FormatDueDate(got.DueDate))
	assert.Equal(t, models.ScopeIndividual, got.Scope())
	assert.Equal(t, []int64{5}, got.EmployeeIDs)

	updated, err := client.UpdateAssignment(ctx, created.AssignmentID, models.AssignmentInput{
		Title:  "Quarterly report",
		Scope:  models.ScopeTeam,
		TeamID: int64p(2),
	})
	require.NoError(t, err)
	assert.Equal(t, created.AssignmentID, updated.AssignmentID)

	list, err := client.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ScopeTeam, list[0].Scope())
	assert.Nil(t, list[0].DueDate)

	require.NoError(t, client.DeleteAssignment(ctx, created.AssignmentID))
	list, err = client.ListAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateAssignmentValidatesBeforeSending(t *testing.T) {
	srv := seeded(t)
	client, _ := newClient(t, srv.URL, nil)

	_, err := client.CreateAssignment(context.Background(), models.AssignmentInput{
		Title:  "Bad",
		Scope:  models.ScopeIndividual,
		TeamID: int64p(3),
	})
	assert.ErrorIs(t, err, models.ErrInvalidScope)
	assert.Zero(t, srv.Count("POST /api/assignments"))
}

func TestListTeamsUsersEmployees(t *testing.T) {
	srv := seeded(t)
	srv.AddTeam(models.Team{ID: 1, Name: "Alpha", ManagerID: 2})
	srv.AddEmployeeRow(1, "Ana", "Lima", "ana@test.com", "Engineer", "R&D", nil, 3)
	client, _ := newClient(t, srv.URL, nil)
	ctx := context.Background()

	teams, err := client.ListTeams(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Team{{ID: 1, Name: "Alpha", ManagerID: 2}}, teams)

	users, err := client.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	employees, err := client.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Ana Lima", employees[0].FullName())
	assert.Equal(t, "Engineer", employees[0].Position)
	assert.Equal(t, "R&D", employees[0].Department)
	assert.Empty(t, employees[0].Phone)
}

func TestErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	client, _ := newClient(t, srv.URL, nil)

	_, err := client.ListAssignments(context.Background())
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, "Error fetching assignments", api.Message(err, "Error fetching assignments"))
}

func TestRequestIDHeader(t *testing.T) {
	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(api.RequestIDHeader)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	client, _ := newClient(t, srv.URL, nil)

	_, err := client.ListTeams(context.Background())
	require.NoError(t, err)
	assert.Len(t, <-seen, 36)
}

func TestTransportErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, _ := newClient(t, base, nil)
	_, err := client.ListAssignments(context.Background())
	require.Error(t, err)
	_, ok := api.AsError(err)
	assert.False(t, ok)
	assert.Equal(t, "Error fetching assignments", api.Message(err, "Error fetching assignments"))
}

func TestJarPersistsAcrossRestart(t *testing.T) {
	srv := seeded(t)
	slots, err := sqlite.Open(":memory:", nil)
	require.NoError(t, err)
	defer slots.Close()
	ctx := context.Background()

	client, _ := newClient(t, srv.URL, slots)
	_, err = client.Login(ctx, "employee@test.com", "password123")
	require.NoError(t, err)

	restarted, jar := newClient(t, srv.URL, slots)
	current, ok, err := restarted.CurrentUser(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), current.ID)

	require.NoError(t, jar.Reset(ctx))
	u, _ := url.Parse(srv.URL)
	assert.Empty(t, jar.Cookies(u))
	_, err = slots.Get(ctx, api.CookieSlotKey)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}
