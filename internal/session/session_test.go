package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assignboard/internal/models"
	"assignboard/internal/storage/sqlite"
)

func openSlots(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	slots, err := sqlite.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = slots.Close() })
	return slots
}

func TestOpenAnonymousWhenSlotMissing(t *testing.T) {
	slots := openSlots(t, ":memory:")
	store, err := Open(context.Background(), slots, nil)
	require.NoError(t, err)

	_, ok := store.Current()
	assert.False(t, ok)
}

func TestEstablishSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	slots := openSlots(t, path)
	store, err := Open(ctx, slots, nil)
	require.NoError(t, err)
	require.NoError(t, store.Establish(ctx, "ana@example.com", models.RoleTeamManager, 7))
	require.NoError(t, slots.Close())

	restored, err := Open(ctx, openSlots(t, path), nil)
	require.NoError(t, err)

	identity, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, models.Identity{ID: 7, Email: "ana@example.com", Role: models.RoleTeamManager}, identity)
}

func TestEstablishRejectsInvalidIdentity(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, openSlots(t, ":memory:"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Establish(ctx, "first@example.com", models.RoleEmployee, 3))

	var tts = []struct {
		Name  string
		Email string
		Role  models.Role
		ID    int64
	}{
		{Name: "zero id", Email: "x@example.com", Role: models.RoleEmployee, ID: 0},
		{Name: "negative id", Email: "x@example.com", Role: models.RoleEmployee, ID: -4},
		{Name: "no email", Email: "", Role: models.RoleEmployee, ID: 9},
		{Name: "unknown role", Email: "x@example.com", Role: "janitor", ID: 9},
	}

	for _, tt := range tts {
		t.Run(tt.Name, func(t *testing.T) {
			err := store.Establish(ctx, tt.Email, tt.Role, tt.ID)
			assert.ErrorIs(t, err, ErrInvalidIdentity)

			identity, ok := store.Current()
			require.True(t, ok)
			assert.Equal(t, int64(3), identity.ID)
			assert.Equal(t, "first@example.com", identity.Email)
		})
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	slots := openSlots(t, ":memory:")
	store, err := Open(ctx, slots, nil)
	require.NoError(t, err)
	require.NoError(t, store.Establish(ctx, "ana@example.com", models.RoleOrgAdmin, 1))

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, ok := store.Current()
	assert.False(t, ok)

	raw, err := slots.Get(ctx, SlotKey)
	if err == nil {
		_, valid := decode(raw)
		assert.False(t, valid)
	} else {
		assert.ErrorIs(t, err, sqlite.ErrNotFound)
	}
}

func TestOpenDiscardsMalformedIdentity(t *testing.T) {
	ctx := context.Background()

	var tts = []string{
		`not json`,
		`{"email":"a@example.com","role":"employee"}`,
		`{"id":4,"role":"employee"}`,
		`{"id":4,"email":"a@example.com"}`,
		`{"id":"4","email":"a@example.com","role":"employee"}`,
	}

	for _, raw := range tts {
		slots := openSlots(t, ":memory:")
		require.NoError(t, slots.Put(ctx, SlotKey, raw))

		store, err := Open(ctx, slots, nil)
		require.NoError(t, err, raw)

		_, ok := store.Current()
		assert.False(t, ok, raw)

		_, err = slots.Get(ctx, SlotKey)
		assert.ErrorIs(t, err, sqlite.ErrNotFound, raw)
	}
}

type brokenSlots struct{}

func (brokenSlots) Get(context.Context, string) (string, error) {
	return "", errors.New("disk on fire")
}
func (brokenSlots) Put(context.Context, string, string) error { return errors.New("disk on fire") }
func (brokenSlots) Delete(context.Context, string) error      { return errors.New("disk on fire") }

func TestOpenReportsStorageFailure(t *testing.T) {
	_, err := Open(context.Background(), brokenSlots{}, nil)
	assert.Error(t, err)
}

func TestEstablishKeepsStateWhenPersistFails(t *testing.T) {
	store := &Store{slots: brokenSlots{}, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := store.Establish(context.Background(), "a@example.com", models.RoleEmployee, 2)
	assert.Error(t, err)

	_, ok := store.Current()
	assert.False(t, ok)
}
