// Package session holds the operator's authenticated identity for the
// lifetime of the process and mirrors it into a durable slot so that it
// survives restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"assignboard/internal/models"
	"assignboard/internal/storage/sqlite"
)

// SlotKey is the durable slot holding the serialized identity.
const SlotKey = "auth_user"

// ErrInvalidIdentity is returned by Establish when the identity lacks a
// positive id, an email or a known role. The store is left unchanged.
var ErrInvalidIdentity = errors.New("invalid identity")

// Slots is the durable key/value storage behind the store. Get must
// return sqlite.ErrNotFound for missing keys. *sqlite.Store satisfies it.
type Slots interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store caches the current identity. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	identity *models.Identity
	slots    Slots
	logger   *slog.Logger
}

// Open restores the identity persisted in slots. A missing slot yields an
// anonymous store; a malformed one is logged, removed and also yields an
// anonymous store. Only storage failures are returned as errors.
func Open(ctx context.Context, slots Slots, logger *slog.Logger) (*Store, error) {
	if slots == nil {
		return nil, fmt.Errorf("session: nil slot storage")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{slots: slots, logger: logger}

	raw, err := slots.Get(ctx, SlotKey)
	if err != nil {
		if isNotFound(err) {
			return s, nil
		}
		return nil, fmt.Errorf("restore session: %w", err)
	}

	identity, ok := decode(raw)
	if !ok {
		logger.Warn("discarding malformed persisted identity")
		if err := slots.Delete(ctx, SlotKey); err != nil {
			logger.Error("failed to remove malformed identity", slog.String("error", err.Error()))
		}
		return s, nil
	}
	s.identity = &identity
	logger.Info("session restored", slog.String("email", identity.Email), slog.String("role", string(identity.Role)))
	return s, nil
}

// Current returns a copy of the current identity, or false when anonymous.
func (s *Store) Current() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// Establish replaces the current identity and persists it. An identity
// without a positive id, email or known role is rejected with
// ErrInvalidIdentity and leaves the store untouched.
func (s *Store) Establish(ctx context.Context, email string, role models.Role, id int64) error {
	identity := models.Identity{ID: id, Email: email, Role: role}
	if !identity.Complete() {
		s.logger.Warn("establish called without a valid identity",
			slog.Int64("id", id), slog.String("email", email), slog.String("role", string(role)))
		return ErrInvalidIdentity
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.slots.Put(ctx, SlotKey, string(data)); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	s.identity = &identity
	return nil
}

// Clear forgets the current identity and removes its persisted form.
// Clearing an anonymous store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	if err := s.slots.Delete(ctx, SlotKey); err != nil {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}

func decode(raw string) (models.Identity, bool) {
	var identity models.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return models.Identity{}, false
	}
	return identity, identity.Complete()
}

func isNotFound(err error) bool {
	return errors.Is(err, sqlite.ErrNotFound)
}
