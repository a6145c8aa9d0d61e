package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"assignboard/internal/storage/sqlite"
)

// CookieSlotKey is the durable slot holding the API session cookies.
const CookieSlotKey = "api_cookies"

// CookieSlots is the durable storage behind a PersistentJar.
type CookieSlots interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PersistentJar is a cookie jar for a single API origin whose contents are
// snapshotted into a slot after every change, so the API session survives
// a restart alongside the stored identity.
type PersistentJar struct {
	mu     sync.Mutex
	jar    *cookiejar.Jar
	origin *url.URL
	slots  CookieSlots
	logger *slog.Logger
}

// OpenJar builds a jar for origin and loads any persisted cookies.
func OpenJar(ctx context.Context, origin string, slots CookieSlots, logger *slog.Logger) (*PersistentJar, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse jar origin: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	j := &PersistentJar{jar: inner, origin: &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, slots: slots, logger: logger}

	raw, err := slots.Get(ctx, CookieSlotKey)
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		return j, nil
	case err != nil:
		return nil, fmt.Errorf("load cookies: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		logger.Warn("discarding malformed cookie snapshot", slog.String("error", err.Error()))
		return j, nil
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	inner.SetCookies(j.origin, cookies)
	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}
	j.persistLocked()
}

// Cookies implements http.CookieJar.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Reset drops every cookie and the persisted snapshot.
func (j *PersistentJar) Reset(ctx context.Context) error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar = inner
	if err := j.slots.Delete(ctx, CookieSlotKey); err != nil {
		return fmt.Errorf("remove cookies: %w", err)
	}
	return nil
}

func (j *PersistentJar) persistLocked() {
	current := j.jar.Cookies(j.origin)
	stored := make([]storedCookie, 0, len(current))
	for _, c := range current {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(stored) == 0 {
		if err := j.slots.Delete(ctx, CookieSlotKey); err != nil {
			j.logger.Error("failed to remove cookie snapshot", slog.String("error", err.Error()))
		}
		return
	}
	data, err := json.Marshal(stored)
	if err != nil {
		j.logger.Error("failed to encode cookies", slog.String("error", err.Error()))
		return
	}
	if err := j.slots.Put(ctx, CookieSlotKey, string(data)); err != nil {
		j.logger.Error("failed to persist cookies", slog.String("error", err.Error()))
	}
}
