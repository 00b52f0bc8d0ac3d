// Package session implements server-side login sessions. A session is an
// opaque random id bound to a user; the client only ever holds a signed
// cookie wrapping that id. Losing the server-side record (logout, expiry,
// store restart) always degrades to anonymous, never to authenticated.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"powerbi-portal/internal/pkg/jwtutil"
)

// Record is the server-side state of one authenticated session. Username is
// denormalized so "who am I" never touches the credential store.
type Record struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists session records keyed by session id.
type Store interface {
	// Save binds a record to sid for the store's configured lifetime.
	Save(ctx context.Context, sid string, record Record) error
	// Get returns the record, or (nil, nil) when sid is unknown, expired or
	// destroyed.
	Get(ctx context.Context, sid string) (*Record, error)
	// Delete destroys the session. Deleting an unknown sid is not an error.
	Delete(ctx context.Context, sid string) error
}

// Manager issues, resolves and revokes session cookies on top of a Store.
// A user may hold any number of concurrent sessions; their lifecycles are
// independent.
type Manager struct {
	store  Store
	secret string
	ttl    time.Duration
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{store: store, secret: secret, ttl: ttl}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a fresh session for the user and returns the signed cookie
// value that references it.
func (m *Manager) Issue(ctx context.Context, userID uint, username string) (string, error) {
	sid, err := newSessionID()
	if err != nil {
		return "", err
	}

	record := Record{
		UserID:    userID,
		Username:  username,
		CreatedAt: time.Now(),
	}
	if err := m.store.Save(ctx, sid, record); err != nil {
		return "", fmt.Errorf("save session failed: %w", err)
	}

	return jwtutil.GenerateToken(m.secret, m.ttl, sid)
}

// Resolve maps a cookie value to its session record. Anything short of a
// verified signature plus a live server-side record resolves to (nil, nil).
func (m *Manager) Resolve(ctx context.Context, cookieValue string) (*Record, error) {
	if cookieValue == "" {
		return nil, nil
	}
	claims, err := jwtutil.ParseToken(m.secret, cookieValue)
	if err != nil {
		return nil, nil
	}
	return m.store.Get(ctx, claims.SessionID)
}

// Revoke destroys the session behind the cookie value. Unknown, garbage and
// already-revoked cookies succeed silently so logout is always idempotent.
func (m *Manager) Revoke(ctx context.Context, cookieValue string) error {
	if cookieValue == "" {
		return nil
	}
	claims, err := jwtutil.ParseToken(m.secret, cookieValue)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.SessionID)
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
