// Package session provides the Redis-backed session store, the session
// model, and the middleware that loads and persists sessions around each
// request.
package session

import (
	"context"
	"time"
)

// userIDKey is the payload key under which a login stores the user ID
const userIDKey = "userID"

// Record is the persisted form of a session: the payload plus metadata.
// The store serializes it as JSON under the session ID key.
type Record struct {
	Values    map[string]any `json:"values"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Session is the per-request view of a session payload. It starts empty and
// uncommitted for first-contact requests; the middleware persists it only if
// a handler mutated it.
type Session struct {
	id     string
	values map[string]any
	dirty  bool
}

// New returns an empty, uncommitted session
func New() *Session {
	return newSession("", nil)
}

func newSession(id string, values map[string]any) *Session {
	if values == nil {
		values = make(map[string]any)
	}
	return &Session{id: id, values: values}
}

// ID returns the session identifier, empty until the session is first persisted
func (s *Session) ID() string {
	return s.id
}

// Get returns the payload value stored under key
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores a payload value and marks the session dirty
func (s *Session) Set(key string, value any) {
	s.values[key] = value
	s.dirty = true
}

// Delete removes a payload value and marks the session dirty
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Clear empties the payload and marks the session dirty. The middleware
// turns a cleared session into store deletion and cookie expiry.
func (s *Session) Clear() {
	s.values = make(map[string]any)
	s.dirty = true
}

// Empty reports whether the payload holds no values
func (s *Session) Empty() bool {
	return len(s.values) == 0
}

// Dirty reports whether a handler mutated the payload during this request
func (s *Session) Dirty() bool {
	return s.dirty
}

// SetUserID stores the authenticated user's ID in the payload
func (s *Session) SetUserID(userID int) {
	s.Set(userIDKey, userID)
}

// UserID returns the authenticated user's ID from the payload. The value
// round-trips through JSON, so it may come back as float64.
func (s *Session) UserID() (int, bool) {
	v, ok := s.values[userIDKey]
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case int:
		return id, true
	case float64:
		return int(id), true
	default:
		return 0, false
	}
}

type contextKey struct{}

var sessionContextKey contextKey

// NewContext returns a context carrying the session
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext retrieves the session placed in the context by the middleware
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok
}
