package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_DirtyTracking(t *testing.T) {
	s := New()

	assert.False(t, s.Dirty())
	assert.True(t, s.Empty())

	s.Set("theme", "dark")
	assert.True(t, s.Dirty())
	assert.False(t, s.Empty())

	v, ok := s.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestSession_DeleteMissingKeyStaysClean(t *testing.T) {
	s := New()

	s.Delete("missing")

	assert.False(t, s.Dirty())
}

func TestSession_Clear(t *testing.T) {
	s := newSession("abc", map[string]any{"userID": 42})

	s.Clear()

	assert.True(t, s.Dirty())
	assert.True(t, s.Empty())
}

func TestSession_UserID(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		s := New()
		_, ok := s.UserID()
		assert.False(t, ok)
	})

	t.Run("set in this request", func(t *testing.T) {
		s := New()
		s.SetUserID(42)
		id, ok := s.UserID()
		assert.True(t, ok)
		assert.Equal(t, 42, id)
	})

	t.Run("restored from JSON as float64", func(t *testing.T) {
		s := newSession("abc", map[string]any{"userID": float64(42)})
		id, ok := s.UserID()
		assert.True(t, ok)
		assert.Equal(t, 42, id)
	})

	t.Run("non-numeric value", func(t *testing.T) {
		s := newSession("abc", map[string]any{"userID": "42"})
		_, ok := s.UserID()
		assert.False(t, ok)
	})
}
