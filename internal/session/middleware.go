package session

import (
	"bytes"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// CookieName is the name of the signed session-identifier cookie
const CookieName = "session_id"

// Manager resolves the session cookie on the way in and commits the session
// on the way out. The session ID travels in a tamper-evident cookie signed
// with HMAC (gorilla/securecookie); the payload itself never leaves the
// server.
type Manager struct {
	store  *Store
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	logger *zap.Logger
}

// NewManager creates a session manager. secret is the HMAC signing key,
// maxAge bounds both the cookie lifetime and the store TTL.
func NewManager(store *Store, secret []byte, maxAge time.Duration, logger *zap.Logger) *Manager {
	codec := securecookie.New(secret, nil) // signing only, payload stays server-side
	codec.MaxAge(int(maxAge.Seconds()))

	return &Manager{
		store:  store,
		codec:  codec,
		maxAge: maxAge,
		logger: logger,
	}
}

// LoadAndSave resolves the incoming session, exposes it through the request
// context, and persists it after the downstream pipeline completes.
//
// The response is buffered so the Set-Cookie header can still be written
// after the handler has run. An untouched or still-empty payload is never
// persisted and issues no cookie; a payload cleared by a handler deletes the
// stored record and expires the cookie.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.resolve(r)

		bw := &bufferedWriter{header: make(http.Header)}
		next.ServeHTTP(bw, r.WithContext(NewContext(r.Context(), sess)))

		if err := m.commit(w, r, sess); err != nil {
			// The buffered response is stale once persistence fails;
			// this request degrades to a 500, others are unaffected.
			m.logger.Error("failed to persist session", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"internal server error"}`))
			return
		}

		bw.flush(w)
	})
}

// resolve decodes the session cookie and loads the stored record. Any
// failure (missing cookie, bad signature, expired or missing record) falls
// back to a fresh, uncommitted session.
func (m *Manager) resolve(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return newSession("", nil)
	}

	var id string
	if err := m.codec.Decode(CookieName, cookie.Value, &id); err != nil {
		m.logger.Debug("rejected session cookie", zap.Error(err))
		return newSession("", nil)
	}

	rec, err := m.store.Load(r.Context(), id)
	if err != nil {
		if err != ErrSessionNotFound {
			m.logger.Error("failed to load session", zap.Error(err), zap.String("sessionId", id))
		}
		return newSession("", nil)
	}

	return newSession(id, rec.Values)
}

// commit persists a mutated session and sets or expires the cookie
func (m *Manager) commit(w http.ResponseWriter, r *http.Request, sess *Session) error {
	if !sess.Dirty() {
		return nil
	}

	if sess.Empty() {
		// Cleared session: drop the record and tell the client to forget the cookie
		if sess.id == "" {
			return nil
		}
		if err := m.store.Delete(r.Context(), sess.id); err != nil {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}

	if sess.id == "" {
		sess.id = uuid.New().String()
	}

	now := time.Now()
	rec := &Record{
		Values:    sess.values,
		CreatedAt: now,
		ExpiresAt: now.Add(m.maxAge),
	}
	if err := m.store.Save(r.Context(), sess.id, rec, m.maxAge); err != nil {
		return err
	}

	encoded, err := m.codec.Encode(CookieName, sess.id)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// bufferedWriter delays the response until the session has been committed,
// so Set-Cookie can be added after the handler returns
type bufferedWriter struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func (bw *bufferedWriter) Header() http.Header {
	return bw.header
}

func (bw *bufferedWriter) WriteHeader(code int) {
	if bw.statusCode == 0 {
		bw.statusCode = code
	}
}

func (bw *bufferedWriter) Write(p []byte) (int, error) {
	if bw.statusCode == 0 {
		bw.statusCode = http.StatusOK
	}
	return bw.body.Write(p)
}

func (bw *bufferedWriter) flush(w http.ResponseWriter) {
	for k, values := range bw.header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	if bw.statusCode == 0 {
		bw.statusCode = http.StatusOK
	}
	w.WriteHeader(bw.statusCode)
	w.Write(bw.body.Bytes())
}
