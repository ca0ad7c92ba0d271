package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/membergate/auth-service/internal/middlewares"
	"github.com/membergate/auth-service/internal/models"
	"github.com/membergate/auth-service/internal/repositories"
	"github.com/membergate/auth-service/internal/services"
	"github.com/membergate/auth-service/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeUserRepo is an in-memory user repository for handler-level tests
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	byName map[string]*models.User
	byID   map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byName: make(map[string]*models.User),
		byID:   make(map[int]*models.User),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[user.Username]; ok {
		return repositories.ErrDuplicateUsername
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.byName[user.Username] = &stored
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byName[username]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, userID int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[userID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byName[username]
	return ok, nil
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byName)
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	repo   *fakeUserRepo
	mr     *miniredis.Miniredis
}

const testSessionMaxAge = 24 * time.Hour

// setupTestEnv wires the full router the way main does, with miniredis
// behind the session store and an in-memory user repository
func setupTestEnv(t *testing.T, adminSignupEnabled bool) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	store := session.NewStore(client, "session", logger)
	manager := session.NewManager(store, []byte("0123456789abcdef0123456789abcdef"), testSessionMaxAge, logger)

	repo := newFakeUserRepo()
	authService := services.NewAuthService(repo, logger, adminSignupEnabled)
	profileService := services.NewProfileService(repo)

	authHandler := NewAuthHandler(authService, logger)
	profileHandler := NewProfileHandler(profileService, logger)
	adminHandler := NewAdminHandler(logger)

	r := chi.NewRouter()
	r.Use(manager.LoadAndSave)
	authHandler.RegisterRoutes(r)
	profileHandler.RegisterRoutes(r, middlewares.RequireRole(middlewares.LevelAuthenticated, repo, logger))
	adminHandler.RegisterRoutes(r, middlewares.RequireRole(middlewares.LevelAdmin, repo, logger))

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server: server,
		client: &http.Client{Jar: jar},
		repo:   repo,
		mr:     mr,
	}
}

func (e *testEnv) post(t *testing.T, path string, body any) (*http.Response, string) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := e.client.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func (e *testEnv) register(t *testing.T, username, password, role string) {
	t.Helper()
	resp, _ := e.post(t, "/register", models.RegisterRequest{Username: username, Password: password, Role: role})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (e *testEnv) login(t *testing.T, username, password string) {
	t.Helper()
	resp, _ := e.post(t, "/login", models.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	t.Run("creates user with default role", func(t *testing.T) {
		env := setupTestEnv(t, false)

		resp, body := env.post(t, "/register", models.RegisterRequest{Username: "alice", Password: "Password123"})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.JSONEq(t, `{"id":1,"username":"alice","role":"user"}`, body)

		stored, err := env.repo.GetByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, stored.Role)
	})

	t.Run("creates admin when admin signup is enabled", func(t *testing.T) {
		env := setupTestEnv(t, true)

		resp, body := env.post(t, "/register", models.RegisterRequest{Username: "root", Password: "Password123", Role: "admin"})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.JSONEq(t, `{"id":1,"username":"root","role":"admin"}`, body)

		stored, err := env.repo.GetByUsername(context.Background(), "root")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, stored.Role)
	})

	t.Run("rejects self-assigned admin by default", func(t *testing.T) {
		env := setupTestEnv(t, false)

		resp, _ := env.post(t, "/register", models.RegisterRequest{Username: "root", Password: "Password123", Role: "admin"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, 0, env.repo.count())
	})

	t.Run("duplicate username yields 400 and keeps one record", func(t *testing.T) {
		env := setupTestEnv(t, false)

		env.register(t, "alice", "Password123", "")

		resp, body := env.post(t, "/register", models.RegisterRequest{Username: "alice", Password: "Password456"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error":"registration failed"}`, body)
		assert.Equal(t, 1, env.repo.count())
	})

	t.Run("response never carries the password", func(t *testing.T) {
		env := setupTestEnv(t, false)

		_, body := env.post(t, "/register", models.RegisterRequest{Username: "alice", Password: "Password123"})

		assert.NotContains(t, body, "Password123")
		assert.NotContains(t, body, "password")
	})
}

func TestLogin(t *testing.T) {
	t.Run("correct credentials establish a session", func(t *testing.T) {
		env := setupTestEnv(t, false)
		env.register(t, "alice", "Password123", "")

		resp, body := env.post(t, "/login", models.LoginRequest{Username: "alice", Password: "Password123"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"message":"login successful"}`, body)

		// The session now authenticates follow-up requests
		profileResp, profileBody := env.get(t, "/profile")
		assert.Equal(t, http.StatusOK, profileResp.StatusCode)
		assert.Contains(t, profileBody, `"alice"`)
	})

	t.Run("unknown username and wrong password are indistinguishable", func(t *testing.T) {
		env := setupTestEnv(t, false)
		env.register(t, "alice", "Password123", "")

		unknownResp, unknownBody := env.post(t, "/login", models.LoginRequest{Username: "nobody", Password: "Password123"})
		wrongResp, wrongBody := env.post(t, "/login", models.LoginRequest{Username: "alice", Password: "Wrong12345"})

		assert.Equal(t, http.StatusUnauthorized, unknownResp.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, wrongResp.StatusCode)
		assert.Equal(t, unknownBody, wrongBody)
	})
}

func TestProfile(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		env := setupTestEnv(t, false)

		resp, _ := env.get(t, "/profile")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("returns the logged-in user's record", func(t *testing.T) {
		env := setupTestEnv(t, false)
		env.register(t, "alice", "Password123", "")
		env.login(t, "alice", "Password123")

		resp, body := env.get(t, "/profile")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"id":1,"username":"alice","role":"user"}`, body)
	})

	t.Run("404 when the user behind the session is gone", func(t *testing.T) {
		env := setupTestEnv(t, false)
		env.register(t, "alice", "Password123", "")
		env.login(t, "alice", "Password123")

		// Remove the user out from under the live session
		env.repo.mu.Lock()
		delete(env.repo.byName, "alice")
		delete(env.repo.byID, 1)
		env.repo.mu.Unlock()

		resp, _ := env.get(t, "/profile")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAdminDashboard(t *testing.T) {
	t.Run("401 without a session", func(t *testing.T) {
		env := setupTestEnv(t, true)

		resp, _ := env.get(t, "/admin")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("403 for a user-role session", func(t *testing.T) {
		env := setupTestEnv(t, true)
		env.register(t, "alice", "Password123", "")
		env.login(t, "alice", "Password123")

		resp, _ := env.get(t, "/admin")

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("200 for an admin-role session", func(t *testing.T) {
		env := setupTestEnv(t, true)
		env.register(t, "root", "Password123", "admin")
		env.login(t, "root", "Password123")

		resp, body := env.get(t, "/admin")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"message":"welcome to the admin dashboard"}`, body)
	})
}

func TestSessionLifecycle(t *testing.T) {
	t.Run("session persists across sequential requests", func(t *testing.T) {
		env := setupTestEnv(t, false)
		env.register(t, "alice", "Password123", "")
		env.login(t, "alice", "Password123")

		for range 2 {
			resp, _ := env.get(t, "/profile")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	})

	t.Run("session is gone once maxAge has elapsed", func(t *testing.T) {
		env := setupTestEnv(t, false)
		env.register(t, "alice", "Password123", "")
		env.login(t, "alice", "Password123")

		env.mr.FastForward(testSessionMaxAge + time.Minute)

		resp, _ := env.get(t, "/profile")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("logout destroys the session", func(t *testing.T) {
		env := setupTestEnv(t, false)
		env.register(t, "alice", "Password123", "")
		env.login(t, "alice", "Password123")

		resp, body := env.post(t, "/logout", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"message":"logout successful"}`, body)
		assert.Empty(t, env.mr.Keys())

		profileResp, _ := env.get(t, "/profile")
		assert.Equal(t, http.StatusUnauthorized, profileResp.StatusCode)
	})
}
