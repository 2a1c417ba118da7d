package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prodexa/internal/auth"
	"prodexa/internal/domain/storage"
	"prodexa/internal/domain/users"
	"prodexa/internal/ratelimiter"
)

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type fakeMedia struct {
	mu       sync.Mutex
	uploaded int
	deleted  []string
}

func (f *fakeMedia) Upload(_ context.Context, r io.Reader, name string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded++
	return fmt.Sprintf("https://img.test/%d-%s", f.uploaded, name), nil
}

func (f *fakeMedia) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeMedia) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeMedia) Uploaded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploaded
}

func newTestApplication(t *testing.T, cfg config) *application {
	t.Helper()

	if cfg.env == "" {
		cfg.env = "test"
	}
	return &application{
		config:        cfg,
		store:         storage.NewMemoryContainer(),
		logger:        zap.NewNop().Sugar(),
		media:         &fakeMedia{},
		authenticator: auth.NewJWTAuthenticator("test-secret", "prodexa", "prodexa", time.Hour),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, time.Minute),
	}
}

func (app *application) testMedia() *fakeMedia {
	return app.media.(*fakeMedia)
}

// testToken registers a user directly in the store and returns a bearer
// token for it.
func testToken(t *testing.T, app *application) string {
	t.Helper()

	user := &users.User{Name: "Admin", Email: fmt.Sprintf("admin-%d@example.com", time.Now().UnixNano()), Role: users.RoleCustomer}
	require.NoError(t, user.Password.Set("secret123"))
	require.NoError(t, app.store.Users.Create(context.Background(), user))

	token, err := app.authenticator.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type formFile struct {
	field   string
	name    string
	content []byte
}

func multipartRequest(t *testing.T, method, path, token string, fields map[string]string, files []formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
}

// decode reads the response envelope and, when out is not nil, its data.
func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out), string(env.Data))
	}
	return env
}

func TestHealthCheck(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()

	rr := executeRequest(httptest.NewRequest(http.MethodGet, "/api/health", nil), mux)
	require.Equal(t, http.StatusOK, rr.Code)

	var health HealthResponse
	env := decode(t, rr, &health)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Env)
}

func TestDebugVarsRequiresBasicAuth(t *testing.T) {
	app := newTestApplication(t, config{auth: authConfig{basic: basicConfig{user: "ops", pass: "pw"}}})
	mux := app.mount()

	t.Run("missing credentials", func(t *testing.T) {
		rr := executeRequest(httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil), mux)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
	})

	t.Run("wrong password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
		req.SetBasicAuth("ops", "nope")
		assert.Equal(t, http.StatusUnauthorized, executeRequest(req, mux).Code)
	})

	t.Run("valid credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
		req.SetBasicAuth("ops", "pw")
		assert.Equal(t, http.StatusOK, executeRequest(req, mux).Code)
	})
}

func TestAuthTokenMiddleware(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/api/categories", "", map[string]string{"name": "Laptops"})
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := executeRequest(req, mux)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			env := decode(t, rr, nil)
			assert.False(t, env.Success)
			assert.Equal(t, http.StatusUnauthorized, env.Status)
		})
	}

	t.Run("token for unknown user", func(t *testing.T) {
		token, err := app.authenticator.GenerateToken("ghost", users.RoleCustomer)
		require.NoError(t, err)
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Laptops"}), mux)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRegisterLoginAndMe(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/auth/register", "", RegisterUserPayload{
		Name: "Asha", Email: "  Asha@Example.com ", Password: "secret123",
	}), mux)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var registered UserWithToken
	decode(t, rr, &registered)
	assert.Equal(t, "asha@example.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)
	assert.NotContains(t, rr.Body.String(), "secret123")

	t.Run("duplicate email", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/auth/register", "", RegisterUserPayload{
			Name: "Other", Email: "asha@example.com", Password: "secret123",
		}), mux)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("short password", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/auth/register", "", RegisterUserPayload{
			Name: "Short", Email: "short@example.com", Password: "123",
		}), mux)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("login", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/auth/login", "", LoginPayload{
			Email: "ASHA@example.com", Password: "secret123",
		}), mux)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var loggedIn UserWithToken
		decode(t, rr, &loggedIn)

		me := executeRequest(jsonRequest(t, http.MethodGet, "/api/auth/me", loggedIn.Token, nil), mux)
		require.Equal(t, http.StatusOK, me.Code)
		var user users.User
		decode(t, me, &user)
		assert.Equal(t, registered.User.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/auth/login", "", LoginPayload{
			Email: "asha@example.com", Password: "wrong-password",
		}), mux)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/auth/login", "", LoginPayload{
			Email: "nobody@example.com", Password: "secret123",
		}), mux)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRateLimiterMiddleware(t *testing.T) {
	app := newTestApplication(t, config{rateLimiter: ratelimiter.Config{
		RequestsPerTimeFrame: 2,
		TimeFrame:            time.Minute,
		Enabled:              true,
	}})
	mux := app.mount()

	for i := 0; i < 2; i++ {
		rr := executeRequest(httptest.NewRequest(http.MethodGet, "/api/health", nil), mux)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := executeRequest(httptest.NewRequest(http.MethodGet, "/api/health", nil), mux)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1m0s", rr.Header().Get("Retry-After"))
	assert.True(t, strings.Contains(rr.Body.String(), "rate limit exceeded"))
}
