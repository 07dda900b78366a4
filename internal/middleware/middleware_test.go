package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/ratelimit"
)

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(user.ID))
}

func TestAuthnMiddleware(t *testing.T) {
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: "s3cret", Issuer: "deep-thought", Expiry: time.Hour})
	require.NoError(t, err)

	active := &models.User{ID: "u-active", Email: "a@x.com", Role: models.RoleUser, IsActive: true}
	disabled := &models.User{ID: "u-disabled", Email: "d@x.com", Role: models.RoleUser, IsActive: false}
	ghost := &models.User{ID: "u-ghost", Email: "g@x.com", Role: models.RoleUser, IsActive: true}

	users := new(MockUserRepository)
	users.On("GetByID", mock.Anything, "u-active").Return(active, nil)
	users.On("GetByID", mock.Anything, "u-disabled").Return(disabled, nil)
	users.On("GetByID", mock.Anything, "u-ghost").Return(nil, apperrors.NotFound("user", "u-ghost"))

	mw, err := NewAuthnMiddleware(AuthnDependencies{Tokens: tokens, Users: users, Logger: zerolog.Nop()})
	require.NoError(t, err)
	handler := mw(http.HandlerFunc(echoUser))

	issue := func(u *models.User) string {
		tok, _, err := tokens.Issue(u)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid token", header: "Bearer " + issue(active), status: http.StatusOK, body: "u-active"},
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "disabled user", header: "Bearer " + issue(disabled), status: http.StatusUnauthorized},
		{name: "unknown user", header: "Bearer " + issue(ghost), status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/canvases", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthnMiddleware_RequiresDependencies(t *testing.T) {
	_, err := NewAuthnMiddleware(AuthnDependencies{})
	assert.Error(t, err)
}

func TestAdminMiddleware(t *testing.T) {
	policy, err := auth.NewDefaultRolePolicy()
	require.NoError(t, err)
	mw := NewAdminMiddleware(auth.NewEvaluator(policy))
	handler := mw(http.HandlerFunc(echoUser))

	for role, want := range map[models.Role]int{
		models.RoleAdmin:        http.StatusOK,
		models.RoleSalesManager: http.StatusForbidden,
		models.RoleUser:         http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
		req = req.WithContext(auth.SetUserContext(req.Context(), &models.User{ID: "u", Role: role}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestRateLimitMiddleware(t *testing.T) {
	s := miniredis.RunT(t)
	limiter, err := ratelimit.NewLimiter("redis://"+s.Addr(), 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })

	handler := NewRateLimitMiddleware(limiter, zerolog.Nop())(http.HandlerFunc(echoUser))

	send := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/canvases", nil)
		req = req.WithContext(auth.SetUserContext(req.Context(), &models.User{ID: userID}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("u1").Code)
	second := send("u1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := send("u1")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("u2").Code)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	handler := NewRateLimitMiddleware(failingLimiter{}, zerolog.Nop())(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/canvases", nil)
	req = req.WithContext(auth.SetUserContext(req.Context(), &models.User{ID: "u1"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
