package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(TokenConfig{Secret: "s3cret", Issuer: "deep-thought", Expiry: time.Hour})
	require.NoError(t, err)

	user := &models.User{ID: "user-1", Email: "jane@example.com", Role: models.RoleSalesManager}
	token, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "SALES_MANAGER", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer(TokenConfig{Secret: "s3cret", Issuer: "deep-thought", Expiry: time.Hour})
	require.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "jane@example.com", Role: models.RoleUser}

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenIssuer(TokenConfig{Secret: "other", Issuer: "deep-thought"})
		require.NoError(t, err)
		token, _, err := other.Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := issuer.Issue(user)
		require.NoError(t, err)
		issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { issuer.now = time.Now }()
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewTokenIssuer(TokenConfig{Secret: "s3cret", Issuer: "someone-else"})
		require.NoError(t, err)
		token, _, err := other.Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.Error(t, err)
	})
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer(TokenConfig{})
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, ok := BearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "bearer abc.def")
	token, ok := BearerToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	r.Header.Set("Authorization", "Basic Zm9v")
	_, ok = BearerToken(r)
	assert.False(t, ok)
}
