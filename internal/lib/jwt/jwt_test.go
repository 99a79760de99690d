package jwt_test

import (
	"regexp"
	"testing"
	"time"

	jwtlib "account_service/internal/lib/jwt"
	"account_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testUser() models.User {
	return models.User{
		ID:    42,
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  "admin",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := jwtlib.NewAccessToken(testUser(), testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := jwtlib.ParseAccessToken(token, testSecret)
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	token, err := jwtlib.NewAccessToken(testUser(), testSecret, time.Hour)
	require.NoError(t, err)

	_, err = jwtlib.ParseAccessToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	token, err := jwtlib.NewAccessToken(testUser(), testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = jwtlib.ParseAccessToken(token, testSecret)
	assert.Error(t, err)
}

func TestPeekExpiry(t *testing.T) {
	ttl := time.Hour

	token, err := jwtlib.NewAccessToken(testUser(), testSecret, ttl)
	require.NoError(t, err)

	expiresAt, err := jwtlib.PeekExpiry(token)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(ttl), expiresAt, 5*time.Second)
}

func TestPeekExpiryMalformed(t *testing.T) {
	_, err := jwtlib.PeekExpiry("not-a-jwt")
	assert.Error(t, err)
}

func TestNewRefreshTokenIsRandomHex(t *testing.T) {
	a, err := jwtlib.NewRefreshToken()
	require.NoError(t, err)

	b, err := jwtlib.NewRefreshToken()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), a)
	assert.NotEqual(t, a, b)
}
