package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-grader/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          testSecret,
		ExpirationHours: expirationHours,
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, err := service.GenerateToken("admin-1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3, "JWT should have 3 parts separated by dots")

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", string(claims.ActorID))
	assert.Equal(t, "admin-1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_GenerateToken_EmptyActor(t *testing.T) {
	_, err := setupTestJWTService(t, 24).GenerateToken("")
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	service := setupTestJWTService(t, 1)
	service.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := service.GenerateToken("admin-1")
	require.NoError(t, err)

	service.now = time.Now
	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestJWTService_ValidateToken_WrongSecret(t *testing.T) {
	token, err := setupTestJWTService(t, 24).GenerateToken("admin-1")
	require.NoError(t, err)

	other := NewJWTService(&config.JWTConfig{Secret: "another-secret-of-reasonable-length!!", ExpirationHours: 24})
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token signature")
}

func TestJWTService_ValidateToken_Malformed(t *testing.T) {
	service := setupTestJWTService(t, 24)

	_, err := service.ValidateToken("")
	assert.Error(t, err)

	_, err = service.ValidateToken("not.a.jwt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed token")
}

func TestJWTService_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{ActorID: "admin-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = setupTestJWTService(t, 24).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 24)
	token, err := service.GenerateToken("admin-9")
	require.NoError(t, err)

	got, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-9", string(got.GetActorID()))

	_, err = service.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}
