package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_DefaultExpiration(t *testing.T) {
	cfg := Defaults()
	cfg.JWTSecret = "test-secret-key"

	jwt, err := cfg.JWT()
	require.NoError(t, err)
	require.NotNil(t, jwt)
	assert.Equal(t, "test-secret-key", jwt.Secret)
	assert.Equal(t, 24, jwt.ExpirationHours, "should use default expiration of 24 hours")
}

func TestJWT_CustomExpiration(t *testing.T) {
	t.Setenv("RECRUIT_JWT_SECRET", "env-secret")
	t.Setenv("RECRUIT_JWT_EXPIRATION_HOURS", "48")

	cfg, err := Load("")
	require.NoError(t, err)

	jwt, err := cfg.JWT()
	require.NoError(t, err)
	assert.Equal(t, "env-secret", jwt.Secret)
	assert.Equal(t, 48, jwt.ExpirationHours)
}

func TestJWT_MissingSecret(t *testing.T) {
	cfg := Defaults()

	jwt, err := cfg.JWT()
	assert.Error(t, err)
	assert.Nil(t, jwt)
	assert.Contains(t, err.Error(), "RECRUIT_JWT_SECRET is required")
}

func TestJWT_InvalidExpiration(t *testing.T) {
	cfg := Defaults()
	cfg.JWTSecret = "test-secret-key"
	cfg.JWTExpirationHrs = 0

	_, err := cfg.JWT()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be at least 1 hour")
}
