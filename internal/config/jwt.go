package config

import (
	"fmt"
)

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// JWT returns the admin token configuration. The secret is required.
func (c *Config) JWT() (*JWTConfig, error) {
	jwt := &JWTConfig{
		Secret:          c.JWTSecret,
		ExpirationHours: c.JWTExpirationHrs,
	}
	if err := jwt.normalize(); err != nil {
		return nil, err
	}
	return jwt, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("%sJWT_SECRET is required but not set", EnvPrefix)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("%sJWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", EnvPrefix, c.ExpirationHours)
	}
	return nil
}
