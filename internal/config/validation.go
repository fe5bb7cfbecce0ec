package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validSSLModes are the PostgreSQL SSL modes accepted by pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks configuration values common to all modes.
// Returns a sentinel error (wrapped with detail) on the first violation.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be between 0 and 2)", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTurns < 1 || c.MaxTurns > 20 {
		return fmt.Errorf("%w: %d (must be between 1 and 20)", ErrInvalidMaxTurns, c.MaxTurns)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (must be between 1 and 65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}

	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}

// ValidateServe checks configuration required to serve chat requests.
// The API key and flights MCP URL are only needed once an agent is built,
// so they are not part of the base Validate().
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: set OPENROUTER_API_KEY", ErrMissingAPIKey)
	}

	if strings.TrimSpace(c.FlightsMCPURL) == "" {
		return fmt.Errorf("%w: set FLIGHTS_MCP_URL", ErrMissingFlightsMCPURL)
	}

	if _, err := url.ParseRequestURI(c.FlightsMCPURL); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingFlightsMCPURL, err)
	}

	return nil
}
