package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a config that passes Validate().
func validConfig() *Config {
	return &Config{
		ModelName:        DefaultModelName,
		BaseURL:          DefaultBaseURL,
		Temperature:      DefaultTemperature,
		MaxTurns:         DefaultMaxTurns,
		Addr:             "127.0.0.1:3400",
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "flightgpt",
		PostgresPassword: "secret-password",
		PostgresDBName:   "flightgpt",
		PostgresSSLMode:  "disable",
	}
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	t.Run("empty stays empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", maskSecret(""))
	})

	t.Run("short secrets are fully masked", func(t *testing.T) {
		t.Parallel()
		masked := maskSecret("12345678")
		assert.Equal(t, maskedValue, masked)
		assert.NotContains(t, masked, "1234")
	})

	t.Run("long secrets keep edges only", func(t *testing.T) {
		t.Parallel()
		secret := "sk-or-v1-abcdef123456"
		masked := maskSecret(secret)
		assert.True(t, strings.HasPrefix(masked, "sk"))
		assert.True(t, strings.HasSuffix(masked, "56"))
		assert.NotContains(t, masked, "abcdef")
	})
}

func TestConfig_MarshalJSON_MasksSecrets(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.APIKey = "sk-or-v1-supersecretkey"
	cfg.PostgresPassword = "hunter2hunter2"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	s := string(data)
	assert.NotContains(t, s, "supersecret")
	assert.NotContains(t, s, "hunter2hunter2")
	assert.Contains(t, s, maskedValue)

	// Non-sensitive fields survive intact.
	assert.Contains(t, s, DefaultModelName)
}

func TestConfig_String_MasksSecrets(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.APIKey = "sk-or-v1-supersecretkey"

	assert.NotContains(t, cfg.String(), "supersecret")
}

func TestConfig_FullModelName(t *testing.T) {
	t.Parallel()

	t.Run("adds provider prefix", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{ModelName: "z-ai/glm-4.5-air:free"}
		assert.Equal(t, "openrouter/z-ai/glm-4.5-air:free", cfg.FullModelName())
	})

	t.Run("already qualified name is unchanged", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{ModelName: "openrouter/z-ai/glm-4.5-air:free"}
		assert.Equal(t, "openrouter/z-ai/glm-4.5-air:free", cfg.FullModelName())
	})
}
