package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPrompt_FlightChoiceFields(t *testing.T) {
	t.Parallel()

	// The prompt text and the structured field list must not drift apart.
	for _, field := range FlightChoiceFields {
		assert.Contains(t, SystemPrompt, field, "flight_choices field %q missing from prompt", field)
	}
	assert.Contains(t, SystemPrompt, "flight_choices")
}

func TestSystemPrompt_Policy(t *testing.T) {
	t.Parallel()

	assert.Contains(t, SystemPrompt, "FlightGPT")
	assert.Contains(t, SystemPrompt, `tool server named "flights"`)
	assert.Contains(t, SystemPrompt, "at most one")
	assert.Contains(t, SystemPrompt, "Do not guess prices")
	assert.False(t, strings.HasPrefix(SystemPrompt, " "), "prompt should not start with whitespace")
}
