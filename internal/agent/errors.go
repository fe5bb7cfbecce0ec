package agent

import "errors"

// Sentinel errors for agent operations.
// Only errors that are checked with errors.Is() are defined here.
var (
	// ErrEmptyResponse indicates the model produced no messages at all.
	// A response with no assistant message is NOT an error: the pipeline
	// falls back to the structurally last message.
	ErrEmptyResponse = errors.New("model returned no messages")

	// ErrExecutionFailed wraps any failure of the underlying model
	// invocation, distinguishing it from build and normalization errors.
	ErrExecutionFailed = errors.New("execution failed")
)
