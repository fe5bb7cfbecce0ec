package testutil

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockModelName is the provider-qualified name MockModel registers under.
const MockModelName = "mock/flights-model"

// MockModel provides a deterministic, scripted model for agent tests.
// When invoked with a stream callback it replays the scripted chunks in
// order; with or without streaming it returns the fixed final message.
//
// Thread-safe for concurrent use.
type MockModel struct {
	mu     sync.Mutex
	chunks []*ai.ModelResponseChunk
	final  string
	calls  []ModelCall
}

// ModelCall records a single invocation of the mock model.
type ModelCall struct {
	Streamed bool // whether a stream callback was supplied
	Messages int  // number of input messages
}

// NewMockModel creates a mock that streams the given chunks and answers
// with final.
func NewMockModel(final string, chunks ...*ai.ModelResponseChunk) *MockModel {
	return &MockModel{final: final, chunks: chunks}
}

// Calls returns a copy of all recorded invocations.
func (m *MockModel) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ModelCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Register registers the mock as a Genkit model and returns a reference.
func (m *MockModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, MockModelName, &ai.ModelOptions{
		Label: "Mock Flights Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
		},
	}, m.generate)
}

// generate is the Genkit model function.
func (m *MockModel) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ModelCall{
		Streamed: cb != nil,
		Messages: len(req.Messages),
	})
	m.mu.Unlock()

	if cb != nil {
		for _, chunk := range m.chunks {
			if err := cb(ctx, chunk); err != nil {
				return nil, err
			}
		}
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: []*ai.Part{ai.NewTextPart(m.final)},
		},
	}, nil
}
