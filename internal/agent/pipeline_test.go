package agent

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/flightgpt/internal/log"
	"github.com/koopa0/flightgpt/internal/testutil"
)

func TestPipeline_Invoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newFlightsTestServer(t)
	g := genkit.Init(ctx)

	mock := testutil.NewMockModel("Direct flights start at $510.")
	mock.Register(g)

	builder, err := NewBuilder(Config{
		Genkit:        g,
		Logger:        log.NewNop(),
		FlightsMCPURL: ts.URL,
		ModelName:     testutil.MockModelName,
	})
	require.NoError(t, err)

	p := NewPipeline(builder, log.NewNop())
	got, err := p.Invoke(ctx, []ChatMessage{
		{Role: RoleUser, Content: raw(`"nonstop SFO to DEL"`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Direct flights start at $510.", got)

	// Exactly one model invocation, non-streaming.
	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Streamed)
}

func TestPipeline_Invoke_BuildFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := genkit.Init(ctx)

	builder, err := NewBuilder(Config{
		Genkit:        g,
		Logger:        log.NewNop(),
		FlightsMCPURL: "http://127.0.0.1:1/mcp",
		ModelName:     testutil.MockModelName,
	})
	require.NoError(t, err)

	p := NewPipeline(builder, log.NewNop())
	_, err = p.Invoke(ctx, []ChatMessage{
		{Role: RoleUser, Content: raw(`"hi"`)},
	})
	assert.Error(t, err)
}

func TestLastAssistantMessage(t *testing.T) {
	t.Parallel()

	model := func(text string) *ai.Message {
		return &ai.Message{Role: ai.RoleModel, Content: []*ai.Part{ai.NewTextPart(text)}}
	}
	user := func(text string) *ai.Message {
		return &ai.Message{Role: ai.RoleUser, Content: []*ai.Part{ai.NewTextPart(text)}}
	}
	tool := func(text string) *ai.Message {
		return &ai.Message{Role: ai.RoleTool, Content: []*ai.Part{ai.NewTextPart(text)}}
	}

	t.Run("picks last model message", func(t *testing.T) {
		t.Parallel()
		got, err := lastAssistantMessage([]*ai.Message{
			user("q1"), model("a1"), user("q2"), model("a2"),
		})
		require.NoError(t, err)
		assert.Equal(t, "a2", ContentToString(got.Content))
	})

	t.Run("skips trailing non-model messages", func(t *testing.T) {
		t.Parallel()
		got, err := lastAssistantMessage([]*ai.Message{
			user("q"), model("a"), tool("result"),
		})
		require.NoError(t, err)
		assert.Equal(t, "a", ContentToString(got.Content))
	})

	t.Run("falls back to structurally last without model messages", func(t *testing.T) {
		t.Parallel()
		got, err := lastAssistantMessage([]*ai.Message{
			user("q"), tool("result"),
		})
		require.NoError(t, err)
		assert.Equal(t, ai.RoleTool, got.Role)
		assert.Equal(t, "result", ContentToString(got.Content))
	})

	t.Run("empty history is an error", func(t *testing.T) {
		t.Parallel()
		_, err := lastAssistantMessage(nil)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}
