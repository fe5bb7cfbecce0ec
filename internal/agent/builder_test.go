package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/flightgpt/internal/log"
)

type searchFlightsInput struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Month       string `json:"month,omitempty"`
}

// newFlightsTestServer runs an in-process flights MCP server over the
// streamable HTTP transport, mirroring what the real tool server exposes.
func newFlightsTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "flights",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_flights",
		Description: "Search one-way and round-trip flights.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input searchFlightsInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: `{"flights":[]}`}},
		}, nil, nil
	})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestNewBuilder_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := genkit.Init(ctx)

	valid := Config{
		Genkit:        g,
		Logger:        log.NewNop(),
		FlightsMCPURL: "http://localhost:8080/mcp",
		ModelName:     "openrouter/test-model",
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		b, err := NewBuilder(valid)
		require.NoError(t, err)
		assert.NotNil(t, b)
		assert.Equal(t, 5, b.maxTurns)
	})

	t.Run("missing genkit", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.Genkit = nil
		_, err := NewBuilder(cfg)
		assert.ErrorContains(t, err, "genkit")
	})

	t.Run("missing logger", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.Logger = nil
		_, err := NewBuilder(cfg)
		assert.ErrorContains(t, err, "logger")
	})

	t.Run("missing MCP URL", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.FlightsMCPURL = ""
		_, err := NewBuilder(cfg)
		assert.ErrorContains(t, err, "MCP URL")
	})

	t.Run("missing model name", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.ModelName = ""
		_, err := NewBuilder(cfg)
		assert.ErrorContains(t, err, "model name")
	})

	t.Run("explicit max turns kept", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.MaxTurns = 8
		b, err := NewBuilder(cfg)
		require.NoError(t, err)
		assert.Equal(t, 8, b.maxTurns)
	})
}

func TestBuilder_Build_DiscoversTools(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newFlightsTestServer(t)
	g := genkit.Init(ctx)

	builder, err := NewBuilder(Config{
		Genkit:        g,
		Logger:        log.NewNop(),
		FlightsMCPURL: ts.URL,
		ModelName:     "openrouter/test-model",
	})
	require.NoError(t, err)

	agent, err := builder.Build(ctx)
	require.NoError(t, err)
	defer agent.Close()

	assert.Contains(t, agent.ToolNames(), "search_flights")
}

func TestBuilder_Build_UnreachableServer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := genkit.Init(ctx)

	builder, err := NewBuilder(Config{
		Genkit:        g,
		Logger:        log.NewNop(),
		FlightsMCPURL: "http://127.0.0.1:1/mcp",
		ModelName:     "openrouter/test-model",
	})
	require.NoError(t, err)

	_, err = builder.Build(ctx)
	assert.Error(t, err)
}

func TestAgent_CloseIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newFlightsTestServer(t)
	g := genkit.Init(ctx)

	builder, err := NewBuilder(Config{
		Genkit:        g,
		Logger:        log.NewNop(),
		FlightsMCPURL: ts.URL,
		ModelName:     "openrouter/test-model",
	})
	require.NoError(t, err)

	agent, err := builder.Build(ctx)
	require.NoError(t, err)

	first := agent.Close()
	second := agent.Close()
	assert.Equal(t, first, second)
}
