package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/mcp"

	"github.com/koopa0/flightgpt/internal/log"
)

// FlightsServerName is the MCP client name used for the flights tool server.
const FlightsServerName = "flights"

// Config contains all required parameters for a Builder.
type Config struct {
	Genkit        *genkit.Genkit
	Logger        log.Logger
	FlightsMCPURL string // Streamable HTTP endpoint of the flights MCP server

	ModelName   string  // Provider-qualified Genkit model name
	Temperature float64 // Sampling temperature
	MaxTurns    int     // Maximum agentic loop turns (default 5)
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.FlightsMCPURL == "" {
		return errors.New("flights MCP URL is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Builder constructs per-request agents. The Genkit instance and model
// configuration are long-lived; the MCP connection and the discovered tool
// set are not, so each Build opens a fresh connection and each Agent must be
// closed by the caller.
type Builder struct {
	g           *genkit.Genkit
	logger      log.Logger
	mcpURL      string
	modelName   string
	temperature float64
	maxTurns    int
}

// NewBuilder creates a Builder with required configuration.
func NewBuilder(cfg Config) (*Builder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	return &Builder{
		g:           cfg.Genkit,
		logger:      cfg.Logger,
		mcpURL:      cfg.FlightsMCPURL,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		maxTurns:    maxTurns,
	}, nil
}

// Build constructs a fresh agent: it connects to the flights MCP server,
// discovers the currently exposed tools, and binds them to the model together
// with the fixed system instruction.
//
// Fail-fast: if the connection or tool discovery fails, no agent is returned.
// An agent without its advertised tools would silently violate its own system
// instructions.
func (b *Builder) Build(ctx context.Context) (*Agent, error) {
	client, err := mcp.NewGenkitMCPClient(mcp.MCPClientOptions{
		Name:    FlightsServerName,
		Version: "1.0.0",
		StreamableHTTP: &mcp.StreamableHTTPConfig{
			BaseURL: b.mcpURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to flights MCP server: %w", err)
	}

	tools, err := client.GetActiveTools(ctx, b.g)
	if err != nil {
		if derr := client.Disconnect(); derr != nil {
			b.logger.Warn("disconnecting after failed tool discovery", "error", derr)
		}
		return nil, fmt.Errorf("discovering flight tools: %w", err)
	}

	toolRefs := make([]ai.ToolRef, len(tools))
	names := make([]string, len(tools))
	for i, t := range tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	b.logger.Debug("built flight agent",
		"tools", strings.Join(names, ", "),
		"model", b.modelName,
	)

	return &Agent{
		g:           b.g,
		client:      client,
		logger:      b.logger,
		modelName:   b.modelName,
		temperature: b.temperature,
		maxTurns:    b.maxTurns,
		toolRefs:    toolRefs,
		toolNames:   names,
	}, nil
}

// StreamCallback is called for each chunk of a streaming response.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Agent is one tool-bound conversational agent instance. It is built per
// request and must be closed to release the MCP connection. Agents are not
// shared across requests: the tool set is whatever the flights server exposed
// at Build time.
type Agent struct {
	g           *genkit.Genkit
	client      *mcp.GenkitMCPClient
	logger      log.Logger
	modelName   string
	temperature float64
	maxTurns    int
	toolRefs    []ai.ToolRef
	toolNames   []string

	closeOnce sync.Once
	closeErr  error
}

// ToolNames returns the names of the tools discovered at Build time.
func (a *Agent) ToolNames() []string {
	out := make([]string, len(a.toolNames))
	copy(out, a.toolNames)
	return out
}

// Generate runs one model invocation over the full message history with the
// discovered tools bound and auto tool choice. If callback is non-nil the
// model streams and callback is invoked per chunk; the final response is
// returned either way.
func (a *Agent) Generate(ctx context.Context, messages []*ai.Message, callback StreamCallback) (*ai.ModelResponse, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(a.modelName),
		ai.WithSystem(SystemPrompt),
		ai.WithMessages(messages...),
		ai.WithTools(a.toolRefs...),
		ai.WithToolChoice(ai.ToolChoiceAuto),
		ai.WithMaxTurns(a.maxTurns),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature: a.temperature,
		}),
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(callback)))
	}

	resp, err := genkit.Generate(ctx, a.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}
	return resp, nil
}

// Close releases the MCP connection. Safe to call multiple times; the
// disconnect happens exactly once and later calls return the same result.
func (a *Agent) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.client.Disconnect()
	})
	return a.closeErr
}
