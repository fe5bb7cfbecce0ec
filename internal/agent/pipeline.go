package agent

import (
	"context"

	"github.com/firebase/genkit/go/ai"

	"github.com/koopa0/flightgpt/internal/log"
)

// Pipeline drives one non-streaming request/response cycle: normalize the
// client messages, build a fresh agent, invoke it with the full history, and
// serialize the final assistant message back to plain text.
type Pipeline struct {
	builder *Builder
	logger  log.Logger
}

// NewPipeline creates a Pipeline around the given Builder.
func NewPipeline(builder *Builder, logger log.Logger) *Pipeline {
	return &Pipeline{builder: builder, logger: logger}
}

// Invoke runs one chat turn. The MCP connection is released on every exit
// path. On failure the returned error carries the cause; nothing is persisted
// by this layer.
func (p *Pipeline) Invoke(ctx context.Context, messages []ChatMessage) (string, error) {
	msgs := NormalizeMessages(messages)

	agent, err := p.builder.Build(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := agent.Close(); cerr != nil {
			p.logger.Warn("closing flights MCP connection", "error", cerr)
		}
	}()

	resp, err := agent.Generate(ctx, msgs, nil)
	if err != nil {
		return "", err
	}

	final, err := lastAssistantMessage(resp.History())
	if err != nil {
		return "", err
	}

	return ContentToString(final.Content), nil
}

// lastAssistantMessage selects the last model-role message, scanning from the
// end. When the history contains no assistant message at all it falls back to
// the structurally last message; only a fully empty history is an error.
func lastAssistantMessage(history []*ai.Message) (*ai.Message, error) {
	if len(history) == 0 {
		return nil, ErrEmptyResponse
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == ai.RoleModel {
			return history[i], nil
		}
	}
	return history[len(history)-1], nil
}
