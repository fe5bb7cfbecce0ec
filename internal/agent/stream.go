package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/koopa0/flightgpt/internal/log"
)

// StepType classifies one step of the agent's execution trace.
type StepType string

// Step types emitted during one streaming invocation.
const (
	StepThinking   StepType = "thinking"
	StepToolCall   StepType = "tool_call"
	StepToolResult StepType = "tool_result"
	StepResponse   StepType = "response"
	StepDone       StepType = "done"
	StepError      StepType = "error"
)

// ToolCall describes one pending tool invocation in a tool_call step.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

// StreamStep is one semantic step of the execution trace, held only for the
// duration of a single streaming invocation and discarded on completion or
// error.
type StreamStep struct {
	Type      StepType   `json:"type"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ObserverState is the per-invocation state of an Observer.
type ObserverState int

// Observer states: idle → streaming → completed | errored.
const (
	StateIdle ObserverState = iota
	StateStreaming
	StateCompleted
	StateErrored
)

// String implements Stringer for logging.
func (s ObserverState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// StepPacing is the fixed delay introduced after each emitted step.
// Deliberate UI pacing, not a correctness requirement.
const StepPacing = 500 * time.Millisecond

// Observer drives a step-by-step execution trace of the agent, classifying
// each incremental snapshot into a semantic step for progressive display.
//
// After the trace is exhausted it performs one additional full invocation
// with the same input: the trace's last snapshot is not trusted as final, so
// this duplicates one model call but guarantees a stable final value
// independent of chunk granularity.
type Observer struct {
	builder *Builder
	logger  log.Logger
	pacing  time.Duration

	// Injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu    sync.Mutex
	state ObserverState
	steps []StreamStep
}

// NewObserver creates an Observer around the given Builder.
func NewObserver(builder *Builder, logger log.Logger) *Observer {
	return &Observer{
		builder: builder,
		logger:  logger,
		pacing:  StepPacing,
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// State returns the current invocation state.
func (o *Observer) State() ObserverState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Steps returns a copy of the steps accumulated by the current invocation.
func (o *Observer) Steps() []StreamStep {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]StreamStep, len(o.steps))
	copy(out, o.steps)
	return out
}

// SendMessage runs one streaming chat turn, invoking emit for every
// classified step, then returns the definitive final answer text.
//
// On entry prior step history is cleared. On any failure during either phase
// the accumulated steps are cleared again, the state transitions to errored,
// and the failure is returned to the caller: no partial trace survives an
// error.
func (o *Observer) SendMessage(ctx context.Context, messages []ChatMessage, emit func(StreamStep) error) (string, error) {
	o.mu.Lock()
	o.state = StateStreaming
	o.steps = o.steps[:0]
	o.mu.Unlock()

	final, err := o.run(ctx, messages, emit)
	if err != nil {
		o.mu.Lock()
		o.steps = nil
		o.state = StateErrored
		o.mu.Unlock()
		return "", err
	}

	o.mu.Lock()
	o.state = StateCompleted
	o.mu.Unlock()
	return final, nil
}

func (o *Observer) run(ctx context.Context, messages []ChatMessage, emit func(StreamStep) error) (string, error) {
	msgs := NormalizeMessages(messages)

	agent, err := o.builder.Build(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := agent.Close(); cerr != nil {
			o.logger.Warn("closing flights MCP connection", "error", cerr)
		}
	}()

	callback := func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
		step, ok := classifyChunk(chunk, o.now())
		if !ok {
			return nil
		}

		o.mu.Lock()
		o.steps = append(o.steps, step)
		o.mu.Unlock()

		if emit != nil {
			if err := emit(step); err != nil {
				return err
			}
		}
		return o.sleep(ctx, o.pacing)
	}

	if _, err := agent.Generate(ctx, msgs, callback); err != nil {
		return "", err
	}

	// One full non-streaming invocation for the definitive final answer.
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

// classifyChunk maps one trace snapshot to a semantic step. Assistant chunks
// with pending tool invocations become tool_call steps, assistant chunks with
// non-blank text become response steps, tool chunks become tool_result steps;
// everything else is dropped.
func classifyChunk(chunk *ai.ModelResponseChunk, ts time.Time) (StreamStep, bool) {
	if chunk == nil || len(chunk.Content) == 0 {
		return StreamStep{}, false
	}

	if chunk.Role == ai.RoleTool {
		return StreamStep{
			Type:      StepToolResult,
			Content:   ContentToString(chunk.Content),
			Timestamp: ts,
		}, true
	}

	// Only assistant-side chunks become tool_call or response steps. Model
	// plugins frequently omit the role on streamed chunks, so an empty role
	// counts as the model side.
	if chunk.Role != ai.RoleModel && chunk.Role != "" {
		return StreamStep{}, false
	}

	var calls []ToolCall
	var names []string
	for _, p := range chunk.Content {
		if p != nil && p.ToolRequest != nil {
			calls = append(calls, ToolCall{Name: p.ToolRequest.Name, Arguments: p.ToolRequest.Input})
			names = append(names, p.ToolRequest.Name)
		}
	}
	if len(calls) > 0 {
		return StreamStep{
			Type:      StepToolCall,
			Content:   "Calling " + strings.Join(names, ", "),
			ToolCalls: calls,
			Timestamp: ts,
		}, true
	}

	if text := chunk.Text(); strings.TrimSpace(text) != "" {
		return StreamStep{
			Type:      StepResponse,
			Content:   text,
			Timestamp: ts,
		}, true
	}

	return StreamStep{}, false
}

// sleepContext sleeps for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
