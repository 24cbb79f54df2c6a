package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cexll/deckagent-go/pkg/model"
	"github.com/cexll/deckagent-go/pkg/session"
	"github.com/cexll/deckagent-go/pkg/tool"
)

const chatBudgetReply = "Sorry, I encountered an issue. Please try again."

// Hook allows callers to intercept tool dispatch. PreToolCall errors turn
// the call into an error-flagged result; PostToolCall errors are logged and
// otherwise ignored.
type Hook interface {
	PreToolCall(ctx context.Context, call model.ToolCall) error
	PostToolCall(ctx context.Context, call model.ToolCall, result tool.Result) error
}

// NopHook offers a convenient zero-cost implementation for optional methods.
type NopHook struct{}

func (NopHook) PreToolCall(context.Context, model.ToolCall) error               { return nil }
func (NopHook) PostToolCall(context.Context, model.ToolCall, tool.Result) error { return nil }

// Outcome is the terminal state of one loop run. Exactly one of Text (chat
// mode) or Terminal (generation mode) is populated.
type Outcome struct {
	Text       string
	Terminal   *tool.TerminalResult
	Iterations int
}

// Loop drives the model-call / tool-dispatch cycle over a session transcript
// until a mode-specific exit or the iteration budget runs out. Budget
// exhaustion is an outcome, not an error: only model transport failures and
// context cancellation surface as errors.
type Loop struct {
	model    model.Model
	registry *tool.Registry
	cfg      Config
	hooks    []Hook
	logger   *zap.Logger
}

// NewLoop constructs a Loop. logger may be nil.
func NewLoop(m model.Model, registry *tool.Registry, cfg Config, logger *zap.Logger) (*Loop, error) {
	if m == nil {
		return nil, errors.New("agent: model is nil")
	}
	if registry == nil {
		return nil, errors.New("agent: tool registry is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		model:    m,
		registry: registry,
		cfg:      cfg.Normalize(),
		logger:   logger,
	}, nil
}

// WithHook returns a shallow copy of the loop with an extra hook.
func (l *Loop) WithHook(h Hook) *Loop {
	if h == nil {
		return l
	}
	clone := *l
	clone.hooks = append(append([]Hook(nil), l.hooks...), h)
	return &clone
}

// Run executes the loop over state's transcript, appending every assistant
// response and tool result to it.
func (l *Loop) Run(ctx context.Context, state *session.State) (*Outcome, error) {
	if state == nil {
		return nil, errors.New("agent: session state is nil")
	}

	temp := l.cfg.Temperature
	for iteration := 1; iteration <= l.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := model.Request{
			System:      l.cfg.SystemPrompt,
			Messages:    state.Messages,
			Tools:       l.registry.Specs(),
			ForceTool:   l.cfg.Mode == ModeGeneration,
			MaxTokens:   l.cfg.MaxTokens,
			Temperature: &temp,
		}
		resp, err := l.model.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("agent %s: model call failed at iteration %d: %w", l.cfg.Name, iteration, err)
		}
		state.Append(resp)

		if len(resp.ToolCalls) == 0 {
			if l.cfg.Mode == ModeChat {
				return &Outcome{Text: resp.Content, Iterations: iteration}, nil
			}
			l.logger.Warn("generation finished without terminal tool call",
				zap.String("agent", l.cfg.Name),
				zap.Int("iteration", iteration))
			return &Outcome{
				Terminal: &tool.TerminalResult{
					Success: false,
					Message: "Agent stopped unexpectedly: " + resp.Content,
				},
				Iterations: iteration,
			}, nil
		}

		results := make([]model.ToolResult, 0, len(resp.ToolCalls))
		var terminal *tool.TerminalResult
		for _, call := range resp.ToolCalls {
			res := l.dispatch(ctx, call)
			results = append(results, model.ToolResult{
				CallID:  res.CallID,
				Content: res.Content,
				IsError: res.IsError,
			})
			if res.Terminal != nil && terminal == nil {
				terminal = res.Terminal
			}
		}
		state.Append(model.Message{Role: "user", ToolResults: results})

		if terminal != nil && l.cfg.Mode == ModeGeneration {
			return &Outcome{Terminal: terminal, Iterations: iteration}, nil
		}
	}

	l.logger.Warn("iteration budget exhausted",
		zap.String("agent", l.cfg.Name),
		zap.Int("max_iterations", l.cfg.MaxIterations))
	if l.cfg.Mode == ModeChat {
		return &Outcome{Text: chatBudgetReply, Iterations: l.cfg.MaxIterations}, nil
	}
	return &Outcome{
		Terminal: &tool.TerminalResult{
			Success: false,
			Message: "Max iterations reached without completion",
		},
		Iterations: l.cfg.MaxIterations,
	}, nil
}

func (l *Loop) dispatch(ctx context.Context, call model.ToolCall) tool.Result {
	for _, h := range l.hooks {
		if err := h.PreToolCall(ctx, call); err != nil {
			return tool.Result{
				CallID:  call.ID,
				Content: fmt.Sprintf("Error executing %s: %s", call.Name, err),
				IsError: true,
			}
		}
	}

	res := l.registry.Dispatch(ctx, call)

	for _, h := range l.hooks {
		if err := h.PostToolCall(ctx, call, res); err != nil {
			l.logger.Warn("post tool hook failed",
				zap.String("tool", call.Name),
				zap.Error(err))
		}
	}
	return res
}
