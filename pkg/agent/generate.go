package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cexll/deckagent-go/pkg/event"
	"github.com/cexll/deckagent-go/pkg/export"
	"github.com/cexll/deckagent-go/pkg/model"
	"github.com/cexll/deckagent-go/pkg/session"
	"github.com/cexll/deckagent-go/pkg/tool"
	toolbuiltin "github.com/cexll/deckagent-go/pkg/tool/builtin"
)

// Generator runs one presentation build end to end: a generation loop over
// the workspace tools, then the export pipeline over the slides the loop
// produced. Export failures degrade the deliverable but never flip a
// successful generation into a failure.
type Generator struct {
	model     model.Model
	workDir   string
	exportDir string
	pipeline  *export.Pipeline
	logger    *zap.Logger

	maxIterations int
	maxTokens     int
}

// GenerationResult is what the chat layer reports back to the model.
type GenerationResult struct {
	Terminal tool.TerminalResult
	PPTXFile string
}

// NewGenerator constructs a Generator. pipeline and logger may be nil.
func NewGenerator(m model.Model, workDir, exportDir string, pipeline *export.Pipeline, logger *zap.Logger) (*Generator, error) {
	if m == nil {
		return nil, errors.New("agent: model is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = export.NewPipeline(nil, filepath.Join(workDir, "screenshots"), logger)
	}
	if exportDir == "" {
		exportDir = filepath.Join(workDir, "exports")
	}
	return &Generator{
		model:     m,
		workDir:   workDir,
		exportDir: exportDir,
		pipeline:  pipeline,
		logger:    logger,
	}, nil
}

// WithBudget returns a copy with overridden loop budgets. Zero values keep
// the generation-mode defaults.
func (g *Generator) WithBudget(maxIterations, maxTokens int) *Generator {
	clone := *g
	clone.maxIterations = maxIterations
	clone.maxTokens = maxTokens
	return &clone
}

// Generate runs a fresh generation session for the given brief. The session
// transcript is private to this run; only the outcome escapes. emit may be
// nil.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest, emit func(event.Event)) (*GenerationResult, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, errors.New("agent: generation topic is empty")
	}

	ws := toolbuiltin.NewWorkspace(g.workDir)
	registry, err := toolbuiltin.NewGenerationRegistry(ws)
	if err != nil {
		return nil, fmt.Errorf("agent: build tool registry: %w", err)
	}
	loop, err := NewLoop(g.model, registry, Config{
		Name:          "ppt-generator",
		Mode:          ModeGeneration,
		SystemPrompt:  GenerationSystemPrompt,
		MaxIterations: g.maxIterations,
		MaxTokens:     g.maxTokens,
	}, g.logger)
	if err != nil {
		return nil, err
	}
	loop = loop.WithHook(progressHook{emit: emit})

	state, err := session.NewState(uuid.NewString())
	if err != nil {
		return nil, err
	}
	state.Append(model.Message{Role: "user", Content: BuildGenerationPrompt(req)})

	g.logger.Info("generation started", zap.String("topic", req.Topic))
	outcome, err := loop.Run(ctx, state)
	if err != nil {
		// The nested session is the outermost boundary for its transport
		// failures: the chat layer sees a failed build, not an error.
		g.logger.Error("generation session failed",
			zap.String("topic", req.Topic),
			zap.Error(err))
		return &GenerationResult{Terminal: tool.TerminalResult{
			Success: false,
			Message: err.Error(),
		}}, nil
	}
	result := &GenerationResult{Terminal: *outcome.Terminal}
	g.logger.Info("generation finished",
		zap.Bool("success", result.Terminal.Success),
		zap.Int("slides", result.Terminal.SlideCount),
		zap.Int("iterations", outcome.Iterations))

	if result.Terminal.Success && len(result.Terminal.SlideFiles) > 0 {
		g.export(ctx, req.Topic, result, emit)
	}
	return result, nil
}

// export runs the two-stage pipeline. Its failures are logged, never
// propagated: the generation outcome is already decided.
func (g *Generator) export(ctx context.Context, topic string, result *GenerationResult, emit func(event.Event)) {
	slides := make([]string, 0, len(result.Terminal.SlideFiles))
	for _, f := range result.Terminal.SlideFiles {
		if filepath.IsAbs(f) {
			slides = append(slides, f)
			continue
		}
		slides = append(slides, filepath.Join(g.workDir, f))
	}

	outputFile := filepath.Join(g.exportDir, sanitizeTitle(topic)+".pptx")
	pptx, err := g.pipeline.Run(ctx, slides, outputFile, topic, emit)
	if err != nil {
		g.logger.Warn("pptx export failed, keeping html slides",
			zap.String("topic", topic),
			zap.Error(err))
		return
	}
	result.PPTXFile = pptx
}

// progressHook relays tool activity to the caller's event stream.
type progressHook struct {
	emit func(event.Event)
}

func (h progressHook) PreToolCall(_ context.Context, call model.ToolCall) error {
	if h.emit != nil {
		h.emit(event.New(event.TypeToolCall, "", map[string]any{
			"tool": call.Name,
		}))
	}
	return nil
}

func (h progressHook) PostToolCall(_ context.Context, call model.ToolCall, res tool.Result) error {
	if h.emit != nil {
		h.emit(event.New(event.TypeToolResult, "", map[string]any{
			"tool":     call.Name,
			"is_error": res.IsError,
		}))
	}
	return nil
}

// sanitizeTitle turns the deck title into a filename: spaces become
// underscores, case is kept, and only characters a filesystem cannot
// take are dropped.
func sanitizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "presentation"
	}
	return out
}
