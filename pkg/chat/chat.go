package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cexll/deckagent-go/pkg/agent"
	"github.com/cexll/deckagent-go/pkg/event"
	"github.com/cexll/deckagent-go/pkg/model"
	"github.com/cexll/deckagent-go/pkg/session"
	"github.com/cexll/deckagent-go/pkg/tool"
)

// GeneratePPTName is the single client-side tool of the chat catalog.
const GeneratePPTName = "generate_ppt"

// Chat is the requirement-gathering front of the system. It converses with
// the user until the model decides it has a complete brief, then hands the
// brief to the Generator through the generate_ppt tool and reports the
// outcome back into the conversation.
type Chat struct {
	model     model.Model
	generator *agent.Generator
	logger    *zap.Logger

	maxIterations int
	maxTokens     int
}

// New constructs a Chat. logger may be nil.
func New(m model.Model, generator *agent.Generator, logger *zap.Logger) (*Chat, error) {
	if m == nil {
		return nil, errors.New("chat: model is nil")
	}
	if generator == nil {
		return nil, errors.New("chat: generator is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{model: m, generator: generator, logger: logger}, nil
}

// WithBudget returns a copy with overridden loop budgets. Zero values keep
// the chat-mode defaults.
func (c *Chat) WithBudget(maxIterations, maxTokens int) *Chat {
	clone := *c
	clone.maxIterations = maxIterations
	clone.maxTokens = maxTokens
	return &clone
}

// SendMessage appends the user turn (text plus any images) to state, runs
// the conversation loop and returns the assistant reply. When the model
// triggers a generation, the resulting PPTX path lands in state.PPTXFile.
func (c *Chat) SendMessage(ctx context.Context, state *session.State, text string, imagePaths []string, emit func(event.Event)) (string, error) {
	if state == nil {
		return "", errors.New("chat: session state is nil")
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("chat: message is empty")
	}

	state.Append(c.buildUserMessage(text, imagePaths))

	registry, err := c.buildRegistry(state, emit)
	if err != nil {
		return "", err
	}
	loop, err := agent.NewLoop(c.model, registry, agent.Config{
		Name:          "main-chat",
		Mode:          agent.ModeChat,
		SystemPrompt:  agent.ChatSystemPrompt,
		MaxIterations: c.maxIterations,
		MaxTokens:     c.maxTokens,
	}, c.logger)
	if err != nil {
		return "", err
	}

	outcome, err := loop.Run(ctx, state)
	if err != nil {
		return "", err
	}
	return outcome.Text, nil
}

// buildUserMessage encodes the images first, then the text, matching the
// content order the vision API expects. Unreadable or unsupported images
// are skipped with a warning.
func (c *Chat) buildUserMessage(text string, imagePaths []string) model.Message {
	msg := model.Message{Role: "user", Content: text}
	for _, path := range imagePaths {
		block, err := encodeImage(path)
		if err != nil {
			c.logger.Warn("skipping image", zap.String("path", path), zap.Error(err))
			continue
		}
		msg.Images = append(msg.Images, block)
	}
	return msg
}

func (c *Chat) buildRegistry(state *session.State, emit func(event.Event)) (*tool.Registry, error) {
	def := tool.Definition{
		Spec: generatePPTSpec(),
		Handler: func(ctx context.Context, input map[string]any) (string, error) {
			return c.runGeneration(ctx, state, input, emit)
		},
	}
	return tool.NewRegistry(def)
}

func (c *Chat) runGeneration(ctx context.Context, state *session.State, input map[string]any, emit func(event.Event)) (string, error) {
	req := agent.GenerationRequest{
		Topic:            stringField(input, "ppt_topic"),
		Description:      stringField(input, "ppt_description"),
		Details:          stringField(input, "ppt_details"),
		Data:             stringField(input, "ppt_data"),
		LogoDetails:      stringField(input, "brand_logo_details"),
		GuidelineDetails: stringField(input, "brand_guideline_details"),
		ColorDetails:     stringField(input, "brand_color_details"),
	}
	c.logger.Info("triggering ppt generation", zap.String("topic", req.Topic))

	res, err := c.generator.Generate(ctx, req, emit)
	if err != nil {
		return "", fmt.Errorf("generating presentation: %w", err)
	}
	if !res.Terminal.Success {
		return "Failed to generate presentation: " + res.Terminal.Message, nil
	}
	if res.PPTXFile != "" {
		state.PPTXFile = res.PPTXFile
	}
	return successMessage(res), nil
}

// successMessage is what the model sees as the tool result; it reads it to
// compose the final reply to the user.
func successMessage(res *agent.GenerationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Successfully generated presentation!\n\n")
	fmt.Fprintf(&b, "Slide count: %d\n", res.Terminal.SlideCount)
	fmt.Fprintf(&b, "Files created: %s\n\n", strings.Join(res.Terminal.SlideFiles, ", "))
	fmt.Fprintf(&b, "%s\n\n", res.Terminal.Message)
	if res.PPTXFile != "" {
		fmt.Fprintf(&b, "PPTX File: %s\n", res.PPTXFile)
		b.WriteString("You can open this file in PowerPoint or Keynote!\n\n")
	}
	b.WriteString("You can also view individual HTML slides in your browser:\n")
	b.WriteString("open any slide file (e.g., slides/slide_1.html) directly!\n")
	return b.String()
}

func generatePPTSpec() tool.Spec {
	return tool.Spec{
		Name: GeneratePPTName,
		Description: "This tool calls an AI agent that will generate a complete presentation as a series of HTML slides and files. " +
			"Use this tool ONLY when you have collected ALL required information from the user: " +
			"topic, description and purpose, detailed content outline, brand colors, logo details, brand guidelines, and any data or statistics. " +
			"Pass as much relevant and detailed information as you can to create the best possible presentation.",
		InputSchema: &tool.JSONSchema{
			Type: "object",
			Properties: map[string]any{
				"ppt_topic": map[string]any{
					"type":        "string",
					"description": "The main topic/title of the presentation (e.g., 'Q4 Product Roadmap 2025')",
				},
				"ppt_description": map[string]any{
					"type":        "string",
					"description": "A detailed description of what the presentation is about and its purpose",
				},
				"ppt_details": map[string]any{
					"type":        "string",
					"description": "Detailed content outline, key points to cover, data to include, and overall structure",
				},
				"ppt_data": map[string]any{
					"type":        "string",
					"description": "Any specific data, statistics, or numbers to include",
				},
				"brand_logo_details": map[string]any{
					"type":        "string",
					"description": "Details about the brand logo - file path, URL, or description",
				},
				"brand_guideline_details": map[string]any{
					"type":        "string",
					"description": "Brand guidelines including tone, voice, style preferences and font types",
				},
				"brand_color_details": map[string]any{
					"type":        "string",
					"description": "Brand colors in hex format (e.g., 'primary: #1E40AF, secondary: #F59E0B')",
				},
			},
			Required: []string{
				"ppt_topic", "ppt_description", "ppt_details", "ppt_data",
				"brand_logo_details", "brand_guideline_details", "brand_color_details",
			},
		},
	}
}

func encodeImage(path string) (model.ImageBlock, error) {
	mediaType, ok := imageMediaType(path)
	if !ok {
		return model.ImageBlock{}, fmt.Errorf("unsupported image format: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ImageBlock{}, fmt.Errorf("read image: %w", err)
	}
	return model.ImageBlock{
		MediaType: mediaType,
		Data:      base64.StdEncoding.EncodeToString(data),
	}, nil
}

func imageMediaType(path string) (string, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png", true
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg", true
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif", true
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp", true
	default:
		return "", false
	}
}

func stringField(input map[string]any, key string) string {
	s, _ := input[key].(string)
	return s
}
