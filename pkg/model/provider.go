package model

import "context"

// Model is a synchronous request/response surface over a generative backend.
// Generate blocks until the provider returns a full assistant turn; it never
// retries on its own.
type Model interface {
	Generate(ctx context.Context, req Request) (Message, error)
}

// Provider constructs concrete Model implementations for a specific backend
// such as Anthropic.
type Provider interface {
	Name() string
	NewModel(ctx context.Context, cfg ModelConfig) (Model, error)
}

// ModelConfig captures the minimal settings required to build a Model
// instance. Extra can be used for provider-specific tweaks without bloating
// the common surface.
type ModelConfig struct {
	Name     string
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Headers  map[string]string
	Extra    map[string]any
}
