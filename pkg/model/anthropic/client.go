package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	modelpkg "github.com/cexll/deckagent-go/pkg/model"
)

var _ modelpkg.Provider = (*AnthropicProvider)(nil)

// AnthropicProvider builds Messages-API backed models. The zero value is
// usable; a default HTTP client is created per model when none is supplied.
type AnthropicProvider struct {
	HTTPClient *http.Client
}

// NewProvider wraps an optional HTTP client. Pass nil to get the default
// client, whose timeout is sized for slide-generation turns that carry full
// HTML documents in both directions.
func NewProvider(client *http.Client) *AnthropicProvider {
	return &AnthropicProvider{HTTPClient: client}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// NewModel materializes a model for cfg. The API key and model name are
// required; everything else has a usable default.
func (p *AnthropicProvider) NewModel(ctx context.Context, cfg modelpkg.ModelConfig) (modelpkg.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required (set ANTHROPIC_API_KEY or model.api_key)")
	}
	modelName := firstNonEmpty(cfg.Model, cfg.Name)
	if modelName == "" {
		return nil, errors.New("anthropic: model name is required")
	}

	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout * time.Second}
	}

	return &AnthropicModel{
		client:  client,
		baseURL: normalizeBaseURL(cfg.BaseURL),
		model:   modelName,
		headers: mergeHeaders(apiKey, cfg.Headers),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func normalizeBaseURL(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return defaultBaseURL
	}
	return trimmed
}

// mergeHeaders layers caller-supplied headers over the required defaults.
// Empty values are dropped so a caller cannot accidentally blank the auth
// header.
func mergeHeaders(apiKey string, extra map[string]string) map[string]string {
	headers := map[string]string{
		"X-API-Key":         apiKey,
		"Anthropic-Version": anthropicVersion,
		"Content-Type":      "application/json",
		"User-Agent":        userAgent,
	}
	for k, v := range extra {
		if strings.TrimSpace(k) == "" || v == "" {
			continue
		}
		headers[k] = v
	}
	return headers
}
