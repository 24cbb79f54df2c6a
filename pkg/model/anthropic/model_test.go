package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	modelpkg "github.com/cexll/deckagent-go/pkg/model"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *AnthropicModel {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider := NewProvider(srv.Client())
	m, err := provider.NewModel(context.Background(), modelpkg.ModelConfig{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-5-20250929",
		BaseURL:  srv.URL,
		APIKey:   "test-key",
	})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m.(*AnthropicModel)
}

func TestGenerateSendsToolCatalog(t *testing.T) {
	var captured MessageRequest
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(MessageResponse{
			Role:       "assistant",
			StopReason: "tool_use",
			Content: []ContentBlock{
				{Type: "text", Text: "creating the first slide"},
				{Type: "tool_use", ID: "toolu_01", Name: "create_file", Input: map[string]any{"file_path": "slides/slide_1.html"}},
			},
		})
	})

	msg, err := m.Generate(context.Background(), modelpkg.Request{
		System:    "you are a designer",
		ForceTool: true,
		Messages:  []modelpkg.Message{{Role: "user", Content: "make a deck"}},
		Tools: []modelpkg.ToolSpec{
			{Name: "create_file", Description: "create a slide file", InputSchema: map[string]any{"type": "object"}},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(captured.Tools) != 1 || captured.Tools[0].Name != "create_file" {
		t.Fatalf("tools payload = %+v", captured.Tools)
	}
	if captured.ToolChoice == nil || captured.ToolChoice.Type != "any" {
		t.Fatalf("tool_choice = %+v", captured.ToolChoice)
	}
	if captured.System != "you are a designer" {
		t.Fatalf("system = %q", captured.System)
	}

	if len(msg.ToolCalls) != 1 {
		t.Fatalf("tool calls = %+v", msg.ToolCalls)
	}
	if msg.ToolCalls[0].ID != "toolu_01" || msg.ToolCalls[0].Name != "create_file" {
		t.Fatalf("tool call = %+v", msg.ToolCalls[0])
	}
	if msg.Content != "creating the first slide" {
		t.Fatalf("content = %q", msg.Content)
	}
}

func TestGenerateEncodesToolResultsAndImages(t *testing.T) {
	var captured MessageRequest
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(MessageResponse{
			Role:    "assistant",
			Content: []ContentBlock{{Type: "text", Text: "ok"}},
		})
	})

	_, err := m.Generate(context.Background(), modelpkg.Request{
		Messages: []modelpkg.Message{
			{
				Role:    "user",
				Content: "here is the logo",
				Images:  []modelpkg.ImageBlock{{MediaType: "image/png", Data: "aGk="}},
			},
			{
				Role:      "assistant",
				ToolCalls: []modelpkg.ToolCall{{ID: "toolu_02", Name: "read_file", Arguments: map[string]any{"file_path": "slides/slide_1.html"}}},
			},
			{
				Role:        "user",
				ToolResults: []modelpkg.ToolResult{{CallID: "toolu_02", Content: "Error: File not found", IsError: true}},
			},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(captured.Messages) != 3 {
		t.Fatalf("messages = %d", len(captured.Messages))
	}
	first := captured.Messages[0].Content
	if len(first) != 2 || first[0].Type != "image" || first[0].Source.MediaType != "image/png" {
		t.Fatalf("first turn blocks = %+v", first)
	}
	second := captured.Messages[1].Content
	if len(second) != 1 || second[0].Type != "tool_use" || second[0].ID != "toolu_02" {
		t.Fatalf("assistant turn blocks = %+v", second)
	}
	third := captured.Messages[2].Content
	if len(third) != 1 || third[0].Type != "tool_result" || third[0].ToolUseID != "toolu_02" || !third[0].IsError {
		t.Fatalf("tool result blocks = %+v", third)
	}
}

func TestGenerateSurfacesAPIErrors(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{Type: "rate_limit_error", Message: "slow down"}})
	})

	_, err := m.Generate(context.Background(), modelpkg.Request{
		Messages: []modelpkg.Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(APIError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Type != "rate_limit_error" {
		t.Fatalf("api error = %+v", apiErr)
	}
	if !strings.Contains(apiErr.Error(), "slow down") {
		t.Fatalf("error text = %s", apiErr.Error())
	}
}

func TestNewModelValidation(t *testing.T) {
	provider := NewProvider(nil)
	tests := []struct {
		name    string
		cfg     modelpkg.ModelConfig
		wantErr string
	}{
		{name: "missing api key", cfg: modelpkg.ModelConfig{Model: "claude"}, wantErr: "api key"},
		{name: "missing model name", cfg: modelpkg.ModelConfig{APIKey: "k"}, wantErr: "model name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.NewModel(context.Background(), tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
