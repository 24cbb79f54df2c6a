package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	modelpkg "github.com/cexll/deckagent-go/pkg/model"
)

// Ensure AnthropicModel implements the Model interface.
var _ modelpkg.Model = (*AnthropicModel)(nil)

// AnthropicModel is a concrete model backed by Anthropic's Messages API.
type AnthropicModel struct {
	client  *http.Client
	baseURL string
	model   string
	headers map[string]string
}

// Generate performs a blocking Anthropic Messages API call.
func (m *AnthropicModel) Generate(ctx context.Context, req modelpkg.Request) (modelpkg.Message, error) {
	payload := m.buildPayload(req)
	resp, err := m.doRequest(ctx, payload)
	if err != nil {
		return modelpkg.Message{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return modelpkg.Message{}, readAPIError(resp)
	}

	var msgResp MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return modelpkg.Message{}, fmt.Errorf("decode anthropic response: %w", err)
	}

	return convertResponse(msgResp), nil
}

func (m *AnthropicModel) buildPayload(req modelpkg.Request) MessageRequest {
	payload := MessageRequest{
		Model:     m.model,
		Messages:  toAnthropicMessages(req.Messages),
		MaxTokens: req.MaxTokens,
		System:    req.System,
	}
	if payload.MaxTokens <= 0 {
		payload.MaxTokens = defaultMaxTokens
	}
	if req.Temperature != nil {
		payload.Temperature = req.Temperature
	}
	for _, spec := range req.Tools {
		payload.Tools = append(payload.Tools, ToolParam{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
		})
	}
	if req.ForceTool && len(payload.Tools) > 0 {
		payload.ToolChoice = &ToolChoice{Type: "any"}
	}
	return payload
}

func (m *AnthropicModel) doRequest(ctx context.Context, payload MessageRequest) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode anthropic request: %w", err)
	}

	endpoint := m.baseURL + messagesPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}

	for k, v := range m.headers {
		if v == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	return m.client.Do(req)
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic api status %d: %w", resp.StatusCode, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return APIError{StatusCode: resp.StatusCode, Type: apiErr.Error.Type, Message: apiErr.Error.Message}
	}

	return APIError{StatusCode: resp.StatusCode, Message: string(body)}
}

func convertResponse(resp MessageResponse) modelpkg.Message {
	msg := modelpkg.Message{Role: resp.Role}
	var text strings.Builder
	var toolCalls []modelpkg.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			toolCalls = append(toolCalls, modelpkg.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}
	msg.Content = text.String()
	msg.ToolCalls = toolCalls
	if msg.Role == "" {
		msg.Role = "assistant"
	}
	return msg
}

func toAnthropicMessages(messages []modelpkg.Message) []MessageParam {
	out := make([]MessageParam, 0, len(messages))
	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))

		blocks := make([]ContentBlock, 0, 1+len(msg.Images)+len(msg.ToolCalls)+len(msg.ToolResults))
		for _, img := range msg.Images {
			blocks = append(blocks, ContentBlock{
				Type: "image",
				Source: &ImageSource{
					Type:      "base64",
					MediaType: img.MediaType,
					Data:      img.Data,
				},
			})
		}
		if msg.Content != "" {
			blocks = append(blocks, ContentBlock{Type: "text", Text: msg.Content})
		}
		for _, call := range msg.ToolCalls {
			blocks = append(blocks, ContentBlock{
				Type:  "tool_use",
				ID:    call.ID,
				Name:  call.Name,
				Input: call.Arguments,
			})
		}
		for _, result := range msg.ToolResults {
			blocks = append(blocks, ContentBlock{
				Type:      "tool_result",
				ToolUseID: result.CallID,
				Content:   result.Content,
				IsError:   result.IsError,
			})
		}
		if len(blocks) == 0 {
			blocks = append(blocks, ContentBlock{Type: "text", Text: ""})
		}

		out = append(out, MessageParam{Role: normalizeRole(role), Content: blocks})
	}

	if len(out) == 0 {
		out = append(out, MessageParam{
			Role:    "user",
			Content: []ContentBlock{{Type: "text", Text: ""}},
		})
	}
	return out
}

func normalizeRole(role string) string {
	switch role {
	case "assistant", "model":
		return "assistant"
	default:
		return "user"
	}
}
