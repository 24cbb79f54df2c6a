package toolbuiltin

import (
	"context"
	"fmt"

	"github.com/cexll/deckagent-go/pkg/tool"
)

// ReturnResultName is the designated terminal tool of a generation session.
const ReturnResultName = "return_ppt_result"

// ReturnResult serializes the model-supplied outcome behind the completion
// marker. The registry parses it back into a typed terminal result, so the
// handler only normalizes the loosely typed JSON input.
func ReturnResult(_ context.Context, input map[string]any) (string, error) {
	success, ok := input["success"].(bool)
	if !ok {
		return "", fmt.Errorf("success must be boolean")
	}
	message, _ := input["message"].(string)

	term := tool.TerminalResult{
		Success: success,
		Message: message,
	}
	if raw, ok := input["slide_count"]; ok {
		n, err := coerceInt(raw)
		if err != nil {
			return "", fmt.Errorf("slide_count: %w", err)
		}
		term.SlideCount = n
	}
	if raw, ok := input["slide_files"]; ok {
		files, err := coerceStrings(raw)
		if err != nil {
			return "", fmt.Errorf("slide_files: %w", err)
		}
		term.SlideFiles = files
	}
	return tool.FormatTerminal(term)
}

func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func coerceStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected array of strings, got %T", raw)
	}
}
