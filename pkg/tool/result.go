package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CompletionMarker prefixes the serialized terminal payload on the wire. Its
// presence in a tool result is the sole termination signal for a generation
// session.
const CompletionMarker = "PPT_GENERATION_COMPLETE:"

// Result captures the outcome of a single tool dispatch. Exactly one Result
// is produced per tool call; IsError marks failures the model can react to.
// Terminal is non-nil only when the dispatched tool was the designated
// return-result tool.
type Result struct {
	CallID   string
	Content  string
	IsError  bool
	Terminal *TerminalResult
}

// TerminalResult is the typed payload that ends a generation session. It is
// never synthesized from thin air by the orchestration layer: either the
// model supplied it through the return-result tool, or the loop reports a
// failure (budget exhaustion, missing confirmation) through the same shape.
type TerminalResult struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	SlideCount int      `json:"slide_count"`
	SlideFiles []string `json:"slide_files"`
}

// FormatTerminal serializes a terminal payload behind the completion marker.
func FormatTerminal(t TerminalResult) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal terminal result: %w", err)
	}
	return CompletionMarker + " " + string(data), nil
}

// ParseTerminal recovers the typed payload from marker-carrying content. It
// is the inverse of FormatTerminal; the round trip is field-exact.
func ParseTerminal(content string) (TerminalResult, error) {
	idx := strings.Index(content, CompletionMarker)
	if idx < 0 {
		return TerminalResult{}, fmt.Errorf("completion marker not present")
	}
	payload := strings.TrimSpace(content[idx+len(CompletionMarker):])
	var t TerminalResult
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return TerminalResult{}, fmt.Errorf("decode terminal payload: %w", err)
	}
	return t, nil
}

// HasMarker reports whether content carries the completion marker.
func HasMarker(content string) bool {
	return strings.Contains(content, CompletionMarker)
}
