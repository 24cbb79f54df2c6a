package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cexll/deckagent-go/pkg/model"
)

var (
	// ErrInvalidSessionID reports an empty or whitespace-only session id.
	ErrInvalidSessionID = errors.New("session: invalid session id")
	// ErrNotFound reports a lookup for a session that was never stored or
	// has been deleted.
	ErrNotFound = errors.New("session: not found")
)

// State is the durable record of one conversation: the transcript plus the
// artifacts the session produced. Stores hand out deep copies, so callers may
// mutate a State freely and commit it back with Put.
type State struct {
	ID        string          `json:"id"`
	Messages  []model.Message `json:"messages"`
	PPTXFile  string          `json:"pptx_file,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewState constructs an empty conversation state.
func NewState(id string) (*State, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrInvalidSessionID
	}
	now := time.Now().UTC()
	return &State{
		ID:        trimmed,
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

// Append adds messages to the transcript.
func (s *State) Append(msgs ...model.Message) {
	s.Messages = append(s.Messages, msgs...)
	s.UpdatedAt = time.Now().UTC()
}

// VerifyToolPairing checks that every tool-result turn answers exactly the
// tool calls of the assistant turn immediately before it: same IDs, same
// order, one result per call.
func (s *State) VerifyToolPairing() error {
	for i, msg := range s.Messages {
		if len(msg.ToolResults) == 0 {
			continue
		}
		if i == 0 || len(s.Messages[i-1].ToolCalls) == 0 {
			return fmt.Errorf("session: turn %d has tool results without preceding tool calls", i)
		}
		calls := s.Messages[i-1].ToolCalls
		if len(calls) != len(msg.ToolResults) {
			return fmt.Errorf("session: turn %d has %d tool results for %d calls", i, len(msg.ToolResults), len(calls))
		}
		for j, res := range msg.ToolResults {
			if res.CallID != calls[j].ID {
				return fmt.Errorf("session: turn %d result %d answers %q, want %q", i, j, res.CallID, calls[j].ID)
			}
		}
	}
	return nil
}

// Clone produces a deep copy. The transcript slice and every message payload
// inside it are copied, so worker goroutines can extend a fork without racing
// the original.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cloned := *s
	cloned.Messages = cloneMessages(s.Messages)
	return &cloned
}

func cloneMessages(src []model.Message) []model.Message {
	if len(src) == 0 {
		return nil
	}
	dst := make([]model.Message, len(src))
	for i, msg := range src {
		dst[i] = cloneMessage(msg)
	}
	return dst
}

func cloneMessage(msg model.Message) model.Message {
	cloned := msg
	if len(msg.Images) > 0 {
		cloned.Images = append([]model.ImageBlock(nil), msg.Images...)
	}
	if len(msg.ToolResults) > 0 {
		cloned.ToolResults = append([]model.ToolResult(nil), msg.ToolResults...)
	}
	if len(msg.ToolCalls) > 0 {
		cloned.ToolCalls = make([]model.ToolCall, len(msg.ToolCalls))
		for i, call := range msg.ToolCalls {
			cloned.ToolCalls[i] = cloneToolCall(call)
		}
	}
	return cloned
}

func cloneToolCall(call model.ToolCall) model.ToolCall {
	cloned := call
	if call.Arguments != nil {
		args := make(map[string]any, len(call.Arguments))
		for k, v := range call.Arguments {
			args[k] = v
		}
		cloned.Arguments = args
	}
	return cloned
}
