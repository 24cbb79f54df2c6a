package event

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSendWritesSSEFrame(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamWriter(&buf)

	evt := New(TypeToolCall, "s1", map[string]any{"tool": "create_file"})
	if err := s.Send(evt); err != nil {
		t.Fatalf("Send: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "id: "+evt.ID+"\n") {
		t.Fatalf("frame missing id line: %q", out)
	}
	if !strings.Contains(out, "event: tool_call\n") {
		t.Fatalf("frame missing event line: %q", out)
	}
	if !strings.Contains(out, `"tool":"create_file"`) {
		t.Fatalf("frame missing payload: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Fatalf("frame missing terminator: %q", out)
	}
}

func TestStreamEventsDrainsUntilClose(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamWriter(&buf)

	events := make(chan Event, 4)
	events <- New(TypeStatus, "s1", nil)
	events <- New(TypeComplete, "s1", nil)
	close(events)

	if err := s.StreamEvents(context.Background(), events); err != nil {
		t.Fatalf("StreamEvents: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "event: ") != 2 {
		t.Fatalf("expected 2 frames, got: %q", out)
	}
}

func TestStreamEventsHeartbeat(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamWriter(&buf)
	s.SetHeartbeat(10 * time.Millisecond)

	events := make(chan Event)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := s.StreamEvents(ctx, events)
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if !strings.Contains(buf.String(), ": ping ") {
		t.Fatalf("no heartbeat frames written: %q", buf.String())
	}
}

func TestStreamEventsStopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.StreamEvents(ctx, make(chan Event)); err != context.Canceled {
		t.Fatalf("err = %v, want canceled", err)
	}
}

func TestEventValidate(t *testing.T) {
	cases := []struct {
		typ     EventType
		wantErr bool
	}{
		{TypeToolCall, false},
		{TypeScreenshot, false},
		{TypeComplete, false},
		{EventType(""), true},
		{EventType("bogus"), true},
	}
	for _, tc := range cases {
		err := Event{Type: tc.typ}.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("Validate(%q) = %v, wantErr %v", tc.typ, err, tc.wantErr)
		}
	}
}
