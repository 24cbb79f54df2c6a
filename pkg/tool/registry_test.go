package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cexll/deckagent-go/pkg/model"
)

func echoDef(name string) Definition {
	return Definition{
		Spec: Spec{
			Name:        name,
			Description: "echo " + name,
			InputSchema: &JSONSchema{
				Type: "object",
				Properties: map[string]any{
					"text": map[string]any{"type": "string"},
				},
				Required: []string{"text"},
			},
		},
		Handler: func(_ context.Context, input map[string]any) (string, error) {
			return input["text"].(string), nil
		},
	}
}

func TestNewRegistryValidation(t *testing.T) {
	if _, err := NewRegistry(Definition{Spec: Spec{Name: ""}}); err == nil {
		t.Fatal("expected error for empty tool name")
	}
	if _, err := NewRegistry(Definition{Spec: Spec{Name: "x"}}); err == nil {
		t.Fatal("expected error for missing handler")
	}
	if _, err := NewRegistry(echoDef("dup"), echoDef("dup")); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestSpecsPreserveDeclarationOrder(t *testing.T) {
	names := []string{"zeta", "alpha", "mid"}
	defs := make([]Definition, 0, len(names))
	for _, n := range names {
		defs = append(defs, echoDef(n))
	}
	r, err := NewRegistry(defs...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	specs := r.Specs()
	if len(specs) != len(names) {
		t.Fatalf("got %d specs, want %d", len(specs), len(names))
	}
	for i, n := range names {
		if specs[i].Name != n {
			t.Fatalf("specs[%d] = %s, want %s", i, specs[i].Name, n)
		}
	}
}

func TestDispatchUnknownToolNeverRaises(t *testing.T) {
	r, err := NewRegistry(echoDef("echo"))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	res := r.Dispatch(context.Background(), model.ToolCall{ID: "c1", Name: "missing"})
	if !res.IsError {
		t.Fatal("expected error-flagged result")
	}
	if res.CallID != "c1" {
		t.Fatalf("CallID = %q, want c1", res.CallID)
	}
	if want := "Error: Unknown tool 'missing'"; res.Content != want {
		t.Fatalf("Content = %q, want %q", res.Content, want)
	}
	if res.Terminal != nil {
		t.Fatal("unknown tool must not produce a terminal result")
	}
}

func TestDispatchValidatesInput(t *testing.T) {
	r, err := NewRegistry(echoDef("echo"))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	res := r.Dispatch(context.Background(), model.ToolCall{ID: "c1", Name: "echo", Arguments: map[string]any{}})
	if !res.IsError {
		t.Fatal("expected error for missing required field")
	}
	if !strings.Contains(res.Content, "missing required field: text") {
		t.Fatalf("unexpected content: %q", res.Content)
	}

	res = r.Dispatch(context.Background(), model.ToolCall{ID: "c2", Name: "echo", Arguments: map[string]any{"text": 42}})
	if !res.IsError {
		t.Fatal("expected error for wrong argument type")
	}
}

func TestDispatchHandlerErrorFlagsResult(t *testing.T) {
	def := Definition{
		Spec: Spec{Name: "boom"},
		Handler: func(context.Context, map[string]any) (string, error) {
			return "", errors.New("disk full")
		},
	}
	r, err := NewRegistry(def)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	res := r.Dispatch(context.Background(), model.ToolCall{ID: "c1", Name: "boom"})
	if !res.IsError {
		t.Fatal("expected error-flagged result")
	}
	if want := "Error executing boom: disk full"; res.Content != want {
		t.Fatalf("Content = %q, want %q", res.Content, want)
	}
}

func TestDispatchParsesTerminalResult(t *testing.T) {
	payload := TerminalResult{
		Success:    true,
		Message:    "done",
		SlideCount: 2,
		SlideFiles: []string{"slides/slide_1.html", "slides/slide_2.html"},
	}
	def := Definition{
		Spec: Spec{Name: "finish"},
		Handler: func(context.Context, map[string]any) (string, error) {
			return FormatTerminal(payload)
		},
		Terminal: true,
	}
	r, err := NewRegistry(def)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	res := r.Dispatch(context.Background(), model.ToolCall{ID: "c1", Name: "finish"})
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Content)
	}
	if res.Terminal == nil {
		t.Fatal("expected terminal result")
	}
	if res.Terminal.Success != payload.Success ||
		res.Terminal.Message != payload.Message ||
		res.Terminal.SlideCount != payload.SlideCount {
		t.Fatalf("terminal mismatch: %+v", res.Terminal)
	}
	if len(res.Terminal.SlideFiles) != 2 || res.Terminal.SlideFiles[0] != payload.SlideFiles[0] {
		t.Fatalf("slide files mismatch: %v", res.Terminal.SlideFiles)
	}
}

func TestDispatchMalformedTerminalDowngrades(t *testing.T) {
	def := Definition{
		Spec: Spec{Name: "finish"},
		Handler: func(context.Context, map[string]any) (string, error) {
			return CompletionMarker + " {not json", nil
		},
		Terminal: true,
	}
	r, err := NewRegistry(def)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	res := r.Dispatch(context.Background(), model.ToolCall{ID: "c1", Name: "finish"})
	if !res.IsError {
		t.Fatal("expected error-flagged result")
	}
	if res.Terminal == nil {
		t.Fatal("malformed payload still yields a failed terminal result")
	}
	if res.Terminal.Success {
		t.Fatal("malformed payload must not succeed")
	}
	if !strings.Contains(res.Terminal.Message, "malformed completion payload") {
		t.Fatalf("unexpected message: %q", res.Terminal.Message)
	}
}

func TestTerminalRoundTrip(t *testing.T) {
	cases := []TerminalResult{
		{Success: true, Message: "ok", SlideCount: 5, SlideFiles: []string{"a.html", "b.html"}},
		{Success: false, Message: "Agent stopped unexpectedly: no tools called"},
		{Success: true, Message: `quotes "and" unicode ✓`, SlideCount: 1, SlideFiles: []string{"slides/slide_1.html"}},
	}
	for i, want := range cases {
		wire, err := FormatTerminal(want)
		if err != nil {
			t.Fatalf("case %d: FormatTerminal: %v", i, err)
		}
		if !strings.HasPrefix(wire, CompletionMarker) {
			t.Fatalf("case %d: marker missing: %q", i, wire)
		}
		got, err := ParseTerminal(wire)
		if err != nil {
			t.Fatalf("case %d: ParseTerminal: %v", i, err)
		}
		if got.Success != want.Success || got.Message != want.Message || got.SlideCount != want.SlideCount {
			t.Fatalf("case %d: round trip mismatch: got %+v want %+v", i, got, want)
		}
		if fmt.Sprint(got.SlideFiles) != fmt.Sprint(want.SlideFiles) {
			t.Fatalf("case %d: slide files mismatch: %v vs %v", i, got.SlideFiles, want.SlideFiles)
		}
	}
}

func TestParseTerminalIgnoresSurroundingText(t *testing.T) {
	wire, err := FormatTerminal(TerminalResult{Success: true, Message: "done"})
	if err != nil {
		t.Fatalf("FormatTerminal: %v", err)
	}
	got, err := ParseTerminal("model chatter before the marker " + wire)
	if err != nil {
		t.Fatalf("ParseTerminal: %v", err)
	}
	if !got.Success || got.Message != "done" {
		t.Fatalf("unexpected result: %+v", got)
	}

	if _, err := ParseTerminal("no marker here"); err == nil {
		t.Fatal("expected error when marker absent")
	}
	if !HasMarker(wire) {
		t.Fatal("HasMarker should detect marker")
	}
	if HasMarker("plain text") {
		t.Fatal("HasMarker false positive")
	}
}
