package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cexll/deckagent-go/pkg/event"
)

// Launches a real headless Chrome; opt in with DECKAGENT_BROWSER_TESTS=1.
func TestRodRasterizerCapturesSlide(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	if os.Getenv("DECKAGENT_BROWSER_TESTS") == "" {
		t.Skip("set DECKAGENT_BROWSER_TESTS=1 to run browser tests")
	}

	dir := t.TempDir()
	slide := filepath.Join(dir, "slide_1.html")
	html := `<html><body style="width:1920px;height:1080px;background:#1E40AF"><h1>Hello</h1></body></html>`
	if err := os.WriteFile(slide, []byte(html), 0o644); err != nil {
		t.Fatalf("write slide: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var events []event.Event
	r := NewRodRasterizer(nil)
	out, err := r.Capture(ctx, []string{slide, filepath.Join(dir, "missing.html")}, filepath.Join(dir, "shots"),
		func(evt event.Event) { events = append(events, evt) })
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("captures = %v, want 1 (missing slide skipped)", out)
	}
	info, err := os.Stat(out[0])
	if err != nil {
		t.Fatalf("screenshot missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("screenshot is empty")
	}
	if len(events) != 1 || events[0].Type != event.TypeScreenshot {
		t.Fatalf("events = %+v", events)
	}
}
