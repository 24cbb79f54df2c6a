package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cexll/deckagent-go/pkg/event"
)

// fakeRasterizer pretends to capture by copying stub PNGs, skipping slides
// that do not exist on disk, mirroring the real capture contract.
type fakeRasterizer struct {
	err error
}

func (f *fakeRasterizer) Capture(_ context.Context, slideFiles []string, outputDir string, emit func(event.Event)) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	var out []string
	for i, slide := range slideFiles {
		if _, err := os.Stat(slide); err != nil {
			continue
		}
		p := filepath.Join(outputDir, "capture_"+string(rune('0'+i+1))+".png")
		if err := os.WriteFile(p, pngStub, 0o644); err != nil {
			return nil, err
		}
		out = append(out, p)
		if emit != nil {
			emit(event.New(event.TypeScreenshot, "", map[string]any{"slide_number": i + 1}))
		}
	}
	return out, nil
}

func writeSlides(t *testing.T, dir string, names []string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("<html><body>slide</body></html>"), 0o644); err != nil {
			t.Fatalf("write slide: %v", err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestPipelineSkipsMissingSlides(t *testing.T) {
	dir := t.TempDir()
	slides := writeSlides(t, dir, []string{"slide_1.html", "slide_3.html"})
	// Second slide was never created by the generator.
	input := []string{slides[0], filepath.Join(dir, "slide_2.html"), slides[1]}

	p := NewPipeline(&fakeRasterizer{}, filepath.Join(dir, "screenshots"), nil)
	var events []event.Event
	out, err := p.Run(context.Background(), input, filepath.Join(dir, "deck.pptx"), "Deck", func(evt event.Event) {
		events = append(events, evt)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out == "" {
		t.Fatal("expected pptx output")
	}

	captured, added := 0, 0
	for _, evt := range events {
		switch evt.Type {
		case event.TypeScreenshot:
			captured++
		case event.TypeSlideAdded:
			added++
		}
	}
	if captured != 2 || added != 2 {
		t.Fatalf("captured=%d added=%d, want 2/2", captured, added)
	}
}

func TestPipelineNoCapturesSkipsAssembly(t *testing.T) {
	dir := t.TempDir()
	// All inputs missing: stage one captures nothing.
	input := []string{filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html")}

	p := NewPipeline(&fakeRasterizer{}, filepath.Join(dir, "screenshots"), nil)
	out, err := p.Run(context.Background(), input, filepath.Join(dir, "deck.pptx"), "Deck", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no composite, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "deck.pptx")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("pptx file should not exist")
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	p := NewPipeline(&fakeRasterizer{}, t.TempDir(), nil)
	out, err := p.Run(context.Background(), nil, "deck.pptx", "Deck", nil)
	if err != nil || out != "" {
		t.Fatalf("Run = (%q, %v), want empty no-op", out, err)
	}
}

func TestPipelineCaptureFailure(t *testing.T) {
	dir := t.TempDir()
	slides := writeSlides(t, dir, []string{"slide_1.html"})
	p := NewPipeline(&fakeRasterizer{err: errors.New("chrome unavailable")}, dir, nil)
	out, err := p.Run(context.Background(), slides, filepath.Join(dir, "deck.pptx"), "Deck", nil)
	if err == nil {
		t.Fatal("expected capture error")
	}
	if out != "" {
		t.Fatalf("out = %q, want empty", out)
	}
}
