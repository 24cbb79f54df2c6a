package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cexll/deckagent-go/pkg/event"
)

// Pipeline turns generated HTML slides into a composite PPTX in two stages:
// rasterize each slide to a PNG, then assemble one full-bleed picture per
// capture. Failures here degrade the deliverable (no PPTX, or fewer pages)
// but must never change the outcome of the generation that produced the
// slides.
type Pipeline struct {
	rasterizer    Rasterizer
	screenshotDir string
	logger        *zap.Logger
}

// NewPipeline constructs a Pipeline writing intermediate captures under
// screenshotDir. rasterizer defaults to headless Chrome; logger may be nil.
func NewPipeline(rasterizer Rasterizer, screenshotDir string, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rasterizer == nil {
		rasterizer = NewRodRasterizer(logger)
	}
	if screenshotDir == "" {
		screenshotDir = "screenshots"
	}
	return &Pipeline{
		rasterizer:    rasterizer,
		screenshotDir: screenshotDir,
		logger:        logger,
	}
}

// Run executes both stages and returns the path of the written PPTX, or ""
// when nothing could be captured. emit may be nil.
func (p *Pipeline) Run(ctx context.Context, slideFiles []string, outputFile, title string, emit func(event.Event)) (result string, err error) {
	defer func() {
		// Chrome bindings can panic on protocol breakage; confine it here.
		if rec := recover(); rec != nil {
			p.logger.Error("export pipeline panicked", zap.Any("panic", rec))
			result = ""
			err = fmt.Errorf("export pipeline: %v", rec)
		}
	}()

	if len(slideFiles) == 0 {
		p.logger.Warn("no slide files to export")
		return "", nil
	}

	if emit != nil {
		emit(event.New(event.TypeStatus, "", map[string]any{
			"stage":        "export",
			"total_slides": len(slideFiles),
		}))
	}

	screenshots, err := p.rasterizer.Capture(ctx, slideFiles, p.screenshotDir, emit)
	if err != nil {
		return "", fmt.Errorf("capture slides: %w", err)
	}
	if len(screenshots) == 0 {
		// Nothing rendered: skip assembly rather than produce an empty deck.
		p.logger.Warn("no screenshots captured, skipping pptx assembly",
			zap.Int("slides", len(slideFiles)))
		return "", nil
	}

	onSlide := func(added, total int) {
		if emit != nil {
			emit(event.New(event.TypeSlideAdded, "", map[string]any{
				"slide_number": added,
				"total_slides": total,
			}))
		}
	}
	if err := WritePPTX(outputFile, title, screenshots, onSlide); err != nil {
		return "", fmt.Errorf("assemble pptx: %w", err)
	}

	p.logger.Info("pptx exported",
		zap.String("file", outputFile),
		zap.Int("pages", len(screenshots)))
	return outputFile, nil
}
