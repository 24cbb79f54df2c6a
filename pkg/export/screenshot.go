package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/cexll/deckagent-go/pkg/event"
)

const (
	// Slides render at standard PowerPoint widescreen resolution.
	viewportWidth  = 1920
	viewportHeight = 1080

	// Fonts and CDN styles need a moment after load before capture.
	settleDelay = 500 * time.Millisecond

	navigationTimeout = 30 * time.Second
)

// Rasterizer captures HTML slide files as PNG images. Missing or broken
// slides are skipped, never fatal: the returned list contains only the
// captures that succeeded, in input order.
type Rasterizer interface {
	Capture(ctx context.Context, slideFiles []string, outputDir string, emit func(event.Event)) ([]string, error)
}

// RodRasterizer renders slides in headless Chrome via the DevTools protocol.
type RodRasterizer struct {
	logger   *zap.Logger
	width    int
	height   int
	headless bool
}

// NewRodRasterizer constructs a RodRasterizer. logger may be nil.
func NewRodRasterizer(logger *zap.Logger) *RodRasterizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RodRasterizer{
		logger:   logger,
		width:    viewportWidth,
		height:   viewportHeight,
		headless: true,
	}
}

// WithViewport returns a copy capturing at the given resolution. Non-positive
// dimensions keep the 1920x1080 default.
func (r *RodRasterizer) WithViewport(width, height int) *RodRasterizer {
	clone := *r
	if width > 0 && height > 0 {
		clone.width = width
		clone.height = height
	}
	return &clone
}

// WithHeadless toggles headless mode. A visible browser helps when debugging
// slide rendering.
func (r *RodRasterizer) WithHeadless(headless bool) *RodRasterizer {
	clone := *r
	clone.headless = headless
	return &clone
}

// Capture launches a browser, renders each slide at the configured viewport
// and writes
// screenshots/slide_N.png files. The error return covers browser bring-up
// only; per-slide failures are logged and skipped.
func (r *RodRasterizer) Capture(ctx context.Context, slideFiles []string, outputDir string, emit func(event.Event)) ([]string, error) {
	if len(slideFiles) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}

	launch := launcher.New().Headless(r.headless)
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             r.width,
		Height:            r.height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	total := len(slideFiles)
	var screenshots []string
	for i, slideFile := range slideFiles {
		number := i + 1
		path, err := r.captureOne(ctx, page, slideFile, outputDir, number)
		if err != nil {
			r.logger.Warn("skipping slide",
				zap.String("slide", slideFile),
				zap.Error(err))
			continue
		}
		screenshots = append(screenshots, path)
		if emit != nil {
			emit(event.New(event.TypeScreenshot, "", map[string]any{
				"slide_number": number,
				"total_slides": total,
				"filename":     filepath.Base(path),
			}))
		}
	}

	r.logger.Info("screenshot capture finished",
		zap.Int("captured", len(screenshots)),
		zap.Int("total", total))
	return screenshots, nil
}

func (r *RodRasterizer) captureOne(ctx context.Context, page *rod.Page, slideFile, outputDir string, number int) (string, error) {
	abs, err := filepath.Abs(slideFile)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("slide not found: %s", slideFile)
	}

	fileURL := "file://" + abs
	target := page.Context(ctx).Timeout(navigationTimeout)
	if err := target.Navigate(fileURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := target.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(settleDelay):
	}

	// Viewport-only capture keeps the 16:9 frame regardless of page height.
	data, err := page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}

	out := filepath.Join(outputDir, fmt.Sprintf("slide_%d.png", number))
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return out, nil
}

var _ Rasterizer = (*RodRasterizer)(nil)
