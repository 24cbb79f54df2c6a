package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cexll/deckagent-go/pkg/agent"
	"github.com/cexll/deckagent-go/pkg/chat"
	"github.com/cexll/deckagent-go/pkg/export"
	"github.com/cexll/deckagent-go/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := buildModel(ctx, cfg)
	if err != nil {
		return err
	}
	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	workDir := cfg.Workspace.WorkDir
	slidesDir := resolveDir(workDir, "slides")
	screenshotDir := resolveDir(workDir, cfg.Workspace.ScreenshotDir)
	exportDir := resolveDir(workDir, cfg.Workspace.ExportDir)
	uploadDir := resolveDir(workDir, cfg.Server.UploadDir)
	for _, dir := range []string{workDir, slidesDir, screenshotDir, exportDir, uploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	rasterizer := export.NewRodRasterizer(logger).
		WithViewport(cfg.Export.ViewportWidth, cfg.Export.ViewportHeight).
		WithHeadless(*cfg.Export.Headless)
	pipeline := export.NewPipeline(rasterizer, screenshotDir, logger)
	generator, err := agent.NewGenerator(m, workDir, exportDir, pipeline, logger)
	if err != nil {
		return err
	}
	generator = generator.WithBudget(cfg.Agent.GenerationMaxIterations, cfg.Agent.GenerationMaxTokens)
	chatAgent, err := chat.New(m, generator, logger)
	if err != nil {
		return err
	}
	chatAgent = chatAgent.WithBudget(cfg.Agent.ChatMaxIterations, cfg.Agent.ChatMaxTokens)
	server, err := web.NewServer(chatAgent, store, uploadDir, cfg.Server.MaxUploadBytes, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("work_dir", workDir))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
