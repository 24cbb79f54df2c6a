package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cexll/deckagent-go/pkg/config"
	"github.com/cexll/deckagent-go/pkg/model"
	"github.com/cexll/deckagent-go/pkg/model/anthropic"
	"github.com/cexll/deckagent-go/pkg/session"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "deckagent",
	Short: "Agent-driven PowerPoint generation",
	Long: `deckagent turns a conversational brief into a finished PPTX deck.

A chat agent collects the presentation requirements, a generation agent
writes the HTML slides, and an export pipeline rasterizes them with
headless Chrome and assembles the composite PPTX.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd, askCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func buildModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	factory := model.NewFactory(anthropic.NewProvider(nil))
	return factory.NewModel(ctx, model.ModelConfig{
		Provider: cfg.Model.Provider,
		Model:    cfg.Model.Model,
		APIKey:   cfg.Model.APIKey,
		BaseURL:  cfg.Model.BaseURL,
	})
}

func buildStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Store {
	case "sqlite":
		return session.NewSQLiteStore(resolveDir(cfg.Workspace.WorkDir, cfg.Session.SQLitePath))
	default:
		return session.NewMemoryStore(), nil
	}
}

// resolveDir anchors relative paths under the workspace root so every
// artifact of a run lands in one tree.
func resolveDir(workDir, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(workDir, dir)
}
