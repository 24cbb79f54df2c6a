package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr           = ":8080"
	defaultModel          = "claude-sonnet-4-5-20250929"
	defaultProvider       = "anthropic"
	defaultWorkDir        = "."
	defaultUploadDir      = "uploads"
	defaultScreenshotDir  = "screenshots"
	defaultExportDir      = "exports"
	defaultStore          = "memory"
	defaultSQLitePath     = "sessions.db"
	defaultMaxUploadBytes = 16 << 20
)

// Config is the top level runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Agent     AgentConfig     `yaml:"agent"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Export    ExportConfig    `yaml:"export"`
	Session   SessionConfig   `yaml:"session"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// ModelConfig selects the model provider and credentials. APIKey falls back
// to the ANTHROPIC_API_KEY environment variable so keys stay out of files.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// AgentConfig overrides the loop budgets. Zero values keep the built-in
// per-mode defaults (chat 10/16000, generation 30/4000).
type AgentConfig struct {
	ChatMaxIterations       int `yaml:"chat_max_iterations"`
	ChatMaxTokens           int `yaml:"chat_max_tokens"`
	GenerationMaxIterations int `yaml:"generation_max_iterations"`
	GenerationMaxTokens     int `yaml:"generation_max_tokens"`
}

// ExportConfig tunes the rasterizer. Headless is a pointer so an explicit
// "headless: false" survives defaulting.
type ExportConfig struct {
	Headless       *bool `yaml:"headless"`
	ViewportWidth  int   `yaml:"viewport_width"`
	ViewportHeight int   `yaml:"viewport_height"`
}

// WorkspaceConfig locates the directories the generation session writes to.
type WorkspaceConfig struct {
	WorkDir       string `yaml:"work_dir"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	ExportDir     string `yaml:"export_dir"`
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Store      string `yaml:"store"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggingConfig tunes the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, decodes and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Decode(data)
}

// Decode parses a raw YAML payload into a validated Config.
func Decode(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = defaultUploadDir
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Model.Provider == "" {
		c.Model.Provider = defaultProvider
	}
	if c.Model.Model == "" {
		c.Model.Model = defaultModel
	}
	if c.Model.APIKey == "" {
		c.Model.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.Export.Headless == nil {
		headless := true
		c.Export.Headless = &headless
	}
	if c.Export.ViewportWidth <= 0 {
		c.Export.ViewportWidth = 1920
	}
	if c.Export.ViewportHeight <= 0 {
		c.Export.ViewportHeight = 1080
	}
	if c.Workspace.WorkDir == "" {
		c.Workspace.WorkDir = defaultWorkDir
	}
	if c.Workspace.ScreenshotDir == "" {
		c.Workspace.ScreenshotDir = defaultScreenshotDir
	}
	if c.Workspace.ExportDir == "" {
		c.Workspace.ExportDir = defaultExportDir
	}
	if c.Session.Store == "" {
		c.Session.Store = defaultStore
	}
	if c.Session.SQLitePath == "" {
		c.Session.SQLitePath = defaultSQLitePath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate enforces minimal structural guarantees. The API key is checked
// at model construction, not here, so offline commands still work.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	if c.Agent.ChatMaxIterations < 0 || c.Agent.ChatMaxTokens < 0 ||
		c.Agent.GenerationMaxIterations < 0 || c.Agent.GenerationMaxTokens < 0 {
		return errors.New("agent budgets cannot be negative")
	}
	switch c.Session.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("session.store must be memory or sqlite, got %q", c.Session.Store)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
