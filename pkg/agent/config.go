package agent

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the loop's exit discipline.
type Mode int

const (
	// ModeChat treats a text-only model response as the normal exit: the
	// text is the reply to the user.
	ModeChat Mode = iota
	// ModeGeneration requires the model to finish through the terminal
	// tool; a text-only response is a failure.
	ModeGeneration
)

const (
	defaultChatIterations       = 10
	defaultGenerationIterations = 30
	defaultChatMaxTokens        = 16000
	defaultGenerationMaxTokens  = 4000
)

// Config stores the coarse grained runtime settings for one Loop instance.
type Config struct {
	Name          string  `json:"name" yaml:"name"`
	Mode          Mode    `json:"mode" yaml:"mode"`
	SystemPrompt  string  `json:"system_prompt" yaml:"system_prompt"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	MaxTokens     int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature   float64 `json:"temperature" yaml:"temperature"`
}

// Validate enforces minimal structural guarantees.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("config name is required")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations cannot be negative: %d", c.MaxIterations)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens cannot be negative: %d", c.MaxTokens)
	}
	return nil
}

// Normalize fills unset fields with the per-mode defaults. Deterministic
// output (temperature 0) is the default for both modes.
func (c Config) Normalize() Config {
	if c.MaxIterations <= 0 {
		if c.Mode == ModeGeneration {
			c.MaxIterations = defaultGenerationIterations
		} else {
			c.MaxIterations = defaultChatIterations
		}
	}
	if c.MaxTokens <= 0 {
		if c.Mode == ModeGeneration {
			c.MaxTokens = defaultGenerationMaxTokens
		} else {
			c.MaxTokens = defaultChatMaxTokens
		}
	}
	return c
}
