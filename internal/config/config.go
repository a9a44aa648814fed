/*
PURPOSE:
  Defines the configuration structure and loading logic for Chart Runner.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of the model server URL, prompt, and generation
    parameters without editing the binary.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Inference can take minutes per image; the model-load budget and the
    generation budget are separate knobs.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3 (standard for Go config)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default config file falls back to defaults, not an error.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults must match the published run-directory conventions
    (conversation template "phi", 1024 max new tokens).

USAGE:
  cfg, err := config.Load("chart_runner.yaml")

RELATED FILES:
  - internal/cli/root.go
  - internal/assets/assets.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thomasbw/chart-runner/internal/assets"
)

// Config represents the full configuration for Chart Runner.
type Config struct {
	// ServerURL is the base URL of the model-serving API.
	ServerURL string `yaml:"server_url"`
	// Model is the model name passed to the server on every request.
	Model string `yaml:"model"`
	// Prompt is the fixed instruction sent with every chart image.
	Prompt string `yaml:"prompt"`
	// ConversationTemplate names the prompt-formatting convention the
	// server applies when assembling the image+text input.
	ConversationTemplate string `yaml:"conversation_template"`
	// MaxNewTokens caps generation length per image.
	MaxNewTokens int `yaml:"max_new_tokens"`
	// LoadTimeout bounds the wait for the first response byte (covers
	// server-side model loading).
	LoadTimeout time.Duration `yaml:"load_timeout"`
	// InferTimeout bounds generation once the server has responded.
	InferTimeout time.Duration `yaml:"infer_timeout"`
	// OutRoot is where make-pred-dir creates run directories by default.
	OutRoot string `yaml:"out_root"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:            "http://localhost:8000",
		Model:                "TinyChart-3B-768",
		Prompt:               assets.DefaultPrompt(),
		ConversationTemplate: "phi",
		MaxNewTokens:         1024,
		LoadTimeout:          5 * time.Minute,
		InferTimeout:         10 * time.Minute,
		OutRoot:              "outputs/predict",
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		defaults := []string{"chart_runner.yaml", "runner.yaml"}
		found := false
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name // record which file we loaded
				found = true
				break
			}
		}
		if !found {
			// No config file found, return default
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
