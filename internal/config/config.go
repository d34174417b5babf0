// Package config provides the Config struct and loader for .vocalis.yaml
// project-level configuration files, plus the backend factory that turns a
// backend kind and option map into a concrete adapter.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/vocalis-dev/vocalis/internal/backend"
)

// Default values for project configuration. Default() references them and no
// other code should duplicate them.
const (
	DefaultBackendKind = "llama-server"
	DefaultBaseURL     = "http://127.0.0.1:8080"
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.2
	DefaultTopP        = 0.9
	DefaultTimeoutSec  = 120
)

// Backend kinds accepted by NewBackend.
const (
	KindLlamaServer = "llama-server"
	KindOpenAI      = "openai"
	KindMock        = "mock"
)

// BackendConfig selects and configures a generation backend adapter. Options
// are decoded per kind, so each adapter can define its own fields.
type BackendConfig struct {
	Kind    string         `yaml:"kind,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
}

// PipelineConfig holds default sub-task toggles for runs.
type PipelineConfig struct {
	Rubric          *bool `yaml:"rubric,omitempty"`
	Evaluation      *bool `yaml:"evaluation,omitempty"`
	ModelSafetyScan *bool `yaml:"model_safety_scan,omitempty"`
	InjectionGuard  *bool `yaml:"injection_guard,omitempty"`
}

// Config is the project-level configuration.
type Config struct {
	Backend     BackendConfig  `yaml:"backend,omitempty"`
	Model       string         `yaml:"model,omitempty"`
	MaxTokens   int            `yaml:"max_tokens,omitempty"`
	Temperature *float64       `yaml:"temperature,omitempty"`
	TopP        *float64       `yaml:"top_p,omitempty"`
	PromptsFile string         `yaml:"prompts_file,omitempty"`
	Pipeline    PipelineConfig `yaml:"pipeline,omitempty"`
}

// Default returns a config populated with the package defaults.
func Default() *Config {
	temperature := DefaultTemperature
	topP := DefaultTopP

	return &Config{
		Backend: BackendConfig{
			Kind: DefaultBackendKind,
			Options: map[string]any{
				"base_url":    DefaultBaseURL,
				"timeout_sec": DefaultTimeoutSec,
			},
		},
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}
}

// Load reads a .vocalis.yaml file, filling unset fields from the defaults.
// A missing file yields the defaults without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = DefaultBackendKind
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return cfg, nil
}

// NewBackend builds the configured backend adapter.
func NewBackend(cfg BackendConfig) (backend.Backend, error) {
	switch cfg.Kind {
	case KindLlamaServer:
		var opts backend.LlamaServerOptions
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("invalid llama-server options: %w", err)
		}
		if opts.BaseURL == "" {
			opts.BaseURL = DefaultBaseURL
		}
		return backend.NewLlamaServerBackend(opts), nil

	case KindOpenAI:
		var opts backend.OpenAIOptions
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("invalid openai options: %w", err)
		}
		if opts.APIKey == "" {
			opts.APIKey = os.Getenv("VOCALIS_API_KEY")
		}
		if opts.BaseURL == "" {
			opts.BaseURL = os.Getenv("VOCALIS_BASE_URL")
		}
		if opts.Model == "" {
			opts.Model = DefaultModel
		}
		return backend.NewOpenAIBackend(opts), nil

	case KindMock:
		return backend.NewMockBackend(), nil

	default:
		return nil, fmt.Errorf("%q is not a valid backend kind (want %s, %s, or %s)",
			cfg.Kind, KindLlamaServer, KindOpenAI, KindMock)
	}
}
