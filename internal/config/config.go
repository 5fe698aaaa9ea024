// Package config loads commitlens configuration from TOML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	General struct {
		DefaultAI    string `koanf:"default_ai"`
		HookStrategy string `koanf:"hook_strategy"` // once | per-group | skip
		HistoryCount int    `koanf:"history_count"`
		LogLevel     string `koanf:"log_level"`
		SessionLogs  bool   `koanf:"session_logs"`
		MaxDiffBytes int    `koanf:"max_diff_bytes"` // per-file diff budget in the prompt
	} `koanf:"general"`

	AI     map[string]map[string]interface{} `koanf:"ai"`
	Ignore []string                          `koanf:"ignore"`

	Retry struct {
		MaxRetries  int `koanf:"max_retries"`
		BaseDelayMS int `koanf:"base_delay_ms"`
	} `koanf:"retry"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"general.default_ai":     "gemini",
		"general.hook_strategy":  "per-group",
		"general.history_count":  20,
		"general.log_level":      "info",
		"general.session_logs":   false,
		"general.max_diff_bytes": 12000,
		"retry.max_retries":      3,
		"retry.base_delay_ms":    2000,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./commitlens.toml", "$HOME/.commitlens.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix COMMITLENS_
	k.Load(env.Provider("COMMITLENS_", ".", envKeyTransform), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// envKeyTransform maps COMMITLENS_ environment variables onto config keys.
// The first segment selects the section and the remainder is the key name,
// which may itself contain underscores (COMMITLENS_GENERAL_DEFAULT_AI maps to
// general.default_ai). AI provider settings carry one extra level:
// COMMITLENS_AI_GEMINI_API_KEY maps to ai.gemini.api_key.
func envKeyTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "COMMITLENS_"))

	section, rest, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	if section == "ai" {
		provider, key, ok := strings.Cut(rest, "_")
		if ok {
			return section + "." + provider + "." + key
		}
	}
	return section + "." + rest
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# commitlens configuration

# Glob patterns excluded from analysis. Patterns ending in "/" match
# directory prefixes. Top-level key: must come before any section header.
ignore = ["*.lock", "vendor/", "node_modules/"]

[general]
default_ai = "gemini"
hook_strategy = "per-group"   # once | per-group | skip
history_count = 20
log_level = "info"
session_logs = false
max_diff_bytes = 12000

[ai.gemini]
api_key = "your-gemini-api-key"
model = "gemini-2.5-flash"
temperature = 0.2

[ai.openai]
api_key = "your-openai-api-key"
model = "gpt-4o-mini"

[ai.claude]
api_key = "your-anthropic-api-key"
model = "claude-sonnet-4-20250514"

[ai.ollama]
base_url = "http://localhost:11434"
model = "llama3"

[retry]
max_retries = 3
base_delay_ms = 2000
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0o644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.General.DefaultAI == "" {
		return fmt.Errorf("default AI provider is required")
	}

	switch config.General.HookStrategy {
	case "once", "per-group", "skip":
	default:
		return fmt.Errorf("invalid hook_strategy %q (want once, per-group, or skip)", config.General.HookStrategy)
	}

	if config.General.HistoryCount < 0 {
		return fmt.Errorf("history_count must be non-negative")
	}

	aiConfig, ok := config.AI[config.General.DefaultAI]
	if !ok {
		return fmt.Errorf("configuration for AI provider %s not found", config.General.DefaultAI)
	}

	// Ollama talks to a local server and needs no key
	if config.General.DefaultAI != "ollama" {
		if _, ok := aiConfig["api_key"]; !ok {
			return fmt.Errorf("%s api_key is required", config.General.DefaultAI)
		}
	}

	return nil
}
