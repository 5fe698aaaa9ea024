package ai

import (
	"context"
	"fmt"
)

// NewFromConfig creates a connector for the named provider using its raw
// config section (as loaded from TOML, so numbers arrive as float64 or int64
// depending on the parser).
func NewFromConfig(ctx context.Context, name string, cfg map[string]interface{}, maxDiffBytes int) (*Connector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no configuration for AI provider %s", name)
	}

	options := ConnectorOptions{
		Provider:     ProviderKind(name),
		MaxDiffBytes: maxDiffBytes,
	}

	if apiKey, ok := cfg["api_key"].(string); ok {
		options.APIKey = apiKey
	}
	if baseURL, ok := cfg["base_url"].(string); ok {
		options.BaseURL = baseURL
	}
	if model, ok := cfg["model"].(string); ok {
		options.ModelConfig.Model = model
	}
	options.ModelConfig.Temperature = floatValue(cfg["temperature"])
	options.ModelConfig.MaxTokens = int(floatValue(cfg["max_tokens"]))

	return NewConnector(ctx, options)
}

// floatValue coerces the numeric types TOML and JSON decoding produce.
func floatValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
