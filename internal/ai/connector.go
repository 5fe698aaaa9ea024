// Package ai connects the grouping engine to large language model providers
// through langchain abstractions.
package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/commitlens/internal/logging"
	"github.com/commitlens/pkg/models"
)

// ProviderKind identifies an AI provider type
type ProviderKind string

const (
	ProviderOpenAI ProviderKind = "openai"
	ProviderGemini ProviderKind = "gemini"
	ProviderClaude ProviderKind = "claude"
	ProviderOllama ProviderKind = "ollama"
)

// ModelConfig contains the configuration for a specific model
type ModelConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Model       string  `json:"model,omitempty"`
}

// ConnectorOptions contains options for creating a connector
type ConnectorOptions struct {
	Provider     ProviderKind `json:"provider"`
	APIKey       string       `json:"api_key"`
	BaseURL      string       `json:"base_url,omitempty"`
	MaxDiffBytes int          `json:"max_diff_bytes,omitempty"`
	ModelConfig  ModelConfig  `json:"model_config,omitempty"`
}

// Connector sends grouping requests to one configured AI provider and
// streams the raw response text back to the caller chunk by chunk.
type Connector struct {
	provider ProviderKind
	llm      llms.Model
	options  ConnectorOptions
	session  *logging.SessionLogger
}

// NewConnector creates a new connector for the specified provider
func NewConnector(ctx context.Context, options ConnectorOptions) (*Connector, error) {
	var model llms.Model
	var err error

	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.ModelConfig.Model).
		Float64("temperature", options.ModelConfig.Temperature).
		Msg("Creating AI connector")

	switch options.Provider {
	case ProviderOpenAI:
		model, err = createOpenAIModel(options)
	case ProviderGemini:
		model, err = createGeminiModel(ctx, options)
	case ProviderClaude:
		model, err = createAnthropicModel(options)
	case ProviderOllama:
		model, err = createOllamaModel(options)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", options.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}

	return &Connector{
		provider: options.Provider,
		llm:      model,
		options:  options,
	}, nil
}

// SetSessionLogger attaches an optional per-analysis session logger.
func (c *Connector) SetSessionLogger(session *logging.SessionLogger) {
	c.session = session
}

// Name returns the provider name.
func (c *Connector) Name() string {
	return string(c.provider)
}

// Model returns the configured model name.
func (c *Connector) Model() string {
	return c.options.ModelConfig.Model
}

// RequestGrouping asks the model to partition the given changes into commit
// groups. Response text is delivered incrementally through onChunk when the
// provider supports streaming; the fully accumulated response is returned
// either way.
func (c *Connector) RequestGrouping(ctx context.Context, files []*models.FileChange, history []string, onChunk func(chunk []byte) error) (string, error) {
	prompt := BuildGroupingPrompt(files, history, c.options.MaxDiffBytes)

	c.session.LogPrompt(c.options.ModelConfig.Model, prompt)

	callOptions := []llms.CallOption{
		llms.WithTemperature(c.options.ModelConfig.Temperature),
	}
	if c.options.ModelConfig.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(c.options.ModelConfig.MaxTokens))
	}
	if onChunk != nil {
		callOptions = append(callOptions, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			return onChunk(chunk)
		}))
	}

	log.Debug().
		Str("provider", string(c.provider)).
		Int("files", len(files)).
		Int("prompt_bytes", len(prompt)).
		Msg("Requesting grouping from model")

	response, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, callOptions...)
	if err != nil {
		c.session.LogError("grouping request", err)
		return response, err
	}

	c.session.LogResponse(response)

	return response, nil
}

func createOpenAIModel(options ConnectorOptions) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(options.ModelConfig.Model),
		openai.WithToken(options.APIKey),
	}

	if options.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(options.BaseURL))
	}

	return openai.New(opts...)
}

func createGeminiModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithAPIKey(options.APIKey),
	}
	if options.ModelConfig.Model != "" {
		opts = append(opts, googleai.WithDefaultModel(options.ModelConfig.Model))
	}

	return googleai.New(ctx, opts...)
}

func createAnthropicModel(options ConnectorOptions) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithToken(options.APIKey),
		anthropic.WithModel(options.ModelConfig.Model),
	}

	return anthropic.New(opts...)
}

func createOllamaModel(options ConnectorOptions) (llms.Model, error) {
	if options.BaseURL == "" {
		options.BaseURL = "http://localhost:11434"
	}

	opts := []ollama.Option{
		ollama.WithServerURL(options.BaseURL),
		ollama.WithModel(options.ModelConfig.Model),
	}

	return ollama.New(opts...)
}
