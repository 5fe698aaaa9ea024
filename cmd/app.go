// Package cmd wires the commitlens CLI commands to the engine.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/commitlens/internal/ai"
	"github.com/commitlens/internal/config"
	"github.com/commitlens/internal/engine"
	"github.com/commitlens/internal/git"
	"github.com/commitlens/internal/logging"
	"github.com/commitlens/internal/retry"
)

// loadConfig loads and validates configuration, applying the global log
// level before anything else runs.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := cfg.General.LogLevel
	if c.Bool("verbose") {
		logLevel = "debug"
	}
	logging.Setup(logLevel)

	return cfg, nil
}

// buildEngine assembles the engine with its git and AI collaborators. The
// returned cleanup closes the session log when one was opened.
func buildEngine(ctx context.Context, c *cli.Context, cfg *config.Config) (*engine.Engine, func(), error) {
	cleanup := func() {}

	aiName := cfg.General.DefaultAI
	if override := c.String("ai"); override != "" {
		aiName = override
	}

	connector, err := ai.NewFromConfig(ctx, aiName, cfg.AI[aiName], cfg.General.MaxDiffBytes)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create AI provider: %w", err)
	}

	if cfg.General.SessionLogs {
		session, err := logging.StartSession(uuid.NewString())
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to start session log: %w", err)
		}
		connector.SetSessionLogger(session)
		cleanup = session.Close
	}

	client := ai.NewResilientClient(connector, retryConfigFrom(cfg))
	vcs := git.NewService(".")
	ignore := engine.NewGlobIgnore(cfg.Ignore)

	eng := engine.New(vcs, client, ignore, engine.Options{
		HistoryCount: cfg.General.HistoryCount,
	})
	return eng, cleanup, nil
}

// retryConfigFrom maps the [retry] config section onto the LLM retry
// defaults.
func retryConfigFrom(cfg *config.Config) retry.RetryConfig {
	rc := retry.LLMRetryConfig()
	if cfg.Retry.MaxRetries > 0 {
		rc.MaxRetries = cfg.Retry.MaxRetries
	}
	if cfg.Retry.BaseDelayMS > 0 {
		rc.BaseDelay = time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond
	}
	return rc
}
