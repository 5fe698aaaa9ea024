package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/commitlens/internal/retry"
	"github.com/commitlens/pkg/models"
)

// SuggestionClient is the provider surface the resilient wrapper decorates.
type SuggestionClient interface {
	Name() string
	RequestGrouping(ctx context.Context, files []*models.FileChange, history []string, onChunk func(chunk []byte) error) (string, error)
}

// ResilientClient wraps a suggestion client with retry logic and request
// rate limiting. Retries apply only while no response chunk has been
// delivered; replaying a partially consumed stream would duplicate groups
// downstream.
type ResilientClient struct {
	inner       SuggestionClient
	retryConfig retry.RetryConfig
	limiter     *rate.Limiter
}

// NewResilientClient wraps inner with the given retry configuration and a
// provider-friendly request rate limit.
func NewResilientClient(inner SuggestionClient, config retry.RetryConfig) *ResilientClient {
	return &ResilientClient{
		inner:       inner,
		retryConfig: config,
		limiter:     rate.NewLimiter(rate.Every(1*time.Second), 5),
	}
}

// Name returns the wrapped provider's name.
func (rc *ResilientClient) Name() string {
	return rc.inner.Name()
}

// RequestGrouping forwards to the wrapped client with retry and rate
// limiting.
func (rc *ResilientClient) RequestGrouping(ctx context.Context, files []*models.FileChange, history []string, onChunk func(chunk []byte) error) (string, error) {
	var response string
	var streamErr error
	streamed := false

	wrapped := onChunk
	if onChunk != nil {
		wrapped = func(chunk []byte) error {
			streamed = true
			return onChunk(chunk)
		}
	}

	result := retry.RetryWithBackoffAndReason(ctx, rc.retryConfig, func() (error, string) {
		if err := rc.limiter.Wait(ctx); err != nil {
			return err, "rate_limit_wait"
		}

		out, err := rc.inner.RequestGrouping(ctx, files, history, wrapped)
		if err != nil {
			if streamed {
				// Surface mid-stream failures without another attempt.
				streamErr = err
				response = out
				return nil, "stream_interrupted"
			}
			return err, err.Error()
		}

		response = out
		return nil, "success"
	})

	if streamErr != nil {
		return response, streamErr
	}
	if !result.Success {
		return response, result.LastError
	}

	return response, nil
}
