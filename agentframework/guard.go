// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Default circuit breaker settings.
const (
	defaultBreakerFailures uint32        = 5
	defaultBreakerTimeout  time.Duration = 30 * time.Second
	defaultBreakerInterval time.Duration = 60 * time.Second
)

// BreakerConfig configures [CircuitBreakerMiddleware]. Zero fields take the
// defaults.
type BreakerConfig struct {
	// Name identifies the breaker in state-change logs.
	Name string
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration
	// Interval clears failure counts while closed.
	Interval time.Duration
}

// CircuitBreakerMiddleware returns a [ChatMiddleware] that stops calling the
// model after repeated failures and fails fast with [ErrUnavailable] until
// the open period elapses. Invalid-request and content-filter errors are
// caller mistakes and never trip the circuit.
func CircuitBreakerMiddleware(cfg BreakerConfig, logger *slog.Logger) ChatMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = defaultBreakerFailures
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultBreakerTimeout
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaultBreakerInterval
	}
	if cfg.Name == "" {
		cfg.Name = "model"
	}

	cb := gobreaker.NewCircuitBreaker[*ChatResponse](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrInvalidRequest) ||
				errors.Is(err, ErrContentFilter) ||
				errors.Is(err, context.Canceled)
		},
	})

	return func(next ChatHandler) ChatHandler {
		return func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
			resp, err := cb.Execute(func() (*ChatResponse, error) {
				return next(ctx, messages, opts)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, cfg.Name, err)
			}
			return resp, err
		}
	}
}

// RateLimitMiddleware returns a [FunctionMiddleware] that waits on limiter
// before every tool call. A nil limiter disables limiting.
func RateLimitMiddleware(limiter *rate.Limiter) FunctionMiddleware {
	return func(next FunctionHandler) FunctionHandler {
		if limiter == nil {
			return next
		}
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, &ToolError{
					ToolName: tool.Name(),
					Message:  err.Error(),
					Err:      ErrRateLimited,
				}
			}
			return next(ctx, tool, args)
		}
	}
}
