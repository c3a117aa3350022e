// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/poiesic/epigraph/graph"
)

// Retry policy defaults, tuned for rate-limited graph loader upstreams.
const (
	DefaultMaxAttempts  = 6
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultMaxDelay     = 30 * time.Second
	DefaultFactor       = 2.0
	DefaultJitter       = 0.3
)

// defaultRetryableMatch lists the substrings that mark an unknown error
// shape as a transient rate-limit or quota condition.
var defaultRetryableMatch = []string{
	"rate limit",
	"rate_limited",
	"429",
	"quota",
	"resource exhausted",
	"resource_exhausted",
	"insufficient_quota",
	"too many requests",
}

// RetryConfig holds the backoff and classification parameters for Retry.
// The zero value of a numeric field falls back to its default; an explicit
// zero Jitter is expressed with a negative value.
type RetryConfig struct {
	MaxAttempts  int           // Total attempts, including the first
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap for each backoff delay
	Factor       float64       // Multiplicative backoff factor
	Jitter       float64       // Symmetric jitter fraction of the delay

	// RetryableMatch overrides the substring classifier. Matching is
	// case-insensitive against the error text and only consulted after
	// structured error shapes.
	RetryableMatch []string
}

// DefaultRetryConfig returns the standard retry parameters.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Factor:       DefaultFactor,
		Jitter:       DefaultJitter,
	}
}

// normalized fills zero fields with defaults.
func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.Factor == 0 {
		c.Factor = DefaultFactor
	}
	if c.Factor < 1 {
		c.Factor = 1
	}
	if c.Jitter == 0 {
		c.Jitter = DefaultJitter
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}

// Retryable classifies an error as transient. Structured shapes from graph
// loader clients are checked first; unknown shapes fall back to the
// substring list.
func (c RetryConfig) Retryable(err error) bool {
	if err == nil {
		return false
	}
	// Context errors are a cancellation signal, never a transient fault.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if graph.IsRateLimit(err) {
		return true
	}
	var apiErr *graph.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	match := c.RetryableMatch
	if match == nil {
		match = defaultRetryableMatch
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range match {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// Retry invokes operation, retrying transient failures with exponential
// backoff and jitter. Fatal errors propagate immediately; after MaxAttempts
// transient failures the last error is returned. The policy keeps no state
// across invocations and is safe to use from concurrent goroutines.
func Retry(ctx context.Context, cfg RetryConfig, operation func() error) error {
	if cfg.MaxAttempts < 0 {
		return ErrInvalidMaxAttempts
	}
	cfg = cfg.normalized()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !cfg.Retryable(lastErr) {
			slog.Debug("error is not retryable", "attempt", attempt, "error", lastErr)
			return lastErr
		}

		// Don't sleep after the last attempt
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.delay(attempt)
		slog.Warn("retryable error, backing off",
			"attempt", attempt, "maxAttempts", cfg.MaxAttempts, "delay", delay, "error", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// delay computes the backoff for the given 1-indexed attempt:
// min(MaxDelay, InitialDelay * Factor^(attempt-1)), with symmetric jitter,
// clamped to [0, MaxDelay].
func (c RetryConfig) delay(attempt int) time.Duration {
	base := float64(c.InitialDelay) * math.Pow(c.Factor, float64(attempt-1))
	base = math.Min(base, float64(c.MaxDelay))

	if c.Jitter > 0 {
		amplitude := base * c.Jitter
		base += (rand.Float64()*2 - 1) * amplitude
	}

	base = math.Max(0, math.Min(base, float64(c.MaxDelay)))
	return time.Duration(base)
}
