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
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	// DefaultConcurrency is the number of in-flight graph loader calls the
	// admission gate allows.
	DefaultConcurrency = 1

	// DefaultMaxConsecutiveFailures is how many segments may fail in a row
	// before the circuit breaker trips.
	DefaultMaxConsecutiveFailures = 3

	// DefaultCooldown is how long loading pauses after the breaker trips.
	DefaultCooldown = 60 * time.Second
)

// Context is the shared state of one ingestion run: a weighted admission
// gate bounding concurrent graph loader calls, and a consecutive-failure
// counter backing the circuit breaker. Safe for concurrent use.
type Context struct {
	gate     *semaphore.Weighted
	cooldown time.Duration
	logger   *slog.Logger

	mu             sync.Mutex
	consecutive    int
	maxConsecutive int
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithCooldown sets the pause duration applied when the breaker trips.
func WithCooldown(cooldown time.Duration) ContextOption {
	return func(c *Context) {
		if cooldown > 0 {
			c.cooldown = cooldown
		}
	}
}

// WithMaxConsecutiveFailures sets the breaker threshold.
func WithMaxConsecutiveFailures(limit int) ContextOption {
	return func(c *Context) {
		if limit > 0 {
			c.maxConsecutive = limit
		}
	}
}

// NewContext creates an ingestion context admitting up to concurrency
// simultaneous loader calls. Non-positive concurrency falls back to the
// default of one.
func NewContext(concurrency int, opts ...ContextOption) *Context {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	c := &Context{
		gate:           semaphore.NewWeighted(int64(concurrency)),
		cooldown:       DefaultCooldown,
		maxConsecutive: DefaultMaxConsecutiveFailures,
		logger:         slog.Default().With("component", "ingest-context"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire blocks until a loader call slot is free or ctx is done.
func (c *Context) Acquire(ctx context.Context) error {
	return c.gate.Acquire(ctx, 1)
}

// Release returns a loader call slot. Must pair with a successful Acquire.
func (c *Context) Release() {
	c.gate.Release(1)
}

// RecordSuccess resets the consecutive-failure counter.
func (c *Context) RecordSuccess() {
	c.mu.Lock()
	c.consecutive = 0
	c.mu.Unlock()
}

// RecordFailure bumps the consecutive-failure counter and reports whether
// the breaker tripped. A trip resets the counter so the next failure starts
// a fresh window.
func (c *Context) RecordFailure() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutive++
	if c.consecutive < c.maxConsecutive {
		return false
	}
	c.consecutive = 0
	return true
}

// ConsecutiveFailures returns the current failure streak.
func (c *Context) ConsecutiveFailures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutive
}

// Pause sleeps for the cooldown period, returning early if ctx is done.
func (c *Context) Pause(ctx context.Context) error {
	c.logger.Warn("circuit breaker tripped, pausing ingestion", "cooldown", c.cooldown)

	timer := time.NewTimer(c.cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
