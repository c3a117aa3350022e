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


package mock

import (
	"context"
	"sync"
	"time"

	"github.com/poiesic/epigraph/core"
	"github.com/poiesic/epigraph/graph"
)

// Call records one loader invocation, with entry/exit timestamps so tests
// can assert that gated calls never overlap in wall-clock time.
type Call struct {
	Episode core.Episode
	Bulk    bool
	Count   int // Episodes in the call (1 for single loads)
	Entered time.Time
	Exited  time.Time
	Err     error
}

// MockLoader is a test double for graph.Loader.
// EpisodeFunc and BulkFunc, when set, decide each call's outcome; otherwise
// calls succeed. All bookkeeping is thread-safe.
type MockLoader struct {
	mu    sync.Mutex
	calls []Call

	// EpisodeFunc decides the outcome of an AddEpisode call.
	EpisodeFunc func(episode core.Episode) error

	// BulkFunc decides the outcome of an AddEpisodeBulk call.
	BulkFunc func(episodes []core.Episode) error

	// Delay is held inside every call, to widen call windows in
	// concurrency tests.
	Delay time.Duration
}

var _ graph.BulkLoader = (*MockLoader)(nil)

// NewMockLoader creates a mock loader whose calls all succeed.
func NewMockLoader() *MockLoader {
	return &MockLoader{}
}

// AddEpisode implements graph.Loader.
func (m *MockLoader) AddEpisode(ctx context.Context, episode core.Episode) error {
	entered := time.Now()
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	var err error
	if m.EpisodeFunc != nil {
		err = m.EpisodeFunc(episode)
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Episode: episode,
		Count:   1,
		Entered: entered,
		Exited:  time.Now(),
		Err:     err,
	})
	m.mu.Unlock()
	return err
}

// AddEpisodeBulk implements graph.BulkLoader.
func (m *MockLoader) AddEpisodeBulk(ctx context.Context, episodes []core.Episode) error {
	entered := time.Now()
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	var err error
	if m.BulkFunc != nil {
		err = m.BulkFunc(episodes)
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Bulk:    true,
		Count:   len(episodes),
		Entered: entered,
		Exited:  time.Now(),
		Err:     err,
	})
	m.mu.Unlock()
	return err
}

// Calls returns a copy of all recorded calls in completion order.
func (m *MockLoader) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// EpisodeCalls returns only the single-episode calls.
func (m *MockLoader) EpisodeCalls() []Call {
	var out []Call
	for _, call := range m.Calls() {
		if !call.Bulk {
			out = append(out, call)
		}
	}
	return out
}

// BulkCalls returns only the bulk calls.
func (m *MockLoader) BulkCalls() []Call {
	var out []Call
	for _, call := range m.Calls() {
		if call.Bulk {
			out = append(out, call)
		}
	}
	return out
}

// SingleOnly hides the bulk capability of a MockLoader, for tests that need
// a loader without AddEpisodeBulk. It deliberately does not embed the mock,
// so a BulkLoader type assertion on it fails.
type SingleOnly struct {
	inner *MockLoader
}

var _ graph.Loader = SingleOnly{}

// NewSingleOnly wraps a mock loader so it only exposes graph.Loader.
func NewSingleOnly(inner *MockLoader) SingleOnly {
	return SingleOnly{inner: inner}
}

// AddEpisode implements graph.Loader.
func (s SingleOnly) AddEpisode(ctx context.Context, episode core.Episode) error {
	return s.inner.AddEpisode(ctx, episode)
}
