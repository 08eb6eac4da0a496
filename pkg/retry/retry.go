// Copyright 2025 Kadir Pekel
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

// Package retry runs fallible operations a bounded number of times with
// exponential backoff.
//
// The executor is deliberately error-content agnostic: it retries any
// failure the operation returns, and gives up only on attempt exhaustion
// or context cancellation. Classifying which errors deserve a retry is
// the caller's concern; wrap the operation if some failures are final.
//
// Delays are deterministic (initial * multiplier^attempt, no jitter), so
// a given spec always produces the same wait sequence.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kadirpekel/usagegate/pkg/observability"
)

const (
	DefaultMaxAttempts       = 3
	DefaultInitialDelay      = 500 * time.Millisecond
	DefaultBackoffMultiplier = 2.0
)

// Spec configures a bounded retry sequence.
type Spec struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// BackoffMultiplier scales the delay after each failure.
	BackoffMultiplier float64
}

// DefaultSpec returns the standard three-attempt spec
// (waits of 500ms and 1s between attempts).
func DefaultSpec() Spec {
	return Spec{
		MaxAttempts:       DefaultMaxAttempts,
		InitialDelay:      DefaultInitialDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// Validate checks the spec.
func (s Spec) Validate() error {
	if s.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if s.InitialDelay < 0 {
		return fmt.Errorf("initial delay must not be negative, got %v", s.InitialDelay)
	}
	if s.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff multiplier must be greater than 1, got %v", s.BackoffMultiplier)
	}
	return nil
}

// Delay returns the wait after the given zero-based failed attempt.
func (s Spec) Delay(attempt int) time.Duration {
	d := s.InitialDelay
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * s.BackoffMultiplier)
	}
	return d
}

// Error is returned when every attempt failed. It wraps the last
// attempt's error so errors.Is and errors.As see through it.
type Error struct {
	Attempts  int
	LastError error
}

func (e *Error) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.LastError)
}

func (e *Error) Unwrap() error {
	return e.LastError
}

// IsExhausted reports whether err is a retry exhaustion failure.
func IsExhausted(err error) bool {
	var re *Error
	return errors.As(err, &re)
}

// Executor runs operations under a Spec.
type Executor struct {
	spec    Spec
	name    string
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *observability.Metrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSleep overrides how the executor waits between attempts (for
// testing). The function must honor ctx cancellation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(metrics *observability.Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = metrics
	}
}

// NewExecutor creates an executor for one named operation class. The
// name only labels logs and metrics.
func NewExecutor(name string, spec Spec, opts ...ExecutorOption) (*Executor, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry spec for %q: %w", name, err)
	}

	e := &Executor{
		spec:  spec,
		name:  name,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Spec returns the executor's spec.
func (e *Executor) Spec() Spec {
	return e.spec
}

// Do runs op until it succeeds, attempts run out, or ctx is canceled.
// On exhaustion the returned *Error wraps op's last failure; a canceled
// context returns ctx.Err directly, never a retry error. Errors returned
// by op are never inspected: even a wrapped context error from some inner
// deadline is just another failed attempt.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < e.spec.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.metrics.RecordRetryAttempt(ctx, e.name)

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == e.spec.MaxAttempts-1 {
			break
		}

		delay := e.spec.Delay(attempt)
		slog.Debug("Operation failed, retrying",
			"operation", e.name, "attempt", attempt+1, "delay", delay, "error", err)

		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}

	e.metrics.RecordRetryExhausted(ctx, e.name)
	slog.Warn("Operation failed after all attempts",
		"operation", e.name, "attempts", e.spec.MaxAttempts, "error", lastErr)

	return &Error{Attempts: e.spec.MaxAttempts, LastError: lastErr}
}

// DoWithResult is Do for operations that return a value. On failure the
// zero value is returned alongside the error.
func DoWithResult[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
