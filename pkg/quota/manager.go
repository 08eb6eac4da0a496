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

package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kadirpekel/usagegate/pkg/kv"
	"github.com/kadirpekel/usagegate/pkg/observability"
)

// Manager tracks usage of one feature against its policy.
//
// All operations are keyed by the active owner. The manager is the sole
// writer of its storage key; a mutex serializes every read-modify-write so
// concurrent Consume calls cannot lose updates.
type Manager struct {
	feature string
	policy  Policy
	store   kv.Store
	metrics *observability.Metrics
	now     func() time.Time

	mu     sync.Mutex
	owner  Owner
	window *Window
	loaded bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock (for testing).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a quota manager for one feature.
// The manager starts in the anonymous state; call SetOwner once an
// authenticated identity is known.
func NewManager(feature string, policy Policy, store kv.Store, opts ...Option) (*Manager, error) {
	if feature == "" {
		return nil, fmt.Errorf("feature is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy for feature %q: %w", feature, err)
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	m := &Manager{
		feature: feature,
		policy:  policy,
		store:   store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Feature returns the feature name this manager gates.
func (m *Manager) Feature() string {
	return m.feature
}

// Policy returns the manager's policy.
func (m *Manager) Policy() Policy {
	return m.policy
}

// Owner returns the active owner.
func (m *Manager) Owner() Owner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner
}

// SetOwner switches the active subject. The previous owner's in-memory
// counter is dropped; the new owner's counter is re-derived from storage
// on the next check. Setting the same owner again is a no-op.
func (m *Manager) SetOwner(owner Owner) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner == m.owner && m.loaded {
		return
	}

	m.owner = owner
	m.window = nil
	m.loaded = false
}

// CanUse reports whether the current window has capacity, rolling the
// window forward first if it has expired.
func (m *Manager) CanUse(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := m.canUseLocked(ctx)
	m.metrics.RecordQuotaCheck(ctx, m.feature, allowed)
	return allowed
}

// IsAtLimit reports whether the current window is exhausted.
func (m *Manager) IsAtLimit(ctx context.Context) bool {
	return !m.CanUse(ctx)
}

// Remaining returns the number of uses left in the current window,
// clamped at zero.
func (m *Manager) Remaining(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.currentLocked(ctx)
	remaining := m.policy.Limit - w.Used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Consume records one use of the gated feature: rolls the window forward
// if expired, increments the counter, and persists the window.
//
// Call Consume only after the gated action actually happened; there is no
// undo. Persistence failures degrade to in-memory tracking and are never
// surfaced; losing a count on crash beats blocking the feature.
func (m *Manager) Consume(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.currentLocked(ctx)
	w.Used++
	m.persistLocked(ctx)
	m.metrics.RecordQuotaConsume(ctx, m.feature)
}

// Used returns the count consumed in the current window.
func (m *Manager) Used(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.currentLocked(ctx).Used
}

// ResetOwner clears the active owner's stored window. This is the
// external reset lifetime windows defer to (e.g. account deletion).
func (m *Manager) ResetOwner(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.window = nil
	m.loaded = false

	if m.owner.IsAnonymous() {
		return nil
	}
	if err := m.store.Delete(ctx, m.key()); err != nil {
		return fmt.Errorf("failed to reset %s quota for %s: %w", m.feature, m.owner, err)
	}
	return nil
}

func (m *Manager) canUseLocked(ctx context.Context) bool {
	return m.currentLocked(ctx).Used < m.policy.Limit
}

// currentLocked returns the active window, loading it lazily and rolling
// it forward if expired. The caller must hold m.mu.
func (m *Manager) currentLocked(ctx context.Context) *Window {
	if !m.loaded {
		m.window = m.load(ctx)
		m.loaded = true
	}

	if m.policy.Expired(m.window.WindowStart, m.now()) {
		m.window = m.freshWindow()
		m.persistLocked(ctx)
	}

	return m.window
}

// load re-derives the active owner's window from storage. Store failures
// and corrupted records both start a fresh window: a fresh window is the
// safe default, never "grant unlimited use".
func (m *Manager) load(ctx context.Context) *Window {
	if m.owner.IsAnonymous() {
		return m.freshWindow()
	}

	data, ok, err := m.store.Get(ctx, m.key())
	if err != nil {
		slog.Warn("Quota store read failed, tracking in memory",
			"feature", m.feature, "owner", m.owner, "error", err)
		return m.freshWindow()
	}
	if !ok {
		return m.freshWindow()
	}

	var w Window
	if err := json.Unmarshal(data, &w); err != nil || w.WindowStart.IsZero() {
		slog.Warn("Corrupted quota record, starting fresh window",
			"feature", m.feature, "owner", m.owner, "error", err)
		return m.freshWindow()
	}

	return &w
}

// persistLocked writes the active window. Anonymous usage is never
// persisted; write failures are logged and the in-memory window carries
// the count for the rest of the session.
func (m *Manager) persistLocked(ctx context.Context) {
	if m.owner.IsAnonymous() {
		return
	}

	data, err := json.Marshal(m.window)
	if err != nil {
		slog.Warn("Failed to encode quota window", "feature", m.feature, "error", err)
		return
	}

	if err := m.store.Set(ctx, m.key(), data); err != nil {
		slog.Warn("Quota store write failed, tracking in memory",
			"feature", m.feature, "owner", m.owner, "error", err)
	}
}

func (m *Manager) freshWindow() *Window {
	return &Window{
		OwnerKey:    m.owner.Key(),
		WindowStart: m.policy.NextStart(m.now()),
		Used:        0,
	}
}

func (m *Manager) key() string {
	return storageKey(m.feature, m.policy.Mode, m.owner)
}
