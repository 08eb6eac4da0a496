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

package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/kadirpekel/usagegate/pkg/kv"
)

// Gate limits how often something may be shown. It tracks when it was
// last marked and refuses within the cooldown, independent of any data
// freshness: a prompt's content may be perfectly fresh and still be too
// annoying to show again.
type Gate struct {
	name     string
	cooldown time.Duration
	now      func() time.Time

	store    kv.Store
	storeKey string

	mu        sync.Mutex
	lastShown time.Time
	loaded    bool
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateClock overrides the wall clock (for testing).
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

// WithGateStore persists the last-shown timestamp under key, so the
// cooldown survives restarts. Store failures degrade to in-memory
// tracking, same as the quota layer.
func WithGateStore(store kv.Store, key string) GateOption {
	return func(g *Gate) {
		g.store = store
		g.storeKey = key
	}
}

// NewGate creates a gate. A zero or negative cooldown always allows.
func NewGate(name string, cooldown time.Duration, opts ...GateOption) *Gate {
	g := &Gate{
		name:     name,
		cooldown: cooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow reports whether the cooldown has passed since the last Mark.
func (g *Gate) Allow(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.loadLocked(ctx)
	if g.lastShown.IsZero() {
		return true
	}
	return g.now().Sub(g.lastShown) >= g.cooldown
}

// Mark records that the gated thing was shown now.
func (g *Gate) Mark(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.loadLocked(ctx)
	g.lastShown = g.now()
	g.persistLocked(ctx)
}

// Reset clears the last-shown timestamp.
func (g *Gate) Reset(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastShown = time.Time{}
	g.loaded = true

	if g.store == nil {
		return nil
	}
	return g.store.Delete(ctx, g.storeKey)
}

func (g *Gate) loadLocked(ctx context.Context) {
	if g.loaded {
		return
	}
	g.loaded = true

	if g.store == nil {
		return
	}

	data, ok, err := g.store.Get(ctx, g.storeKey)
	if err != nil {
		slog.Warn("Gate store read failed, tracking in memory", "gate", g.name, "error", err)
		return
	}
	if !ok {
		return
	}

	unix, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		slog.Warn("Corrupted gate record, ignoring", "gate", g.name, "error", err)
		return
	}
	g.lastShown = time.Unix(unix, 0)
}

func (g *Gate) persistLocked(ctx context.Context) {
	if g.store == nil {
		return
	}

	data := []byte(strconv.FormatInt(g.lastShown.Unix(), 10))
	if err := g.store.Set(ctx, g.storeKey, data); err != nil {
		slog.Warn("Gate store write failed, tracking in memory", "gate", g.name, "error", err)
	}
}
