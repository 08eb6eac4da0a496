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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/kadirpekel/usagegate/pkg/config"
	"github.com/kadirpekel/usagegate/pkg/kv"
	"github.com/kadirpekel/usagegate/pkg/quota"
)

// app bundles the config, store, and managers the quota commands share.
// The mutex only matters for serve, where a config reload can swap the
// managers underneath the sweep loop.
type app struct {
	loader *config.Loader
	pool   *config.DBPool
	store  kv.Store

	mu       sync.RWMutex
	cfg      *config.Config
	managers map[string]*quota.Manager
}

func openApp(ctx context.Context, cli *CLI, loaderOpts ...config.LoaderOption) (*app, error) {
	if cli.Config == "" {
		return nil, fmt.Errorf("--config is required")
	}

	_ = config.LoadEnvFiles()

	cfg, loader, err := config.LoadConfigFile(ctx, cli.Config, loaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg, loader: loader, pool: config.NewDBPool()}

	if cfg.Database != nil {
		db, err := a.pool.Get(cfg.Database)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store, err := kv.NewSQLStore(db, cfg.Database.Dialect())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
		a.store = store

		if id, err := kv.EnsureInstallationID(ctx, store); err == nil {
			slog.Debug("Using installation", "id", id)
		}
	} else {
		slog.Warn("No database configured, nothing will persist")
		a.store = kv.NewMemoryStore()
	}

	a.managers, err = quota.NewManagersFromConfig(cfg, a.store)
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func (a *app) close() {
	if a.loader != nil {
		a.loader.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) manager(feature string) (*quota.Manager, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	mgr, ok := a.managers[feature]
	if !ok {
		return nil, fmt.Errorf("feature %q not found in config", feature)
	}
	return mgr, nil
}

// policies snapshots the active quota policies by feature.
func (a *app) policies() map[string]quota.Policy {
	a.mu.RLock()
	defer a.mu.RUnlock()

	policies := make(map[string]quota.Policy, len(a.managers))
	for name, mgr := range a.managers {
		policies[name] = mgr.Policy()
	}
	return policies
}

// StatusCmd shows quota status for an owner across all features.
type StatusCmd struct {
	Owner   string `help:"Owner key (empty = anonymous)."`
	Feature string `arg:"" optional:"" help:"Feature to show (default: all)."`
}

func (c *StatusCmd) Run(cli *CLI) error {
	ctx := context.Background()

	a, err := openApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.close()

	var features []string
	if c.Feature != "" {
		if _, err := a.manager(c.Feature); err != nil {
			return err
		}
		features = []string{c.Feature}
	} else {
		for name := range a.policies() {
			features = append(features, name)
		}
		sort.Strings(features)
	}

	owner := quota.Scoped(c.Owner)
	fmt.Printf("Owner: %s\n\n", owner)

	for _, name := range features {
		mgr, err := a.manager(name)
		if err != nil {
			return err
		}
		mgr.SetOwner(owner)

		policy := mgr.Policy()
		status := "ok"
		if mgr.IsAtLimit(ctx) {
			status = "at limit"
		}
		fmt.Printf("  %-20s %d/%d used (%s, %s)\n",
			name, mgr.Used(ctx), policy.Limit, policy.Mode, status)
	}

	return nil
}

// ConsumeCmd records one use of a feature's quota.
type ConsumeCmd struct {
	Owner   string `help:"Owner key (empty = anonymous)."`
	Feature string `arg:"" help:"Feature to consume."`
	Force   bool   `help:"Consume even when the limit is reached."`
}

func (c *ConsumeCmd) Run(cli *CLI) error {
	ctx := context.Background()

	a, err := openApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.close()

	mgr, err := a.manager(c.Feature)
	if err != nil {
		return err
	}
	mgr.SetOwner(quota.Scoped(c.Owner))

	if !c.Force && !mgr.CanUse(ctx) {
		return fmt.Errorf("feature %q is at its limit (use --force to consume anyway)", c.Feature)
	}

	mgr.Consume(ctx)
	fmt.Printf("%s: %d remaining\n", c.Feature, mgr.Remaining(ctx))
	return nil
}

// ResetCmd clears an owner's stored quota window.
type ResetCmd struct {
	Owner   string `help:"Owner key (empty = anonymous)."`
	Feature string `arg:"" help:"Feature to reset."`
}

func (c *ResetCmd) Run(cli *CLI) error {
	ctx := context.Background()

	a, err := openApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.close()

	mgr, err := a.manager(c.Feature)
	if err != nil {
		return err
	}
	mgr.SetOwner(quota.Scoped(c.Owner))

	if err := mgr.ResetOwner(ctx); err != nil {
		return err
	}
	fmt.Printf("%s: reset, %d remaining\n", c.Feature, mgr.Remaining(ctx))
	return nil
}

// SweepCmd deletes expired quota records from the store.
type SweepCmd struct{}

func (c *SweepCmd) Run(cli *CLI) error {
	ctx := context.Background()

	a, err := openApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.close()

	deleted, err := quota.SweepExpired(ctx, a.store, a.policies(), time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d expired record(s)\n", deleted)
	return nil
}
