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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kadirpekel/usagegate/pkg/config"
	"github.com/kadirpekel/usagegate/pkg/observability"
	"github.com/kadirpekel/usagegate/pkg/quota"
)

// ServeCmd runs the store maintenance loop: periodic sweeps of expired
// quota records, optional config watching, and a metrics endpoint.
type ServeCmd struct {
	SweepInterval time.Duration `help:"Interval between expired-record sweeps." default:"1h"`
	Watch         bool          `help:"Watch config file for changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	var a *app
	a, err := openApp(ctx, cli, config.WithOnChange(func(cfg *config.Config) {
		a.reloadManagers(cfg)
	}))
	if err != nil {
		return err
	}
	defer a.close()

	metrics, err := observability.InitMetrics(ctx, observability.MetricsConfig{
		Enabled: a.cfg.Metrics.IsEnabled(),
		Addr:    a.cfg.Metrics.Addr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}

		go func() {
			slog.Info("Metrics endpoint listening", "addr", a.cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if c.Watch {
		go func() {
			if err := a.loader.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Config watch error", "error", err)
			}
		}()
	}

	slog.Info("Sweep loop started", "interval", c.SweepInterval)

	ticker := time.NewTicker(c.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			deleted, err := quota.SweepExpired(ctx, a.store, a.policies(), time.Now())
			if err != nil {
				slog.Warn("Sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("Swept expired quota records", "deleted", deleted)
			}
		}
	}
}

// reloadManagers rebuilds the quota managers after a config change.
// Managers are rebuilt wholesale; owners re-derive their windows from
// the store on the next check, so no counts are lost.
func (a *app) reloadManagers(cfg *config.Config) {
	managers, err := quota.NewManagersFromConfig(cfg, a.store)
	if err != nil {
		slog.Error("Ignoring config change, invalid quotas", "error", err)
		return
	}

	a.mu.Lock()
	a.cfg = cfg
	a.managers = managers
	a.mu.Unlock()

	slog.Info("Quota managers reloaded", "features", len(managers))
}
