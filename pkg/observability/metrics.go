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

// Package observability provides metrics for quota, retry, and cache
// activity. Metrics flow through an OpenTelemetry meter backed by a
// Prometheus exporter; a local scrape handler is exposed for debugging.
package observability

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig controls metrics collection.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Metrics holds the instruments recorded by the quota, retry, and cache
// layers. A nil *Metrics is valid: every Record method is a no-op on it,
// so callers never need to branch on whether metrics are enabled.
type Metrics struct {
	registry *promclient.Registry

	quotaChecks    metric.Int64Counter
	quotaDenials   metric.Int64Counter
	quotaConsumed  metric.Int64Counter
	retryAttempts  metric.Int64Counter
	retryExhausted metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
}

// InitMetrics creates the meter and instruments.
// Returns nil when disabled; nil is safe to record against.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	registry := promclient.NewRegistry()

	promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("usagegate")

	m := &Metrics{registry: registry}

	m.quotaChecks, err = meter.Int64Counter(
		"usagegate_quota_checks_total",
		metric.WithDescription("Total quota checks"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota checks counter: %w", err)
	}

	m.quotaDenials, err = meter.Int64Counter(
		"usagegate_quota_denials_total",
		metric.WithDescription("Quota checks that found the limit reached"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota denials counter: %w", err)
	}

	m.quotaConsumed, err = meter.Int64Counter(
		"usagegate_quota_consumed_total",
		metric.WithDescription("Total quota units consumed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota consumed counter: %w", err)
	}

	m.retryAttempts, err = meter.Int64Counter(
		"usagegate_retry_attempts_total",
		metric.WithDescription("Total retry executor attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry attempts counter: %w", err)
	}

	m.retryExhausted, err = meter.Int64Counter(
		"usagegate_retry_exhausted_total",
		metric.WithDescription("Retry sequences that exhausted all attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry exhausted counter: %w", err)
	}

	m.cacheHits, err = meter.Int64Counter(
		"usagegate_cache_hits_total",
		metric.WithDescription("Cache reads served from a fresh entry"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	m.cacheMisses, err = meter.Int64Counter(
		"usagegate_cache_misses_total",
		metric.WithDescription("Cache reads that required a fetch"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	return m, nil
}

// Handler returns an HTTP handler serving the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordQuotaCheck records a quota check and its outcome.
func (m *Metrics) RecordQuotaCheck(ctx context.Context, feature string, allowed bool) {
	if m == nil || m.quotaChecks == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("feature", feature))
	m.quotaChecks.Add(ctx, 1, attrs)
	if !allowed {
		m.quotaDenials.Add(ctx, 1, attrs)
	}
}

// RecordQuotaConsume records one consumed quota unit.
func (m *Metrics) RecordQuotaConsume(ctx context.Context, feature string) {
	if m == nil || m.quotaConsumed == nil {
		return
	}
	m.quotaConsumed.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", feature)))
}

// RecordRetryAttempt records one retry executor attempt.
func (m *Metrics) RecordRetryAttempt(ctx context.Context, operation string) {
	if m == nil || m.retryAttempts == nil {
		return
	}
	m.retryAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordRetryExhausted records a retry sequence that ran out of attempts.
func (m *Metrics) RecordRetryExhausted(ctx context.Context, operation string) {
	if m == nil || m.retryExhausted == nil {
		return
	}
	m.retryExhausted.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordCacheRead records a cache read as a hit or a miss.
func (m *Metrics) RecordCacheRead(ctx context.Context, name string, hit bool) {
	if m == nil || m.cacheHits == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache", name))
	if hit {
		m.cacheHits.Add(ctx, 1, attrs)
	} else {
		m.cacheMisses.Add(ctx, 1, attrs)
	}
}
