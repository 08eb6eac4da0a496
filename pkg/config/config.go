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

// Package config defines the configuration surface of usagegate.
//
// Each section owns its defaults and validation; the Loader assembles the
// pipeline: provider bytes, YAML/JSON parse, env-var expansion,
// mapstructure decode, defaults, validation.
package config

import "fmt"

// Config is the root configuration.
type Config struct {
	Version     string `yaml:"version,omitempty"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	Logger LoggerConfig `yaml:"logger,omitempty"`

	// Database backs the durable key-value store. Optional; when absent
	// the application runs with in-memory persistence only.
	Database *DatabaseConfig `yaml:"database,omitempty"`

	// Quotas maps feature names to their quota policies.
	Quotas map[string]*QuotaConfig `yaml:"quotas,omitempty"`

	// Retries maps operation names to retry specs.
	Retries map[string]*RetryConfig `yaml:"retries,omitempty"`

	// Caches maps cache names to freshness settings.
	Caches map[string]*CacheConfig `yaml:"caches,omitempty"`

	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// SetDefaults applies defaults to all sections.
func (c *Config) SetDefaults() {
	c.Logger.SetDefaults()
	if c.Database != nil {
		c.Database.SetDefaults()
	}
	for _, q := range c.Quotas {
		if q != nil {
			q.SetDefaults()
		}
	}
	for _, r := range c.Retries {
		if r != nil {
			r.SetDefaults()
		}
	}
	for _, cc := range c.Caches {
		if cc != nil {
			cc.SetDefaults()
		}
	}
	c.Metrics.SetDefaults()
}

// Validate validates all sections.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger validation failed: %w", err)
	}

	if c.Database != nil {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database validation failed: %w", err)
		}
	}

	for name, q := range c.Quotas {
		if q == nil {
			return fmt.Errorf("quota '%s' is empty", name)
		}
		if err := q.Validate(); err != nil {
			return fmt.Errorf("quota '%s' validation failed: %w", name, err)
		}
	}

	for name, r := range c.Retries {
		if r == nil {
			return fmt.Errorf("retry '%s' is empty", name)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("retry '%s' validation failed: %w", name, err)
		}
	}

	for name, cc := range c.Caches {
		if cc == nil {
			return fmt.Errorf("cache '%s' is empty", name)
		}
		if err := cc.Validate(); err != nil {
			return fmt.Errorf("cache '%s' validation failed: %w", name, err)
		}
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}

	return nil
}

// GetQuota returns the quota config for a feature.
func (c *Config) GetQuota(feature string) (*QuotaConfig, bool) {
	q, ok := c.Quotas[feature]
	return q, ok
}
