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

package config

import "fmt"

// MetricsConfig defines metrics exposure configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// Addr is the listen address for the local scrape endpoint.
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// IsEnabled returns true if metrics collection is enabled.
func (c *MetricsConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// SetDefaults sets default values for MetricsConfig.
func (c *MetricsConfig) SetDefaults() {
	if c.Enabled == nil {
		c.Enabled = BoolPtr(false)
	}
	if c.Addr == "" {
		c.Addr = "localhost:9464"
	}
}

// Validate validates the MetricsConfig.
func (c *MetricsConfig) Validate() error {
	if c.IsEnabled() && c.Addr == "" {
		return fmt.Errorf("addr is required when metrics are enabled")
	}
	return nil
}
