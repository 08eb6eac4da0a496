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

import (
	"fmt"
	"time"
)

// CacheConfig defines freshness settings for one named cache.
type CacheConfig struct {
	// TTL is how long a fetched value stays fresh.
	TTL time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// Cooldown is the minimum interval between displays, for caches that
	// gate intrusive UI rather than fetches. Zero disables the gate.
	Cooldown time.Duration `yaml:"cooldown,omitempty" json:"cooldown,omitempty"`
}

// SetDefaults sets default values for CacheConfig.
func (c *CacheConfig) SetDefaults() {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
}

// Validate validates the CacheConfig.
func (c *CacheConfig) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must be non-negative")
	}
	return nil
}
