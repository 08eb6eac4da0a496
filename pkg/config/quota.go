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

// QuotaConfig defines the quota policy for one gated feature.
type QuotaConfig struct {
	// Limit is the maximum number of uses per window.
	Limit int `yaml:"limit" json:"limit"`

	// Window is the reset mode ("weekly", "lifetime", or "duration").
	Window string `yaml:"window" json:"window"`

	// Duration is the window length. Required when window is "duration",
	// ignored otherwise.
	Duration time.Duration `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// SetDefaults sets default values for QuotaConfig.
func (c *QuotaConfig) SetDefaults() {
	if c.Window == "" {
		c.Window = "weekly"
	}
}

// Validate validates the QuotaConfig.
func (c *QuotaConfig) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", c.Limit)
	}

	switch c.Window {
	case "weekly", "lifetime":
		// No duration needed.
	case "duration":
		if c.Duration <= 0 {
			return fmt.Errorf("duration is required when window is 'duration'")
		}
	default:
		return fmt.Errorf("invalid window '%s', must be 'weekly', 'lifetime', or 'duration'", c.Window)
	}

	return nil
}
