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

// LoggerConfig defines logging configuration.
type LoggerConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level,omitempty" json:"level,omitempty"`

	// Format is the output format ("simple" or "verbose").
	Format string `yaml:"format,omitempty" json:"format,omitempty"`

	// File is the log file path (empty = stderr).
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// SetDefaults sets default values for LoggerConfig.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// Validate validates the LoggerConfig.
func (c *LoggerConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logger.level '%s', must be 'debug', 'info', 'warn', or 'error'", c.Level)
	}

	switch c.Format {
	case "", "simple", "verbose":
	default:
		return fmt.Errorf("invalid logger.format '%s', must be 'simple' or 'verbose'", c.Format)
	}

	return nil
}
