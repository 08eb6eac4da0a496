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
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/kadirpekel/usagegate/pkg/config"
)

// SchemaCmd generates JSON Schema from the config structs.
// Output is written to stdout so it can be redirected.
type SchemaCmd struct {
	// Compact enables compact JSON output (no indentation)
	Compact bool `short:"c" help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run(cli *CLI) error {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})

	schema.ID = "https://github.com/kadirpekel/usagegate/schemas/config.json"
	schema.Title = "usagegate Configuration Schema"
	schema.Description = "Configuration schema for quotas, retries, caches, and persistence"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schema.Examples = []interface{}{
		map[string]interface{}{
			"version": "1",
			"name":    "fitness-app",
			"database": map[string]interface{}{
				"driver":   "sqlite",
				"database": "./usagegate.db",
			},
			"quotas": map[string]interface{}{
				"ai_scan":      map[string]interface{}{"limit": 3, "window": "weekly"},
				"barcode_scan": map[string]interface{}{"limit": 1, "window": "lifetime"},
			},
			"retries": map[string]interface{}{
				"upload": map[string]interface{}{
					"max_attempts":       3,
					"initial_delay":      "500ms",
					"backoff_multiplier": 2.0,
				},
			},
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	return nil
}
