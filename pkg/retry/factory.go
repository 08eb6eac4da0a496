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

package retry

import (
	"fmt"

	"github.com/kadirpekel/usagegate/pkg/config"
)

// SpecFromConfig converts a validated retry config section to a Spec.
func SpecFromConfig(cfg *config.RetryConfig) (Spec, error) {
	if cfg == nil {
		return Spec{}, fmt.Errorf("retry config is required")
	}

	s := Spec{
		MaxAttempts:       cfg.MaxAttempts,
		InitialDelay:      cfg.InitialDelay,
		BackoffMultiplier: cfg.BackoffMultiplier,
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// NewExecutorsFromConfig builds one Executor per configured operation class.
func NewExecutorsFromConfig(cfg *config.Config, opts ...ExecutorOption) (map[string]*Executor, error) {
	executors := make(map[string]*Executor, len(cfg.Retries))

	for name, rc := range cfg.Retries {
		spec, err := SpecFromConfig(rc)
		if err != nil {
			return nil, fmt.Errorf("retry '%s': %w", name, err)
		}

		exec, err := NewExecutor(name, spec, opts...)
		if err != nil {
			return nil, fmt.Errorf("retry '%s': %w", name, err)
		}
		executors[name] = exec
	}

	return executors, nil
}
