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

package quota

import (
	"fmt"

	"github.com/kadirpekel/usagegate/pkg/config"
	"github.com/kadirpekel/usagegate/pkg/kv"
)

// PolicyFromConfig converts a validated quota config section to a Policy.
func PolicyFromConfig(cfg *config.QuotaConfig) (Policy, error) {
	if cfg == nil {
		return Policy{}, fmt.Errorf("quota config is required")
	}

	mode, err := ParseWindowMode(cfg.Window)
	if err != nil {
		return Policy{}, err
	}

	p := Policy{
		Limit:    cfg.Limit,
		Mode:     mode,
		Duration: cfg.Duration,
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// NewManagersFromConfig builds one Manager per configured feature, all
// sharing the given store.
func NewManagersFromConfig(cfg *config.Config, store kv.Store, opts ...Option) (map[string]*Manager, error) {
	managers := make(map[string]*Manager, len(cfg.Quotas))

	for feature, qc := range cfg.Quotas {
		policy, err := PolicyFromConfig(qc)
		if err != nil {
			return nil, fmt.Errorf("quota '%s': %w", feature, err)
		}

		mgr, err := NewManager(feature, policy, store, opts...)
		if err != nil {
			return nil, fmt.Errorf("quota '%s': %w", feature, err)
		}
		managers[feature] = mgr
	}

	return managers, nil
}
