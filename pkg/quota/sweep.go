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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kadirpekel/usagegate/pkg/kv"
)

// SweepExpired deletes stored windows that have expired, plus records that
// no longer decode. Managers roll windows forward lazily, so expired rows
// for owners who never return would otherwise accumulate forever.
//
// Lifetime policies are skipped; their records only leave via ResetOwner.
// Returns the number of records deleted.
func SweepExpired(ctx context.Context, store kv.Store, policies map[string]Policy, now time.Time) (int, error) {
	deleted := 0

	for feature, policy := range policies {
		if policy.Mode == WindowLifetime {
			continue
		}

		prefix := keyPrefix(feature, policy.Mode)
		keys, err := store.Keys(ctx, prefix)
		if err != nil {
			return deleted, fmt.Errorf("failed to list %s quota records: %w", feature, err)
		}

		for _, key := range keys {
			data, ok, err := store.Get(ctx, key)
			if err != nil {
				return deleted, fmt.Errorf("failed to read quota record %s: %w", key, err)
			}
			if !ok {
				continue
			}

			var w Window
			stale := false
			if err := json.Unmarshal(data, &w); err != nil || w.WindowStart.IsZero() {
				stale = true // undecodable record, managers would discard it anyway
			} else if policy.Expired(w.WindowStart, now) {
				stale = true
			}
			if !stale {
				continue
			}

			if err := store.Delete(ctx, key); err != nil {
				return deleted, fmt.Errorf("failed to delete quota record %s: %w", key, err)
			}
			deleted++
		}
	}

	if deleted > 0 {
		slog.Debug("Swept expired quota records", "deleted", deleted)
	}
	return deleted, nil
}
