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

package kv

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// installationIDKey is reserved; feature keys never start with a dot so the
// record cannot collide with quota or cache entries.
const installationIDKey = ".installation_id"

// EnsureInstallationID returns the stable identifier for this installation,
// generating and persisting one on first use. The store is scoped to a
// single installation; this ID names that scope in logs and diagnostics.
func EnsureInstallationID(ctx context.Context, store Store) (string, error) {
	value, ok, err := store.Get(ctx, installationIDKey)
	if err != nil {
		return "", fmt.Errorf("failed to read installation id: %w", err)
	}
	if ok && len(value) > 0 {
		return string(value), nil
	}

	id := uuid.NewString()
	if err := store.Set(ctx, installationIDKey, []byte(id)); err != nil {
		return "", fmt.Errorf("failed to persist installation id: %w", err)
	}

	return id, nil
}
