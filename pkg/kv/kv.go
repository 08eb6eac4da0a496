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

// Package kv provides the durable key-value boundary the quota and cache
// layers persist through. Values are small serialized records keyed by
// namespaced strings; the store is scoped to a single installation.
//
// Two implementations are provided: MemoryStore for tests and ephemeral
// runs, and SQLStore backed by SQLite (default), MySQL, or PostgreSQL.
package kv

import (
	"context"
)

// Store is the persistence boundary for quota windows and cache records.
//
// Implementations must be safe for concurrent use. Get returns the stored
// value and whether the key was present; an absent key is not an error.
type Store interface {
	// Get returns the value stored under key, if any.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases store resources.
	Close() error
}

// Ensure interface compliance at compile time.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
