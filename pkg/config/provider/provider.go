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

// Package provider defines the config source abstraction.
//
// The library runs on-device, so the file provider is the only source;
// the abstraction keeps the loader testable with in-memory providers.
package provider

import (
	"context"
	"fmt"
)

// Type identifies the config source type.
type Type string

const (
	TypeFile   Type = "file"
	TypeStatic Type = "static"
)

// ParseType converts a string to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "file", "":
		return TypeFile, nil
	case "static":
		return TypeStatic, nil
	default:
		return "", fmt.Errorf("unknown provider type: %s", s)
	}
}

// Provider abstracts config sources.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Type returns the provider type for logging/debugging.
	Type() Type

	// Load reads raw config bytes from the source.
	Load(ctx context.Context) ([]byte, error)

	// Watch starts watching for changes and signals via the returned channel.
	// Cancel the context to stop watching.
	// Returns nil channel if watching is not supported.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases any resources held by the provider.
	Close() error
}

// StaticProvider serves fixed bytes; useful for tests and embedded defaults.
type StaticProvider struct {
	Data []byte
}

// Type returns TypeStatic.
func (p *StaticProvider) Type() Type { return TypeStatic }

// Load returns the fixed bytes.
func (p *StaticProvider) Load(ctx context.Context) ([]byte, error) {
	return p.Data, nil
}

// Watch is not supported for static providers.
func (p *StaticProvider) Watch(ctx context.Context) (<-chan struct{}, error) {
	return nil, nil
}

// Close is a no-op.
func (p *StaticProvider) Close() error { return nil }

// Ensure interface compliance at compile time.
var (
	_ Provider = (*FileProvider)(nil)
	_ Provider = (*StaticProvider)(nil)
)
