// Package usagegate provides client-side usage gating: windowed quotas,
// bounded retries, and time-bounded caches for applications that must
// limit feature use without contacting a server on every check.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/kadirpekel/usagegate/cmd/usagegate@latest
//
// Define quotas in YAML:
//
//	database:
//	  driver: sqlite
//	  database: ./usagegate.db
//
//	quotas:
//	  ai_scan:
//	    limit: 3
//	    window: weekly
//	  barcode_scan:
//	    limit: 1
//	    window: lifetime
//
//	retries:
//	  upload:
//	    max_attempts: 3
//	    initial_delay: 500ms
//	    backoff_multiplier: 2.0
//
// Inspect and drive the store:
//
//	usagegate status --config config.yaml --owner user-1
//	usagegate consume ai_scan --config config.yaml --owner user-1
//
// # Using as Go Library
//
// Import the packages you need:
//
//	import (
//	    "github.com/kadirpekel/usagegate/pkg/quota"
//	    "github.com/kadirpekel/usagegate/pkg/retry"
//	    "github.com/kadirpekel/usagegate/pkg/cache"
//	    "github.com/kadirpekel/usagegate/pkg/kv"
//	)
//
// # Key Features
//
//   - Per-feature quota managers with weekly, lifetime, and fixed-duration
//     windows
//   - Owner scoping: per-user persisted counts, anonymous usage kept in
//     memory only
//   - Bounded retry executor with deterministic exponential backoff
//   - Single-value caches with TTL, fetch deduplication, and stale
//     fallback
//   - Durable key-value store over SQLite, MySQL, or PostgreSQL
//
// Everything here is a soft gate: local state improves UX but can be
// bypassed, so server-side enforcement remains the authority.
//
// # License
//
// Apache-2.0 - See LICENSE for details.
package usagegate
