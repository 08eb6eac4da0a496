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
	"database/sql"
	"fmt"
	"time"
)

const (
	sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key VARCHAR(255) NOT NULL PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
	mysqlSchemaSQL = `
CREATE TABLE IF NOT EXISTS kv_entries (
    ` + "`key`" + ` VARCHAR(255) NOT NULL PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
	postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key VARCHAR(255) NOT NULL PRIMARY KEY,
    value BYTEA NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
)

// SQLStore is a SQL-backed implementation of Store.
// It supports SQLite (the default for on-device persistence), MySQL, and
// PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLStore creates a new SQL-backed store and initializes its schema.
// Supported dialects: "sqlite", "mysql", "postgres".
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "sqlite", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: sqlite, mysql, postgres)", dialect)
	}

	s := &SQLStore{
		db:      db,
		dialect: dialect,
	}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := sqliteSchemaSQL
	switch s.dialect {
	case "mysql":
		schema = mysqlSchemaSQL
	case "postgres":
		schema = postgresSchemaSQL
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create kv_entries table: %w", err)
	}

	return nil
}

// Get returns the value stored under key, if any.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := "SELECT value FROM kv_entries WHERE `key` = ?"
	switch s.dialect {
	case "sqlite":
		query = `SELECT value FROM kv_entries WHERE key = ?`
	case "postgres":
		query = `SELECT value FROM kv_entries WHERE key = $1`
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query key %q: %w", key, err)
	}

	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()

	var query string
	switch s.dialect {
	case "postgres":
		query = `
			INSERT INTO kv_entries (key, value, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key)
			DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`
	case "mysql":
		query = "INSERT INTO kv_entries (`key`, value, updated_at) VALUES (?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)"
	default:
		// SQLite
		query = `
			INSERT OR REPLACE INTO kv_entries (key, value, updated_at)
			VALUES (?, ?, ?)
		`
	}

	if _, err := s.db.ExecContext(ctx, query, key, value, now); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}

	return nil
}

// Delete removes key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := "DELETE FROM kv_entries WHERE `key` = ?"
	switch s.dialect {
	case "sqlite":
		query = `DELETE FROM kv_entries WHERE key = ?`
	case "postgres":
		query = `DELETE FROM kv_entries WHERE key = $1`
	}

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}

	return nil
}

// Keys returns all keys with the given prefix.
func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := "SELECT `key` FROM kv_entries WHERE `key` LIKE ? ESCAPE '|'"
	switch s.dialect {
	case "sqlite":
		query = `SELECT key FROM kv_entries WHERE key LIKE ? ESCAPE '|'`
	case "postgres":
		query = `SELECT key FROM kv_entries WHERE key LIKE $1 ESCAPE '|'`
	}

	rows, err := s.db.QueryContext(ctx, query, likePattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keys: %w", err)
	}

	return keys, nil
}

// likePattern escapes LIKE metacharacters in prefix and appends a wildcard.
// Storage keys contain underscores, so escaping is not optional here; '|'
// is used as the escape character because it works identically across all
// three dialects.
func likePattern(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+4)
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c == '%' || c == '_' || c == '|' {
			escaped = append(escaped, '|')
		}
		escaped = append(escaped, c)
	}
	return string(escaped) + "%"
}

// Close closes the store.
// Note: this does NOT close the underlying database connection, as that
// connection may be shared with other components.
func (s *SQLStore) Close() error {
	return nil
}

// Dialect returns the SQL dialect (for testing).
func (s *SQLStore) Dialect() string {
	return s.dialect
}
