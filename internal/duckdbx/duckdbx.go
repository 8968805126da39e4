// Copyright (C) 2025 Sanders Data, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package duckdbx provides access to a single in-memory DuckDB instance
// used as the aggregation engine. One job run owns one DB; nothing is
// shared across invocations.
package duckdbx

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"sync"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// ddlMu serializes extension and secret DDL. DuckDB extension loading
// may crash when run concurrently from multiple connections.
var ddlMu sync.Mutex

// DB wraps one DuckDB instance pinned to a single physical connection.
// Jobs are single-threaded; DuckDB parallelizes internally.
type DB struct {
	db   *sql.DB
	conn *sql.Conn

	memoryLimitMB int64
	tempDir       string
	threads       int

	s3Once sync.Once
	s3Err  error
}

type Option func(*DB)

// WithMemoryLimitMB caps DuckDB memory in megabytes (0 = unlimited).
func WithMemoryLimitMB(limit int64) Option {
	return func(d *DB) {
		d.memoryLimitMB = limit
	}
}

// WithTempDirectory sets the directory DuckDB spills to.
func WithTempDirectory(dir string) Option {
	return func(d *DB) {
		d.tempDir = dir
	}
}

// WithThreads overrides the engine thread count (0 = DuckDB default).
func WithThreads(n int) Option {
	return func(d *DB) {
		d.threads = n
	}
}

// Open creates an in-memory DuckDB instance and applies per-connection
// settings. Defaults come from DUCKDB_MEMORY_LIMIT (MB) and
// DUCKDB_TEMP_DIRECTORY when the options are not given.
func Open(ctx context.Context, opts ...Option) (*DB, error) {
	d := &DB{
		memoryLimitMB: envInt64("DUCKDB_MEMORY_LIMIT", 0),
		tempDir:       os.Getenv("DUCKDB_TEMP_DIRECTORY"),
	}
	for _, opt := range opts {
		opt(d)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// one physical connection for the whole run
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire duckdb connection: %w", err)
	}

	d.db = db
	d.conn = conn
	if err := d.setupConn(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	if d.conn != nil {
		_ = d.conn.Close()
	}
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// QueryContext runs a query on the instance's connection.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the instance's connection.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.conn.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement on the instance's connection.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.conn.ExecContext(ctx, query, args...)
}

func (d *DB) setupConn(ctx context.Context) error {
	if d.memoryLimitMB > 0 {
		if _, err := d.conn.ExecContext(ctx, fmt.Sprintf("SET memory_limit='%dMB';", d.memoryLimitMB)); err != nil {
			return fmt.Errorf("set memory_limit: %w", err)
		}
	}
	if d.tempDir != "" {
		if _, err := d.conn.ExecContext(ctx, fmt.Sprintf("SET temp_directory = '%s';", escapeSingle(d.tempDir))); err != nil {
			return fmt.Errorf("set temp_directory: %w", err)
		}
	}
	if d.threads > 0 {
		if _, err := d.conn.ExecContext(ctx, fmt.Sprintf("PRAGMA threads=%d;", d.threads)); err != nil {
			return fmt.Errorf("set threads: %w", err)
		}
	}
	// Keep DuckDB's object cache on to avoid repeated S3 GETs for parquet metadata.
	if _, err := d.conn.ExecContext(ctx, "PRAGMA enable_object_cache;"); err != nil {
		return fmt.Errorf("enable_object_cache: %w", err)
	}
	return nil
}

// QuoteLiteral returns s as a single-quoted SQL literal, for the few
// statements (COPY targets) DuckDB cannot parameterize.
func QuoteLiteral(s string) string {
	return "'" + escapeSingle(s) + "'"
}

func escapeSingle(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func envInt64(name string, def int64) int64 {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
