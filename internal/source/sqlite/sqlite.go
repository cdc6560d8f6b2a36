// Package sqlite provides a file-backed source backend on modernc.org/sqlite.
// It exists for offline runs against a snapshot and for hermetic tests; the
// schema is expected to mirror the Matomo tables the migration reads.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"matomo2umami/internal/source"
)

func init() {
	source.Register("sqlite", openConn)
}

type conn struct {
	db *sql.DB
}

func openConn(ctx context.Context, cfg source.Config) (source.Conn, error) {
	dsn := cfg.DSN
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: no database path given")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	// modernc's driver is not safe for concurrent writes on one connection;
	// the migration only reads, but keep a single connection regardless so
	// in-memory databases see a consistent schema.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	return &conn{db: db}, nil
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (source.Iterator, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	return source.NewRowsIterator(rows)
}

func (c *conn) Close() error { return c.db.Close() }
