// Package source defines the contract the migration core requires from the
// system it reads: run a parameterized query, consume the result one row at
// a time as field-name/value mappings. Concrete backends register themselves
// with a small factory, mirroring the pluggable-backend pattern used for the
// output sinks, so the orchestrator never imports a driver directly.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Row is one result row keyed by column name. Values carry whatever the
// backend driver produced; use the typed accessors to read them.
type Row map[string]any

// Int64 reads an integer column. ok is false when the column is absent,
// NULL, or not an integer type.
func (r Row) Int64(key string) (int64, bool) {
	switch v := r[key].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// String reads a text column. ok is false when the column is absent or NULL;
// driver-level []byte values are converted.
func (r Row) String(key string) (string, bool) {
	switch v := r[key].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

// Time reads a timestamp column. MySQL (with parseTime) yields time.Time
// directly; SQLite stores datetimes as text, so common layouts are parsed.
func (r Row) Time(key string) (time.Time, bool) {
	switch v := r[key].(type) {
	case time.Time:
		return v, true
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	}
	return time.Time{}, false
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Iterator yields rows one at a time without materializing the result set.
// Next returns (nil, nil) once the set is exhausted.
type Iterator interface {
	Next() (Row, error)
	Close() error
}

// Conn is the source collaborator: anything that can run a parameterized
// query and stream rows back satisfies the migration core's needs.
// Placeholders use '?' style.
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (Iterator, error)
	Close() error
}

// Config carries everything a backend may need to open a connection. MySQL
// uses the discrete fields; file-backed engines use DSN.
type Config struct {
	Kind     string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Factory opens a Conn for a Config. Backends register one per kind.
type Factory func(ctx context.Context, cfg Config) (Conn, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind. Typically called
// from backend packages' init() functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// Open dispatches to the registered factory for cfg.Kind.
func Open(ctx context.Context, cfg Config) (Conn, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("source: no backend registered for kind %q (registered: %s)",
			cfg.Kind, strings.Join(registered(), ", "))
	}
	return f(ctx, cfg)
}

func registered() []string {
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// RowsIterator adapts a database/sql result set to Iterator. Both bundled
// backends run on database/sql, so the scan loop lives here once.
type RowsIterator struct {
	rows *sql.Rows
	cols []string
}

// NewRowsIterator wraps rows. The column set is read up front; a column
// error closes the result set immediately.
func NewRowsIterator(rows *sql.Rows) (*RowsIterator, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("source: read columns: %w", err)
	}
	return &RowsIterator{rows: rows, cols: cols}, nil
}

// Next scans one row into a fresh Row map, or returns (nil, nil) at the end
// of the set.
func (it *RowsIterator) Next() (Row, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	vals := make([]any, len(it.cols))
	ptrs := make([]any, len(it.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("source: scan row: %w", err)
	}

	row := make(Row, len(it.cols))
	for i, c := range it.cols {
		row[c] = vals[i]
	}
	return row, nil
}

// Close releases the underlying result set.
func (it *RowsIterator) Close() error { return it.rows.Close() }
