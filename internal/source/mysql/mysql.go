// Package mysql provides the production source backend, reading a live
// Matomo database over github.com/go-sql-driver/mysql. Connection failures
// are classified into actionable messages so an operator can tell a wrong
// password from a missing database from an unreachable host.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"matomo2umami/internal/source"
)

func init() {
	source.Register("mysql", openConn)
}

type conn struct {
	db *sql.DB
}

func openConn(ctx context.Context, cfg source.Config) (source.Conn, error) {
	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.AllowNativePasswords = true

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, classify(err, cfg)
	}
	return &conn{db: db}, nil
}

// MySQL server error numbers surfaced with tailored guidance.
const (
	errAccessDenied = 1045
	errBadDatabase  = 1049
)

func classify(err error, cfg source.Config) error {
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errAccessDenied:
			return fmt.Errorf("mysql: access denied for user %q: check the username and password: %w", cfg.User, err)
		case errBadDatabase:
			return fmt.Errorf("mysql: database %q does not exist on %s:%d: %w", cfg.Database, cfg.Host, cfg.Port, err)
		}
		return fmt.Errorf("mysql: connect: %w", err)
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("mysql: cannot reach server at %s:%d: check the host, port, and firewall: %w", cfg.Host, cfg.Port, err)
	}
	return fmt.Errorf("mysql: connect: %w", err)
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (source.Iterator, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: query: %w", err)
	}
	return source.NewRowsIterator(rows)
}

func (c *conn) Close() error { return c.db.Close() }
