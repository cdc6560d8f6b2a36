package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Apply executes the migration directly against an Umami PostgreSQL
// database over pgx. The whole run shares one transaction, matching the
// BEGIN/COMMIT envelope of script output: a failure mid-run leaves the
// target untouched.
type Apply struct {
	conn *pgx.Conn
	tx   pgx.Tx
	log  zerolog.Logger
}

// NewApply connects to the Umami database named by a pgx DSN or URL.
func NewApply(ctx context.Context, dsn string, log zerolog.Logger) (*Apply, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("sink: connect to umami database: %w", err)
	}
	log.Info().Str("database", conn.Config().Database).Msg("applying migration directly")
	return &Apply{conn: conn, log: log}, nil
}

// Comment logs the line instead of storing it anywhere.
func (a *Apply) Comment(_ context.Context, text string) error {
	if text != "" {
		a.log.Debug().Str("note", text).Msg("migration header")
	}
	return nil
}

func (a *Apply) Begin(ctx context.Context) error {
	tx, err := a.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("sink: begin transaction: %w", err)
	}
	a.tx = tx
	return nil
}

func (a *Apply) Statement(ctx context.Context, sql string) error {
	if a.tx == nil {
		return errors.New("sink: statement outside transaction")
	}
	if _, err := a.tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("sink: execute batch: %w", err)
	}
	return nil
}

func (a *Apply) Commit(ctx context.Context) error {
	if a.tx == nil {
		return errors.New("sink: commit outside transaction")
	}
	if err := a.tx.Commit(ctx); err != nil {
		return fmt.Errorf("sink: commit: %w", err)
	}
	a.tx = nil
	return nil
}

// Close rolls back any transaction still open and drops the connection.
func (a *Apply) Close(ctx context.Context) error {
	if a.tx != nil {
		if err := a.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			a.log.Warn().Err(err).Msg("rollback failed")
		}
		a.tx = nil
	}
	return a.conn.Close(ctx)
}
