// Package sink abstracts where generated migration SQL goes: a script file
// for later review and psql, or straight into a live Umami database. The
// orchestrator speaks to one interface and never knows the difference.
package sink

import "context"

// Sink receives the migration output in order: comments and a Begin first,
// then batched statements, then Commit. Close releases resources and is
// safe to call after a failed run; an uncommitted transaction rolls back.
type Sink interface {
	// Comment records an informational line. An empty string emits a blank
	// separator in script output and is a no-op when applying directly.
	Comment(ctx context.Context, text string) error
	Begin(ctx context.Context) error
	Statement(ctx context.Context, sql string) error
	Commit(ctx context.Context) error
	Close(ctx context.Context) error
}
