package migrate

import (
	"strings"
	"time"
)

// Filter narrows a migration run to a set of Matomo sites and a time
// window. Start is inclusive, End exclusive, either may be nil.
type Filter struct {
	SiteIDs []int64
	Start   *time.Time
	End     *time.Time
}

// whereClause is a parameterized WHERE fragment plus its arguments, built
// once and shared between the count, range, and streaming queries so they
// can never disagree about what is in scope.
type whereClause struct {
	sql  string
	args []any
}

// withExtra returns a copy with one more ANDed condition.
func (w whereClause) withExtra(cond string, args ...any) whereClause {
	return whereClause{
		sql:  w.sql + " AND " + cond,
		args: append(append([]any{}, w.args...), args...),
	}
}

// build assembles the clause for a given table alias and time column.
func (f Filter) build(alias, timeColumn string) whereClause {
	parts := []string{"1=1"}
	var args []any

	if len(f.SiteIDs) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?, ", len(f.SiteIDs)), ", ")
		parts = append(parts, alias+".idsite IN ("+ph+")")
		for _, id := range f.SiteIDs {
			args = append(args, id)
		}
	}
	if f.Start != nil {
		parts = append(parts, alias+"."+timeColumn+" >= ?")
		args = append(args, *f.Start)
	}
	if f.End != nil {
		parts = append(parts, alias+"."+timeColumn+" < ?")
		args = append(args, *f.End)
	}
	return whereClause{sql: strings.Join(parts, " AND "), args: args}
}

// sessionWhere scopes log_visit queries (alias v).
func (f Filter) sessionWhere() whereClause {
	return f.build("v", "visit_first_action_time")
}

// eventWhere scopes log_link_visit_action queries (alias lva).
func (f Filter) eventWhere() whereClause {
	return f.build("lva", "server_time")
}
