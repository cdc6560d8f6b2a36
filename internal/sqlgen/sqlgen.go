// Package sqlgen renders normalized records as PostgreSQL INSERT statements.
//
// Statements are plain text, meant to be piped into psql or applied over a
// driver connection. Every INSERT carries ON CONFLICT DO NOTHING on its
// primary key, so re-running a migration script is safe: rows already
// present are skipped, not duplicated.
//
// Escaping targets PostgreSQL with standard_conforming_strings on (the
// default): backslashes are literal, so only single quotes are doubled.
package sqlgen

import (
	"strconv"
	"strings"
	"time"

	"matomo2umami/internal/mapping"
	"matomo2umami/internal/transform"
)

// EscapeString renders an optional string as a quoted SQL literal, or NULL.
func EscapeString(v *string) string {
	if v == nil {
		return "NULL"
	}
	return "'" + strings.ReplaceAll(*v, "'", "''") + "'"
}

// EscapeStringN truncates to max characters and then escapes. Truncation
// happens first so the stored value, not the escaped text, fits the column;
// a doubled quote at the cut point would otherwise overflow it.
func EscapeStringN(v *string, max int) string {
	if v == nil {
		return "NULL"
	}
	cut := mapping.Truncate(*v, max)
	return EscapeString(&cut)
}

// Timestamp renders an optional timestamp as an ISO 8601 literal, or NULL.
func Timestamp(t *time.Time) string {
	if t == nil {
		return "NULL"
	}
	return "'" + t.Format("2006-01-02T15:04:05") + "'"
}

func quote(s string) string { return "'" + s + "'" }

// SessionInsert renders one batch INSERT for the session table.
func SessionInsert(batch []transform.Session) string {
	rows := make([]string, 0, len(batch))
	for _, s := range batch {
		vals := []string{
			quote(s.SessionID),
			quote(s.WebsiteID),
			EscapeString(s.Browser),
			EscapeString(s.OS),
			EscapeString(s.Device),
			EscapeString(s.Screen),
			EscapeString(s.Language),
			EscapeString(s.Country),
			EscapeString(s.Region),
			EscapeString(s.City),
			Timestamp(s.CreatedAt),
			"NULL", // distinct_id
		}
		rows = append(rows, "("+strings.Join(vals, ", ")+")")
	}
	return "INSERT INTO session (session_id, website_id, browser, os, device, screen, language, country, region, city, created_at, distinct_id)\nVALUES\n" +
		strings.Join(rows, ",\n") +
		"\nON CONFLICT (session_id) DO NOTHING;\n"
}

// EventInsert renders one batch INSERT for the website_event table.
func EventInsert(batch []transform.Event) string {
	rows := make([]string, 0, len(batch))
	for _, e := range batch {
		name := "NULL"
		if e.EventName != nil {
			name = quote(*e.EventName)
		}
		vals := []string{
			quote(e.EventID),
			quote(e.WebsiteID),
			quote(e.SessionID),
			Timestamp(e.CreatedAt),
			EscapeStringN(e.URLPath, transform.MaxURLField),
			EscapeStringN(e.URLQuery, transform.MaxURLField),
			EscapeStringN(e.ReferrerPath, transform.MaxURLField),
			EscapeStringN(e.ReferrerQuery, transform.MaxURLField),
			EscapeStringN(e.ReferrerDomain, transform.MaxURLField),
			EscapeStringN(e.PageTitle, transform.MaxURLField),
			itoa(e.EventType),
			name,
			quote(e.VisitID),
			"NULL", // tag
			EscapeStringN(e.Hostname, transform.MaxHostname),
		}
		rows = append(rows, "("+strings.Join(vals, ", ")+")")
	}
	return "INSERT INTO website_event (event_id, website_id, session_id, created_at, url_path, url_query, referrer_path, referrer_query, referrer_domain, page_title, event_type, event_name, visit_id, tag, hostname)\nVALUES\n" +
		strings.Join(rows, ",\n") +
		"\nON CONFLICT (event_id) DO NOTHING;\n"
}

// EventDataInsert renders one batch INSERT for the event_data table.
func EventDataInsert(batch []transform.EventData) string {
	rows := make([]string, 0, len(batch))
	for _, d := range batch {
		vals := []string{
			quote(d.EventDataID),
			quote(d.WebsiteID),
			quote(d.WebsiteEventID),
			quote(d.DataKey),
			EscapeStringN(d.StringValue, transform.MaxURLField),
			"NULL", // number_value
			"NULL", // date_value
			itoa(d.DataType),
			Timestamp(d.CreatedAt),
		}
		rows = append(rows, "("+strings.Join(vals, ", ")+")")
	}
	return "INSERT INTO event_data (event_data_id, website_id, website_event_id, data_key, string_value, number_value, date_value, data_type, created_at)\nVALUES\n" +
		strings.Join(rows, ",\n") +
		"\nON CONFLICT (event_data_id) DO NOTHING;\n"
}

func itoa(n int) string { return strconv.Itoa(n) }
