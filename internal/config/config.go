// Package config defines the configuration model for a migration run and the
// parsing helpers the CLI builds it from.
//
// Design goals:
//
//  1. Explicitness: every knob the migration honors is a named field here;
//     nothing is read from the environment behind the caller's back.
//  2. Fail early: site mappings and dates are parsed and validated before a
//     single database connection is opened.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"matomo2umami/internal/transform"
)

// Config describes one migration run end to end.
type Config struct {
	// Source selects and parameterizes the Matomo database backend.
	Source SourceConfig

	// Sites lists the Matomo-to-Umami site bindings. Source rows for sites
	// not listed here are skipped.
	Sites []transform.Site

	// Start and End bound the migration window. Start is inclusive, End is
	// exclusive; either may be nil for an open end.
	Start *time.Time
	End   *time.Time

	// BatchSize is the number of rows per INSERT statement.
	BatchSize int

	// TablePrefix is prepended to every Matomo table name in queries.
	// Matomo installations historically use "piwik_".
	TablePrefix string

	// Output is the script file path. Empty or "-" streams to stdout.
	// Ignored when ApplyDSN is set.
	Output string

	// ApplyDSN, when non-empty, switches the run from script generation to
	// executing the statements directly against this Umami database.
	ApplyDSN string

	Metrics MetricsConfig
}

// MetricsConfig selects the metrics backend. The default "nop" backend
// discards everything.
type MetricsConfig struct {
	Backend string
	PushURL string
	Job     string
}

// Default returns a Config with the conventional Matomo defaults filled in.
func Default() Config {
	return Config{
		Source: SourceConfig{
			Kind:     "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "password",
			Database: "matomo",
		},
		BatchSize:   1000,
		TablePrefix: "piwik_",
		Metrics: MetricsConfig{
			Backend: "nop",
			Job:     "matomo2umami",
		},
	}
}

// SourceConfig parameterizes the Matomo side. MySQL uses the discrete
// fields; the sqlite backend reads a snapshot file named by DSN.
type SourceConfig struct {
	Kind     string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// SiteByID returns the binding for a Matomo site id.
func (c Config) SiteByID(id int64) (transform.Site, bool) {
	for _, s := range c.Sites {
		if s.MatomoID == id {
			return s, true
		}
	}
	return transform.Site{}, false
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ParseSiteMapping parses one "matomo_id:umami_uuid:domain" binding. The id
// is taken from before the first colon and the domain from after the last,
// so a UUID that somehow carries colons still round-trips.
func ParseSiteMapping(s string) (transform.Site, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return transform.Site{}, fmt.Errorf(
			"invalid site mapping %q: expected matomo_id:umami_uuid:domain, e.g. 1:550e8400-e29b-41d4-a716-446655440000:example.com", s)
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return transform.Site{}, fmt.Errorf("invalid Matomo site ID %q: must be an integer", parts[0])
	}
	if id <= 0 {
		return transform.Site{}, fmt.Errorf("invalid Matomo site ID %q: must be a positive integer", parts[0])
	}

	domain := parts[len(parts)-1]
	uuid := strings.Join(parts[1:len(parts)-1], ":")

	if !uuidPattern.MatchString(uuid) {
		return transform.Site{}, fmt.Errorf(
			"invalid Umami UUID %q: expected xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx", uuid)
	}
	if domain == "" || strings.HasPrefix(domain, ".") || strings.Contains(domain, " ") {
		return transform.Site{}, fmt.Errorf("invalid domain %q: expected a hostname like example.com", domain)
	}

	return transform.Site{MatomoID: id, WebsiteID: strings.ToLower(uuid), Domain: domain}, nil
}

// ParseDate parses a migration window bound. Plain dates and full
// timestamps are both accepted.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD (e.g. 2024-01-15)", s)
}
