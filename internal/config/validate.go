// This file adds a lightweight linter/validator for Config values. It
// performs static checks over an assembled Config and returns a list of
// issues (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"matomo2umami/internal/transform"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Config.
//
// Path is a dotted path into the config (e.g. "source.kind", "sites[1]").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of a Config. It does not mutate the
// config; callers decide whether warnings are fatal.
func Validate(c Config) []Issue {
	var issues []Issue

	issues = append(issues, validateSource(c.Source)...)
	issues = append(issues, validateSites(c.Sites)...)

	if c.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "batch_size",
			Message:  fmt.Sprintf("batch_size=%d; batches must hold at least one row", c.BatchSize),
		})
	}
	if strings.TrimSpace(c.TablePrefix) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "table_prefix",
			Message:  "empty table prefix; Matomo installations usually use \"piwik_\" or \"matomo_\"",
		})
	}
	if c.Start != nil && c.End != nil && !c.Start.Before(*c.End) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "start_date",
			Message:  "start date is not before end date; the window selects nothing",
		})
	}
	if c.ApplyDSN != "" && c.Output != "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output",
			Message:  "both a script output path and an apply DSN are set; pick one destination",
		})
	}

	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

func validateSource(s SourceConfig) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Unknown kinds are warnings: a backend may be registered by the caller.
	known := map[string]struct{}{
		"mysql":  {},
		"sqlite": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	switch s.Kind {
	case "mysql":
		if strings.TrimSpace(s.Host) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.host",
				Message:  "mysql source requires a host",
			})
		}
		if s.Port <= 0 || s.Port > 65535 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.port",
				Message:  fmt.Sprintf("port %d is outside 1-65535", s.Port),
			})
		}
		if strings.TrimSpace(s.Database) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.database",
				Message:  "mysql source requires a database name",
			})
		}
	case "sqlite":
		if strings.TrimSpace(s.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.dsn",
				Message:  "sqlite source requires a database file path",
			})
		}
	}

	return issues
}

func validateSites(sites []transform.Site) []Issue {
	var issues []Issue

	if len(sites) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sites",
			Message:  "no site mappings configured; every source row would be skipped",
		})
		return issues
	}

	seen := make(map[int64]int, len(sites))
	for i, s := range sites {
		if prev, dup := seen[s.MatomoID]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("sites[%d]", i),
				Message:  fmt.Sprintf("Matomo site %d already mapped at sites[%d]", s.MatomoID, prev),
			})
			continue
		}
		seen[s.MatomoID] = i
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue

	if m.Backend == "" {
		return issues
	}
	known := map[string]struct{}{
		"nop":        {},
		"prometheus": {},
		"datadog":    {},
	}
	if _, ok := known[m.Backend]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; ensure a matching implementation exists", m.Backend),
		})
	}
	if m.Backend == "prometheus" && strings.TrimSpace(m.PushURL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.push_url",
			Message:  "prometheus metrics backend requires a pushgateway URL",
		})
	}
	return issues
}
