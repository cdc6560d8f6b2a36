package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"matomo2umami/internal/migrate"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

// printSummary renders the dry-run tables: overall totals plus the per-site
// breakdown.
func printSummary(w io.Writer, s migrate.Summary) {
	fmt.Fprintln(w, titleStyle.Render("Migration Summary"))

	overall := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers("Metric", "Value").
		Row("Total Sessions", formatCount(s.Sessions)).
		Row("Total Events", formatCount(s.Events))
	if s.MinDate != nil && s.MaxDate != nil {
		overall.
			Row("Date Range Start", s.MinDate.Format("2006-01-02 15:04:05")).
			Row("Date Range End", s.MaxDate.Format("2006-01-02 15:04:05"))
	} else {
		overall.Row("Date Range", "No data found")
	}
	fmt.Fprintln(w, overall.Render())

	if len(s.Sites) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Per-Site Breakdown"))
		sites := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle.Padding(0, 1)
				}
				return cellStyle
			}).
			Headers("Matomo ID", "Domain", "Sessions", "Events")
		for _, site := range s.Sites {
			sites.Row(
				strconv.FormatInt(site.MatomoID, 10),
				site.Domain,
				formatCount(site.Sessions),
				formatCount(site.Events),
			)
		}
		fmt.Fprintln(w, sites.Render())
	}

	if s.Sessions == 0 && s.Events == 0 {
		fmt.Fprintln(w, "Warning: no data found for the specified criteria.")
	} else {
		fmt.Fprintln(w, "Ready to migrate. Run without --dry-run to generate SQL.")
	}
}

// formatCount renders n with thousands separators.
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
