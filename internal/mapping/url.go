package mapping

import (
	"net/url"
	"strings"
)

// URLPrefixes is Matomo's URL compression table: log_action stores a URL as
// (url_prefix, suffix) where the prefix id selects the protocol/host prefix
// that was stripped at tracking time.
var URLPrefixes = map[int64]string{
	0: "", // legacy: hostname embedded in the suffix, no protocol
	1: "http://",
	2: "https://",
	3: "https://www.",
}

// ParsedURL is the ephemeral (hostname, path, query) triple the destination
// schema stores instead of a full URL. Query is nil when absent or empty:
// Umami's columns distinguish NULL from '' for reporting, so a trailing bare
// "?" must collapse to nil, never to an empty string.
type ParsedURL struct {
	Hostname string
	Path     string
	Query    *string
}

// FullURL reassembles the parsed parts into an absolute https URL. Used for
// the click-through target attached to outlink/download events.
func (p ParsedURL) FullURL() string {
	var b strings.Builder
	if p.Hostname != "" {
		b.WriteString("https://")
		b.WriteString(p.Hostname)
	}
	b.WriteString(p.Path)
	if p.Query != nil {
		b.WriteString("?")
		b.WriteString(*p.Query)
	}
	return b.String()
}

// ParseActionURL expands a compressed (suffix, prefix id) pair from
// log_action and splits it into hostname, path, and query.
//
// A nil prefix is treated as 0. Prefix 0 is special: outbound-link and
// download actions store absolute URLs under it, so the suffix may already
// embed a protocol; when it does not, https:// is assumed for parsing only
// and never becomes part of the output. All other prefixes resolve through
// URLPrefixes and are concatenated with the suffix before parsing.
func ParseActionURL(suffix string, prefix *int64) ParsedURL {
	var id int64
	if prefix != nil {
		id = *prefix
	}

	candidate := suffix
	if id != 0 {
		candidate = URLPrefixes[id] + suffix
	}
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	return splitURL(candidate)
}

// ParseReferrer splits a free-text referrer URL into (domain, path, query).
// Empty input yields (ok=false); a missing scheme is assumed to be https://
// for parsing only; a leading "www." is stripped from the domain because the
// destination normalizes it away while the source does not.
func ParseReferrer(raw string) (ParsedURL, bool) {
	if raw == "" {
		return ParsedURL{}, false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	p := splitURL(raw)
	p.Hostname = strings.TrimPrefix(p.Hostname, "www.")
	return p, true
}

// splitURL breaks an absolute URL into the ParsedURL triple. Path defaults
// to "/" and an absent or empty query becomes nil. Falls back to a manual
// split for the rare inputs net/url rejects (stray control characters);
// malformed tracking data should degrade, not fail.
func splitURL(full string) ParsedURL {
	u, err := url.Parse(full)
	if err != nil {
		return splitURLManual(full)
	}

	p := ParsedURL{Hostname: u.Host, Path: u.EscapedPath()}
	if p.Path == "" {
		p.Path = "/"
	}
	if q := u.RawQuery; q != "" {
		p.Query = &q
	}
	return p
}

func splitURLManual(full string) ParsedURL {
	if i := strings.Index(full, "://"); i >= 0 {
		full = full[i+3:]
	}

	var query *string
	if i := strings.IndexByte(full, '?'); i >= 0 {
		if q := full[i+1:]; q != "" {
			query = &q
		}
		full = full[:i]
	}

	host, path := full, "/"
	if i := strings.IndexByte(full, '/'); i >= 0 {
		host, path = full[:i], full[i:]
	}
	return ParsedURL{Hostname: host, Path: path, Query: query}
}
