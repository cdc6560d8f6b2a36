// Package transform converts raw Matomo rows into normalized Umami records.
//
// Design goals:
//   - Totality: a row with missing optional fields still produces a record;
//     only a row missing its primary key or site is rejected.
//   - Determinism: identifiers derive from source primary keys, so re-running
//     a migration produces byte-identical records.
//   - No I/O: this package never touches a database or a file. Rows go in,
//     records come out, which keeps the whole layer testable without fixtures.
package transform

import (
	"fmt"
	"strings"
	"time"

	"matomo2umami/internal/mapping"
	"matomo2umami/internal/source"
)

// Umami column widths. Values are cut to these BEFORE quote escaping so the
// stored, unescaped value fits the column.
const (
	MaxBrowser  = 20
	MaxOS       = 20
	MaxDevice   = 20
	MaxScreen   = 11
	MaxLanguage = 35
	MaxRegion   = 20
	MaxCity     = 50
	MaxURLField = 500
	MaxHostname = 100
)

// Matomo action types joined in from log_action.
const (
	actionPageview = 1
	actionOutlink  = 2
	actionDownload = 3
)

// Umami event types.
const (
	EventTypePageview = 1
	EventTypeCustom   = 2
)

// Site binds one Matomo site to its Umami counterpart. The domain doubles as
// the fallback hostname for events whose action URL is missing.
type Site struct {
	MatomoID  int64
	WebsiteID string
	Domain    string
}

// Tables bundles the lookup tables a transform run uses. Deployments that
// want different fallback policies construct their own value.
type Tables struct {
	Browsers mapping.BrowserTable
	OSes     mapping.OSTable
	Devices  mapping.DeviceTable
	Regions  mapping.RegionTable
}

// DefaultTables returns the stock lookup tables.
func DefaultTables() Tables {
	return Tables{
		Browsers: mapping.Browsers,
		OSes:     mapping.OSes,
		Devices:  mapping.Devices,
		Regions:  mapping.Regions,
	}
}

// Session is one row of the Umami session table. Pointer fields render as
// NULL when nil.
type Session struct {
	SessionID string
	WebsiteID string
	Browser   *string
	OS        *string
	Device    *string
	Screen    *string
	Language  *string
	Country   *string
	Region    *string
	City      *string
	CreatedAt *time.Time
}

// Event is one row of the Umami website_event table.
type Event struct {
	EventID        string
	WebsiteID      string
	SessionID      string
	VisitID        string
	CreatedAt      *time.Time
	URLPath        *string
	URLQuery       *string
	ReferrerPath   *string
	ReferrerQuery  *string
	ReferrerDomain *string
	PageTitle      *string
	EventType      int
	EventName      *string
	Hostname       *string

	// TypeFallback is set when the source action type was outside the three
	// migrated kinds and the record fell back to a plain pageview.
	TypeFallback bool
}

// EventData is one row of the Umami event_data table, carrying the target
// URL of an outlink or download.
type EventData struct {
	EventDataID    string
	WebsiteID      string
	WebsiteEventID string
	DataKey        string
	StringValue    *string
	DataType       int
	CreatedAt      *time.Time
}

// SessionFromRow builds a session record from one log_visit row. The row
// must carry idvisit; everything else degrades to NULL or a table fallback.
func SessionFromRow(row source.Row, site Site, t Tables) (Session, error) {
	idvisit, ok := row.Int64("idvisit")
	if !ok {
		return Session{}, fmt.Errorf("transform: log_visit row without idvisit")
	}

	s := Session{
		SessionID: mapping.DeriveID(uint64(idvisit), "visit"),
		WebsiteID: site.WebsiteID,
	}

	browserCode, _ := row.String("config_browser_name")
	osCode, _ := row.String("config_os")
	s.Browser = strp(mapping.Truncate(t.Browsers.Map(browserCode), MaxBrowser))
	s.OS = strp(mapping.Truncate(t.OSes.Map(osCode), MaxOS))

	deviceCode, _ := row.Int64("config_device_type")
	s.Device = strp(mapping.Truncate(t.Devices.Map(deviceCode), MaxDevice))

	s.Screen = optTrunc(row, "config_resolution", MaxScreen)
	s.Language = optTrunc(row, "location_browser_lang", MaxLanguage)

	if c, ok := row.String("location_country"); ok && c != "" {
		cc := strings.ToUpper(c)
		if len(cc) > 2 {
			cc = cc[:2]
		}
		s.Country = &cc
	}
	s.Region = regionValue(row, s.Country, t.Regions)
	s.City = optTrunc(row, "location_city", MaxCity)

	if ts, ok := row.Time("visit_first_action_time"); ok {
		s.CreatedAt = &ts
	}
	return s, nil
}

// regionValue converts a Matomo region token and prefixes it with the
// country to form the ISO 3166-2 shape Umami expects. Tokens that already
// carry a dash are assumed converted.
func regionValue(row source.Row, country *string, regions mapping.RegionTable) *string {
	raw, ok := row.String("location_region")
	if !ok || raw == "" || country == nil {
		return nil
	}
	conv := regions.Convert(*country, raw)
	if !strings.Contains(conv, "-") {
		conv = *country + "-" + conv
	}
	return strp(mapping.Truncate(conv, MaxRegion))
}

// EventFromRow builds an event record, plus an event_data record when the
// action is an outlink or a download, from one joined log_link_visit_action
// row. The row must carry idlink_va and idvisit.
func EventFromRow(row source.Row, site Site) (Event, *EventData, error) {
	idlink, ok := row.Int64("idlink_va")
	if !ok {
		return Event{}, nil, fmt.Errorf("transform: action row without idlink_va")
	}
	idvisit, ok := row.Int64("idvisit")
	if !ok {
		return Event{}, nil, fmt.Errorf("transform: action row %d without idvisit", idlink)
	}

	e := Event{
		EventID:   mapping.DeriveID(uint64(idlink), "action"),
		WebsiteID: site.WebsiteID,
		SessionID: mapping.DeriveID(uint64(idvisit), "visit"),
		VisitID:   visitID(row, idlink),
	}

	if ts, ok := row.Time("server_time"); ok {
		e.CreatedAt = &ts
	}

	// Action URL, or the mapped domain's root when Matomo stored none.
	var page mapping.ParsedURL
	if name, ok := row.String("url_name"); ok && name != "" {
		page = mapping.ParseActionURL(name, optInt(row, "url_prefix"))
	} else {
		page = mapping.ParsedURL{Hostname: site.Domain, Path: "/"}
	}
	e.URLPath = strp(page.Path)
	e.URLQuery = page.Query
	e.Hostname = strp(page.Hostname)

	// Referrer: the per-action referrer wins, the visit-level one fills in.
	if ref, ok := row.String("ref_url"); ok && ref != "" {
		p := mapping.ParseActionURL(ref, optInt(row, "ref_url_prefix"))
		e.ReferrerDomain, e.ReferrerPath, e.ReferrerQuery = strp(p.Hostname), strp(p.Path), p.Query
	} else if ref, ok := row.String("referer_url"); ok && ref != "" {
		if p, ok := mapping.ParseReferrer(ref); ok {
			e.ReferrerDomain, e.ReferrerPath, e.ReferrerQuery = strp(p.Hostname), strp(p.Path), p.Query
		}
	}

	if title, ok := row.String("page_title"); ok {
		e.PageTitle = &title
	}

	actionType, _ := row.Int64("action_type")
	var data *EventData
	switch actionType {
	case actionPageview:
		e.EventType = EventTypePageview
	case actionOutlink:
		e.EventType = EventTypeCustom
		e.EventName = strp("outlink")
	case actionDownload:
		e.EventType = EventTypeCustom
		e.EventName = strp("download")
	default:
		e.EventType = EventTypePageview
		e.TypeFallback = true
	}

	if actionType == actionOutlink || actionType == actionDownload {
		data = &EventData{
			EventDataID:    mapping.DeriveID(uint64(idlink), "event_data"),
			WebsiteID:      site.WebsiteID,
			WebsiteEventID: e.EventID,
			DataKey:        "url",
			StringValue:    strp(page.FullURL()),
			DataType:       1, // string
			CreatedAt:      e.CreatedAt,
		}
	}
	return e, data, nil
}

// visitID derives the Umami visit identifier. Matomo's idpageview token
// groups the actions of one page view; actions without one (outlinks from
// old schema versions) get a per-action identifier instead.
func visitID(row source.Row, idlink int64) string {
	if tok, ok := row.String("idpageview"); ok && tok != "" {
		return mapping.DeriveID(mapping.PageviewTokenID(tok), "pageview")
	}
	if n, ok := row.Int64("idpageview"); ok && n != 0 {
		return mapping.DeriveID(uint64(n), "pageview")
	}
	return mapping.DeriveID(uint64(idlink), "pageview")
}

func strp(s string) *string { return &s }

func optTrunc(row source.Row, key string, max int) *string {
	v, ok := row.String(key)
	if !ok || v == "" {
		return nil
	}
	return strp(mapping.Truncate(v, max))
}

func optInt(row source.Row, key string) *int64 {
	v, ok := row.Int64(key)
	if !ok {
		return nil
	}
	return &v
}
