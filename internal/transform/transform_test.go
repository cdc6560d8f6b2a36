package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matomo2umami/internal/mapping"
	"matomo2umami/internal/source"
)

var testSite = Site{
	MatomoID:  1,
	WebsiteID: "550e8400-e29b-41d4-a716-446655440000",
	Domain:    "example.com",
}

func TestSessionFromRow(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	row := source.Row{
		"idvisit":                 int64(5),
		"idsite":                  int64(1),
		"visit_first_action_time": created,
		"config_browser_name":     "CH",
		"config_os":               "WIN",
		"config_device_type":      int64(1),
		"config_resolution":       "1920x1080",
		"location_browser_lang":   "en-us",
		"location_country":        "ch",
		"location_region":         "26",
		"location_city":           "Zurich",
	}

	s, err := SessionFromRow(row, testSite, DefaultTables())
	require.NoError(t, err)

	assert.Equal(t, mapping.DeriveID(5, "visit"), s.SessionID)
	assert.Equal(t, testSite.WebsiteID, s.WebsiteID)
	assert.Equal(t, "chrome", *s.Browser)
	assert.Equal(t, "windows", *s.OS)
	assert.Equal(t, "mobile", *s.Device)
	assert.Equal(t, "1920x1080", *s.Screen)
	assert.Equal(t, "en-us", *s.Language)
	assert.Equal(t, "CH", *s.Country)
	assert.Equal(t, "CH-ZH", *s.Region, "numeric Matomo region converts then gains the country prefix")
	assert.Equal(t, "Zurich", *s.City)
	require.NotNil(t, s.CreatedAt)
	assert.True(t, created.Equal(*s.CreatedAt))
}

func TestSessionFromRow_SparseRow(t *testing.T) {
	t.Parallel()

	s, err := SessionFromRow(source.Row{"idvisit": int64(7)}, testSite, DefaultTables())
	require.NoError(t, err)

	assert.Equal(t, "unknown", *s.Browser, "missing browser code takes the table fallback")
	assert.Equal(t, "unknown", *s.OS)
	assert.Equal(t, "desktop", *s.Device)
	assert.Nil(t, s.Screen)
	assert.Nil(t, s.Language)
	assert.Nil(t, s.Country)
	assert.Nil(t, s.Region)
	assert.Nil(t, s.City)
	assert.Nil(t, s.CreatedAt)
}

func TestSessionFromRow_MissingPrimaryKey(t *testing.T) {
	t.Parallel()

	_, err := SessionFromRow(source.Row{"idsite": int64(1)}, testSite, DefaultTables())
	require.Error(t, err)
}

func TestSessionFromRow_RegionAlreadyPrefixed(t *testing.T) {
	t.Parallel()

	row := source.Row{
		"idvisit":          int64(1),
		"location_country": "de",
		"location_region":  "DE-BY",
	}
	s, err := SessionFromRow(row, testSite, DefaultTables())
	require.NoError(t, err)
	assert.Equal(t, "DE-BY", *s.Region, "dashed tokens pass through unprefixed")
}

func TestSessionFromRow_RegionWithoutCountry(t *testing.T) {
	t.Parallel()

	row := source.Row{
		"idvisit":         int64(1),
		"location_region": "26",
	}
	s, err := SessionFromRow(row, testSite, DefaultTables())
	require.NoError(t, err)
	assert.Nil(t, s.Region, "a region with no country cannot be prefixed and drops to NULL")
}

func eventRow() source.Row {
	return source.Row{
		"idlink_va":   int64(42),
		"idvisit":     int64(5),
		"idsite":      int64(1),
		"server_time": time.Date(2024, 3, 15, 10, 31, 0, 0, time.UTC),
		"idpageview":  "q7Xz9a",
		"url_name":    "example.com/blog/post?ref=home",
		"url_prefix":  int64(2),
		"action_type": int64(1),
		"page_title":  "My Blog Post",
	}
}

func TestEventFromRow_Pageview(t *testing.T) {
	t.Parallel()

	e, data, err := EventFromRow(eventRow(), testSite)
	require.NoError(t, err)
	assert.Nil(t, data, "pageviews carry no event_data")

	assert.Equal(t, mapping.DeriveID(42, "action"), e.EventID)
	assert.Equal(t, mapping.DeriveID(5, "visit"), e.SessionID)
	assert.Equal(t, mapping.DeriveID(mapping.PageviewTokenID("q7Xz9a"), "pageview"), e.VisitID)
	assert.Equal(t, EventTypePageview, e.EventType)
	assert.Nil(t, e.EventName)
	assert.Equal(t, "/blog/post", *e.URLPath)
	require.NotNil(t, e.URLQuery)
	assert.Equal(t, "ref=home", *e.URLQuery)
	assert.Equal(t, "example.com", *e.Hostname)
	assert.Equal(t, "My Blog Post", *e.PageTitle)
	assert.False(t, e.TypeFallback)
}

func TestEventFromRow_Outlink(t *testing.T) {
	t.Parallel()

	row := eventRow()
	row["action_type"] = int64(2)
	row["url_name"] = "https://github.com/some/repo"
	row["url_prefix"] = int64(0)

	e, data, err := EventFromRow(row, testSite)
	require.NoError(t, err)

	assert.Equal(t, EventTypeCustom, e.EventType)
	require.NotNil(t, e.EventName)
	assert.Equal(t, "outlink", *e.EventName)

	require.NotNil(t, data)
	assert.Equal(t, mapping.DeriveID(42, "event_data"), data.EventDataID)
	assert.Equal(t, e.EventID, data.WebsiteEventID)
	assert.Equal(t, "url", data.DataKey)
	require.NotNil(t, data.StringValue)
	assert.Equal(t, "https://github.com/some/repo", *data.StringValue)
	assert.Equal(t, 1, data.DataType)
}

func TestEventFromRow_Download(t *testing.T) {
	t.Parallel()

	row := eventRow()
	row["action_type"] = int64(3)
	row["url_name"] = "example.com/files/report.pdf"
	row["url_prefix"] = int64(2)

	e, data, err := EventFromRow(row, testSite)
	require.NoError(t, err)

	require.NotNil(t, e.EventName)
	assert.Equal(t, "download", *e.EventName)
	require.NotNil(t, data)
	assert.Equal(t, "https://example.com/files/report.pdf", *data.StringValue)
}

func TestEventFromRow_UnknownActionType(t *testing.T) {
	t.Parallel()

	row := eventRow()
	row["action_type"] = int64(9)

	e, data, err := EventFromRow(row, testSite)
	require.NoError(t, err)
	assert.Equal(t, EventTypePageview, e.EventType)
	assert.Nil(t, e.EventName)
	assert.Nil(t, data)
	assert.True(t, e.TypeFallback)
}

func TestEventFromRow_MissingURLFallsBackToDomain(t *testing.T) {
	t.Parallel()

	row := eventRow()
	delete(row, "url_name")
	delete(row, "url_prefix")

	e, _, err := EventFromRow(row, testSite)
	require.NoError(t, err)
	assert.Equal(t, "/", *e.URLPath)
	assert.Nil(t, e.URLQuery)
	assert.Equal(t, "example.com", *e.Hostname)
}

func TestEventFromRow_ReferrerPreference(t *testing.T) {
	t.Parallel()

	t.Run("action referrer wins", func(t *testing.T) {
		t.Parallel()

		row := eventRow()
		row["ref_url"] = "other.com/from-action"
		row["ref_url_prefix"] = int64(2)
		row["referer_url"] = "https://visit-level.com/ignored"

		e, _, err := EventFromRow(row, testSite)
		require.NoError(t, err)
		assert.Equal(t, "other.com", *e.ReferrerDomain)
		assert.Equal(t, "/from-action", *e.ReferrerPath)
	})

	t.Run("visit referrer fills in", func(t *testing.T) {
		t.Parallel()

		row := eventRow()
		row["referer_url"] = "https://www.google.com/search?q=test"

		e, _, err := EventFromRow(row, testSite)
		require.NoError(t, err)
		assert.Equal(t, "google.com", *e.ReferrerDomain, "visit-level referrer strips www.")
		assert.Equal(t, "/search", *e.ReferrerPath)
		require.NotNil(t, e.ReferrerQuery)
		assert.Equal(t, "q=test", *e.ReferrerQuery)
	})

	t.Run("no referrer", func(t *testing.T) {
		t.Parallel()

		e, _, err := EventFromRow(eventRow(), testSite)
		require.NoError(t, err)
		assert.Nil(t, e.ReferrerDomain)
		assert.Nil(t, e.ReferrerPath)
		assert.Nil(t, e.ReferrerQuery)
	})
}

func TestEventFromRow_MissingPageviewToken(t *testing.T) {
	t.Parallel()

	row := eventRow()
	delete(row, "idpageview")

	e, _, err := EventFromRow(row, testSite)
	require.NoError(t, err)
	assert.Equal(t, mapping.DeriveID(42, "pageview"), e.VisitID,
		"actions without a pageview token group by the action itself")
}

func TestEventFromRow_MissingPrimaryKeys(t *testing.T) {
	t.Parallel()

	_, _, err := EventFromRow(source.Row{"idvisit": int64(5)}, testSite)
	require.Error(t, err)

	_, _, err = EventFromRow(source.Row{"idlink_va": int64(42)}, testSite)
	require.Error(t, err)
}
