package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matomo2umami/internal/migrate"
)

func TestFormatCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{1000000, "1,000,000"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, formatCount(tc.in))
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	f := flags{
		mysqlHost:     "db.internal",
		mysqlPort:     3307,
		mysqlUser:     "matomo",
		mysqlPassword: "secret",
		mysqlDatabase: "analytics",
		sourceKind:    "mysql",
		tablePrefix:   "matomo_",
		siteMappings:  []string{"1:550e8400-e29b-41d4-a716-446655440000:example.com"},
		startDate:     "2024-01-01",
		endDate:       "2024-06-01",
		batchSize:     500,
		output:        "out.sql",
		metricsJob:    "nightly",
	}

	cfg, err := buildConfig(f)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Source.Host)
	assert.Equal(t, 3307, cfg.Source.Port)
	assert.Equal(t, "matomo_", cfg.TablePrefix)
	assert.Equal(t, 500, cfg.BatchSize)
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "example.com", cfg.Sites[0].Domain)
	require.NotNil(t, cfg.Start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *cfg.Start)
	require.NotNil(t, cfg.End)
}

func TestBuildConfig_BadInputs(t *testing.T) {
	t.Parallel()

	_, err := buildConfig(flags{siteMappings: []string{"bogus"}})
	require.Error(t, err)

	_, err = buildConfig(flags{
		siteMappings: []string{"1:550e8400-e29b-41d4-a716-446655440000:example.com"},
		startDate:    "01/02/2024",
	})
	require.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	lo := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	hi := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)
	s := migrate.Summary{
		Sessions: 1234,
		Events:   5678,
		MinDate:  &lo,
		MaxDate:  &hi,
		Sites: []migrate.SiteSummary{
			{MatomoID: 1, Domain: "example.com", Sessions: 1234, Events: 5678},
		},
	}

	var b strings.Builder
	printSummary(&b, s)
	out := b.String()

	assert.Contains(t, out, "Migration Summary")
	assert.Contains(t, out, "1,234")
	assert.Contains(t, out, "5,678")
	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "Ready to migrate")
}

func TestPrintSummary_Empty(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	printSummary(&b, migrate.Summary{})
	out := b.String()

	assert.Contains(t, out, "No data found")
	assert.Contains(t, out, "no data found for the specified criteria")
}
