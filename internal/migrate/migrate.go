// Package migrate orchestrates a full migration run: count what is in
// scope, stream Matomo rows through the transforms, and hand batched SQL to
// a sink inside one transaction envelope.
//
// Design goals:
//
//  1. Streaming: rows are read, transformed, and written one at a time;
//     memory use is bounded by the batch size, never by the dataset.
//  2. Determinism: streams are ordered by source primary key, so two runs
//     over the same data emit identical scripts.
//  3. Accountability: every skipped or degraded row is counted and the
//     totals are reported at the end of the run.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"matomo2umami/internal/config"
	"matomo2umami/internal/metrics"
	"matomo2umami/internal/sink"
	"matomo2umami/internal/source"
	"matomo2umami/internal/sqlgen"
	"matomo2umami/internal/transform"
)

// Migrator runs migrations against one source connection.
type Migrator struct {
	conn   source.Conn
	cfg    config.Config
	tables transform.Tables
	log    zerolog.Logger
}

// New builds a Migrator. The connection stays owned by the caller.
func New(conn source.Conn, cfg config.Config, log zerolog.Logger) *Migrator {
	return &Migrator{
		conn:   conn,
		cfg:    cfg,
		tables: transform.DefaultTables(),
		log:    log,
	}
}

// Stats accumulates per-run record counts.
type Stats struct {
	Sessions         int64
	Events           int64
	EventData        int64
	SkippedNoMapping int64
	Malformed        int64
	TypeFallbacks    int64
	Batches          int64
}

// Summary describes what a run would migrate, for dry runs and headers.
type Summary struct {
	Sessions int64
	Events   int64
	MinDate  *time.Time
	MaxDate  *time.Time
	Sites    []SiteSummary
}

// SiteSummary is the per-site breakdown of a Summary.
type SiteSummary struct {
	MatomoID  int64
	WebsiteID string
	Domain    string
	Sessions  int64
	Events    int64
}

func (m *Migrator) filter() Filter {
	ids := make([]int64, 0, len(m.cfg.Sites))
	for _, s := range m.cfg.Sites {
		ids = append(ids, s.MatomoID)
	}
	return Filter{SiteIDs: ids, Start: m.cfg.Start, End: m.cfg.End}
}

func (m *Migrator) table(name string) string { return m.cfg.TablePrefix + name }

// countQuery runs a single-row COUNT(*) query aliased as cnt.
func (m *Migrator) countQuery(ctx context.Context, query string, args []any) (int64, error) {
	it, err := m.conn.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	row, err := it.Next()
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	n, _ := row.Int64("cnt")
	return n, nil
}

// CountSessions counts the visits in scope.
func (m *Migrator) CountSessions(ctx context.Context) (int64, error) {
	w := m.filter().sessionWhere()
	q := fmt.Sprintf("SELECT COUNT(*) AS cnt FROM %s v WHERE %s", m.table("log_visit"), w.sql)
	return m.countQuery(ctx, q, w.args)
}

// CountEvents counts the pageview, outlink, and download actions in scope.
func (m *Migrator) CountEvents(ctx context.Context) (int64, error) {
	w := m.filter().eventWhere()
	q := fmt.Sprintf(`SELECT COUNT(*) AS cnt
FROM %s lva
JOIN %s url_action ON lva.idaction_url = url_action.idaction
WHERE %s AND lva.idaction_url IS NOT NULL AND url_action.type IN (1, 2, 3)`,
		m.table("log_link_visit_action"), m.table("log_action"), w.sql)
	return m.countQuery(ctx, q, w.args)
}

// DateRange returns the first and last visit timestamps in scope, or nils
// when nothing matches.
func (m *Migrator) DateRange(ctx context.Context) (*time.Time, *time.Time, error) {
	w := m.filter().sessionWhere()
	q := fmt.Sprintf(
		"SELECT MIN(v.visit_first_action_time) AS min_date, MAX(v.visit_first_action_time) AS max_date FROM %s v WHERE %s",
		m.table("log_visit"), w.sql)

	it, err := m.conn.Query(ctx, q, w.args...)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()

	row, err := it.Next()
	if err != nil || row == nil {
		return nil, nil, err
	}
	var minDate, maxDate *time.Time
	if t, ok := row.Time("min_date"); ok {
		minDate = &t
	}
	if t, ok := row.Time("max_date"); ok {
		maxDate = &t
	}
	return minDate, maxDate, nil
}

// Summarize gathers totals, the date range, and the per-site breakdown. The
// independent count queries run concurrently; the source connection pool
// bounds the parallelism.
func (m *Migrator) Summarize(ctx context.Context) (Summary, error) {
	var s Summary
	s.Sites = make([]SiteSummary, len(m.cfg.Sites))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := m.CountSessions(gctx)
		s.Sessions = n
		return err
	})
	g.Go(func() error {
		n, err := m.CountEvents(gctx)
		s.Events = n
		return err
	})
	g.Go(func() error {
		lo, hi, err := m.DateRange(gctx)
		s.MinDate, s.MaxDate = lo, hi
		return err
	})

	for i, site := range m.cfg.Sites {
		g.Go(func() error {
			w := m.filter().sessionWhere().withExtra("v.idsite = ?", site.MatomoID)
			q := fmt.Sprintf("SELECT COUNT(*) AS cnt FROM %s v WHERE %s", m.table("log_visit"), w.sql)
			sessions, err := m.countQuery(gctx, q, w.args)
			if err != nil {
				return err
			}

			w = m.filter().eventWhere().withExtra(
				"lva.idsite = ? AND lva.idaction_url IS NOT NULL", site.MatomoID)
			q = fmt.Sprintf(`SELECT COUNT(*) AS cnt
FROM %s lva
JOIN %s url_action ON lva.idaction_url = url_action.idaction
WHERE %s AND url_action.type IN (1, 2, 3)`,
				m.table("log_link_visit_action"), m.table("log_action"), w.sql)
			events, err := m.countQuery(gctx, q, w.args)
			if err != nil {
				return err
			}

			s.Sites[i] = SiteSummary{
				MatomoID:  site.MatomoID,
				WebsiteID: site.WebsiteID,
				Domain:    site.Domain,
				Sessions:  sessions,
				Events:    events,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("migrate: summarize: %w", err)
	}
	return s, nil
}

// Run executes the full migration against snk. The sink receives a comment
// header, one BEGIN, all session batches, then all event and event_data
// batches, then one COMMIT.
func (m *Migrator) Run(ctx context.Context, snk sink.Sink) (Stats, error) {
	var stats Stats
	job := m.cfg.Metrics.Job

	m.log.Info().Msg("counting records to migrate")
	countStart := time.Now()
	sessions, err := m.CountSessions(ctx)
	var events int64
	if err == nil {
		events, err = m.CountEvents(ctx)
	}
	metrics.RecordStage(job, "count", err, time.Since(countStart))
	if err != nil {
		return stats, fmt.Errorf("migrate: count: %w", err)
	}

	m.log.Info().Int64("sessions", sessions).Int64("events", events).Msg("migration scope")
	if sessions == 0 && events == 0 {
		m.log.Warn().Msg("no data to migrate for the specified criteria")
		return stats, nil
	}
	return m.run(ctx, snk, stats, sessions, events)
}

func (m *Migrator) run(ctx context.Context, snk sink.Sink, stats Stats, sessions, events int64) (Stats, error) {
	job := m.cfg.Metrics.Job

	if err := m.writeHeader(ctx, snk, sessions, events); err != nil {
		return stats, err
	}
	if err := snk.Begin(ctx); err != nil {
		return stats, err
	}
	if err := snk.Comment(ctx, ""); err != nil {
		return stats, err
	}

	stageStart := time.Now()
	err := m.streamSessions(ctx, snk, &stats)
	metrics.RecordStage(job, "sessions", err, time.Since(stageStart))
	if err != nil {
		return stats, fmt.Errorf("migrate: sessions: %w", err)
	}

	if err := snk.Comment(ctx, ""); err != nil {
		return stats, err
	}

	stageStart = time.Now()
	err = m.streamEvents(ctx, snk, &stats)
	metrics.RecordStage(job, "events", err, time.Since(stageStart))
	if err != nil {
		return stats, fmt.Errorf("migrate: events: %w", err)
	}

	if err := snk.Comment(ctx, ""); err != nil {
		return stats, err
	}
	if err := snk.Commit(ctx); err != nil {
		return stats, err
	}

	metrics.RecordRows(job, "sessions", stats.Sessions)
	metrics.RecordRows(job, "events", stats.Events)
	metrics.RecordRows(job, "event_data", stats.EventData)
	metrics.RecordRows(job, "skipped_no_mapping", stats.SkippedNoMapping)
	metrics.RecordRows(job, "malformed", stats.Malformed)
	metrics.RecordRows(job, "type_fallback", stats.TypeFallbacks)
	metrics.RecordBatches(job, stats.Batches)

	m.log.Info().
		Int64("sessions", stats.Sessions).
		Int64("events", stats.Events).
		Int64("event_data", stats.EventData).
		Int64("skipped_no_mapping", stats.SkippedNoMapping).
		Int64("malformed", stats.Malformed).
		Int64("batches", stats.Batches).
		Msg("migration complete")
	return stats, nil
}

func (m *Migrator) writeHeader(ctx context.Context, snk sink.Sink, sessions, events int64) error {
	lines := []string{
		"Matomo to Umami Migration SQL",
		"Generated at: " + time.Now().Format(time.RFC3339),
		fmt.Sprintf("Sessions: %d", sessions),
		fmt.Sprintf("Events: %d", events),
	}
	if m.cfg.Start != nil {
		lines = append(lines, "Start date: "+m.cfg.Start.Format(time.RFC3339))
	}
	if m.cfg.End != nil {
		lines = append(lines, "End date: "+m.cfg.End.Format(time.RFC3339))
	}
	for _, l := range lines {
		if err := snk.Comment(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) streamSessions(ctx context.Context, snk sink.Sink, stats *Stats) error {
	w := m.filter().sessionWhere()
	q := fmt.Sprintf(`SELECT
	v.idvisit,
	v.idsite,
	v.visit_first_action_time,
	v.config_browser_name,
	v.config_os,
	v.config_device_type,
	v.config_resolution,
	v.location_browser_lang,
	v.location_country,
	v.location_region,
	v.location_city
FROM %s v
WHERE %s
ORDER BY v.idvisit`, m.table("log_visit"), w.sql)

	it, err := m.conn.Query(ctx, q, w.args...)
	if err != nil {
		return err
	}
	defer it.Close()

	if err := snk.Comment(ctx, "Sessions (from log_visit)"); err != nil {
		return err
	}
	if err := snk.Comment(ctx, ""); err != nil {
		return err
	}

	var (
		batch     = make([]transform.Session, 0, m.cfg.BatchSize)
		start     = time.Now()
		lastFlush = start
		lastTotal int64
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := snk.Statement(ctx, sqlgen.SessionInsert(batch)); err != nil {
			return err
		}
		stats.Batches++
		m.logFlush("sessions", stats.Batches, stats.Sessions, start, &lastFlush, &lastTotal)
		batch = batch[:0]
		return nil
	}

	for {
		row, err := it.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}

		idsite, _ := row.Int64("idsite")
		site, ok := m.cfg.SiteByID(idsite)
		if !ok {
			stats.SkippedNoMapping++
			continue
		}

		s, err := transform.SessionFromRow(row, site, m.tables)
		if err != nil {
			stats.Malformed++
			m.log.Warn().Err(err).Msg("skipping malformed visit row")
			continue
		}
		batch = append(batch, s)
		stats.Sessions++

		if len(batch) >= m.cfg.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (m *Migrator) streamEvents(ctx context.Context, snk sink.Sink, stats *Stats) error {
	w := m.filter().eventWhere()
	q := fmt.Sprintf(`SELECT
	lva.idlink_va,
	lva.idvisit,
	lva.idsite,
	lva.server_time,
	lva.idpageview,
	url_action.name AS url_name,
	url_action.url_prefix,
	url_action.type AS action_type,
	title_action.name AS page_title,
	ref_action.name AS ref_url,
	ref_action.url_prefix AS ref_url_prefix,
	v.referer_url
FROM %s lva
LEFT JOIN %s url_action ON lva.idaction_url = url_action.idaction
LEFT JOIN %s title_action ON lva.idaction_name = title_action.idaction
LEFT JOIN %s ref_action ON lva.idaction_url_ref = ref_action.idaction
LEFT JOIN %s v ON lva.idvisit = v.idvisit
WHERE %s AND lva.idaction_url IS NOT NULL AND url_action.type IN (1, 2, 3)
ORDER BY lva.idlink_va`,
		m.table("log_link_visit_action"), m.table("log_action"), m.table("log_action"),
		m.table("log_action"), m.table("log_visit"), w.sql)

	it, err := m.conn.Query(ctx, q, w.args...)
	if err != nil {
		return err
	}
	defer it.Close()

	for _, c := range []string{
		"Website Events (from log_link_visit_action)",
		"Outlinks and downloads also generate event_data entries",
		"",
	} {
		if err := snk.Comment(ctx, c); err != nil {
			return err
		}
	}

	var (
		batch     = make([]transform.Event, 0, m.cfg.BatchSize)
		dataBatch = make([]transform.EventData, 0, m.cfg.BatchSize)
		start     = time.Now()
		lastFlush = start
		lastTotal int64
	)
	flushEvents := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := snk.Statement(ctx, sqlgen.EventInsert(batch)); err != nil {
			return err
		}
		stats.Batches++
		m.logFlush("events", stats.Batches, stats.Events, start, &lastFlush, &lastTotal)
		batch = batch[:0]
		return nil
	}
	flushData := func() error {
		if len(dataBatch) == 0 {
			return nil
		}
		if err := snk.Statement(ctx, sqlgen.EventDataInsert(dataBatch)); err != nil {
			return err
		}
		stats.Batches++
		dataBatch = dataBatch[:0]
		return nil
	}

	for {
		row, err := it.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}

		idsite, _ := row.Int64("idsite")
		site, ok := m.cfg.SiteByID(idsite)
		if !ok {
			stats.SkippedNoMapping++
			continue
		}

		e, data, err := transform.EventFromRow(row, site)
		if err != nil {
			stats.Malformed++
			m.log.Warn().Err(err).Msg("skipping malformed action row")
			continue
		}
		if e.TypeFallback {
			stats.TypeFallbacks++
		}
		batch = append(batch, e)
		stats.Events++
		if data != nil {
			dataBatch = append(dataBatch, *data)
			stats.EventData++
		}

		if len(batch) >= m.cfg.BatchSize {
			if err := flushEvents(); err != nil {
				return err
			}
		}
		if len(dataBatch) >= m.cfg.BatchSize {
			if err := flushData(); err != nil {
				return err
			}
		}
	}
	if err := flushEvents(); err != nil {
		return err
	}
	return flushData()
}

// logFlush emits the per-batch progress line with instantaneous rows/sec.
func (m *Migrator) logFlush(stage string, batches, total int64, start time.Time, lastFlush *time.Time, lastTotal *int64) {
	now := time.Now()
	sinceLast := now.Sub(*lastFlush)
	rps := float64(0)
	if sinceLast > 0 {
		rps = float64(total-*lastTotal) / sinceLast.Seconds()
	}
	m.log.Debug().
		Str("stage", stage).
		Int64("batch", batches).
		Float64("rps", rps).
		Int64("total", total).
		Dur("elapsed", now.Sub(start)).
		Msg("batch flushed")
	*lastFlush = now
	*lastTotal = total
}
