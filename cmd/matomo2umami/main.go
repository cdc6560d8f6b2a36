// Command matomo2umami reads a Matomo database and emits the SQL that
// recreates its visits and actions as Umami sessions and events, either as
// a reviewable script or applied directly to the Umami database.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"matomo2umami/internal/config"
	"matomo2umami/internal/metrics"
	"matomo2umami/internal/metrics/datadog"
	"matomo2umami/internal/metrics/prompush"
	"matomo2umami/internal/migrate"
	"matomo2umami/internal/sink"
	"matomo2umami/internal/source"
	_ "matomo2umami/internal/source/all"
)

var version = "dev"

type flags struct {
	mysqlHost     string
	mysqlPort     int
	mysqlUser     string
	mysqlPassword string
	mysqlDatabase string
	sourceKind    string
	sqlitePath    string
	tablePrefix   string

	siteMappings []string
	startDate    string
	endDate      string

	output    string
	applyDSN  string
	batchSize int
	dryRun    bool

	metricsBackend string
	metricsPushURL string
	metricsJob     string
	datadogAddr    string

	verbose int
}

func main() {
	var f flags

	cmd := &cobra.Command{
		Use:           "matomo2umami",
		Short:         "Migrate Matomo analytics data to Umami",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.mysqlHost, "mysql-host", "localhost", "MySQL host")
	cmd.Flags().IntVar(&f.mysqlPort, "mysql-port", 3306, "MySQL port")
	cmd.Flags().StringVar(&f.mysqlUser, "mysql-user", "root", "MySQL user")
	cmd.Flags().StringVar(&f.mysqlPassword, "mysql-password", "password", "MySQL password")
	cmd.Flags().StringVar(&f.mysqlDatabase, "mysql-database", "matomo", "MySQL database")
	cmd.Flags().StringVar(&f.sourceKind, "source", "mysql", "Source backend (mysql, sqlite)")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite-path", "", "Path to a SQLite snapshot of the Matomo database (source=sqlite)")
	cmd.Flags().StringVar(&f.tablePrefix, "table-prefix", "piwik_", "Matomo table name prefix")

	cmd.Flags().StringArrayVar(&f.siteMappings, "site-mapping", nil,
		"Site mapping MATOMO_ID:UMAMI_UUID:DOMAIN (can specify multiple times)")
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "Start date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "End date, exclusive (YYYY-MM-DD)")

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&f.applyDSN, "apply-dsn", "", "Apply statements directly to this Umami PostgreSQL DSN instead of writing a script")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 1000, "Rows per INSERT statement")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show migration summary without generating SQL")

	cmd.Flags().StringVar(&f.metricsBackend, "metrics-backend", "nop", "Metrics backend (nop, prometheus, datadog)")
	cmd.Flags().StringVar(&f.metricsPushURL, "metrics-push-url", "", "Prometheus Pushgateway URL")
	cmd.Flags().StringVar(&f.metricsJob, "metrics-job", "matomo2umami", "Metrics job name")
	cmd.Flags().StringVar(&f.datadogAddr, "datadog-addr", "127.0.0.1:8125", "DogStatsD address (metrics-backend=datadog)")

	cmd.Flags().CountVarP(&f.verbose, "verbose", "v", "Increase verbosity (-v for info, -vv for debug)")

	cobra.CheckErr(cmd.MarkFlagRequired("site-mapping"))

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(verbosity int) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbosity == 1:
		level = zerolog.InfoLevel
	case verbosity >= 2:
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func buildConfig(f flags) (config.Config, error) {
	cfg := config.Default()
	cfg.Source = config.SourceConfig{
		Kind:     f.sourceKind,
		DSN:      f.sqlitePath,
		Host:     f.mysqlHost,
		Port:     f.mysqlPort,
		User:     f.mysqlUser,
		Password: f.mysqlPassword,
		Database: f.mysqlDatabase,
	}
	cfg.BatchSize = f.batchSize
	cfg.TablePrefix = f.tablePrefix
	cfg.Output = f.output
	cfg.ApplyDSN = f.applyDSN
	cfg.Metrics = config.MetricsConfig{
		Backend: f.metricsBackend,
		PushURL: f.metricsPushURL,
		Job:     f.metricsJob,
	}

	for _, m := range f.siteMappings {
		site, err := config.ParseSiteMapping(m)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Sites = append(cfg.Sites, site)
	}

	if f.startDate != "" {
		t, err := config.ParseDate(f.startDate)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Start = &t
	}
	if f.endDate != "" {
		t, err := config.ParseDate(f.endDate)
		if err != nil {
			return config.Config{}, err
		}
		cfg.End = &t
	}
	return cfg, nil
}

func setupMetrics(cfg config.MetricsConfig, datadogAddr string, log zerolog.Logger) error {
	switch cfg.Backend {
	case "", "nop":
		return nil
	case "prometheus":
		b, err := prompush.NewBackend(cfg.Job, cfg.PushURL)
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       datadogAddr,
			GlobalTags: []string{"job:" + cfg.Job},
		})
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	default:
		return fmt.Errorf("unknown metrics backend %q", cfg.Backend)
	}
	log.Info().Str("backend", cfg.Backend).Msg("metrics enabled")
	return nil
}

func run(cmd *cobra.Command, f flags) error {
	log := newLogger(f.verbose)

	cfg, err := buildConfig(f)
	if err != nil {
		return err
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			log.Warn().Str("path", iss.Path).Msg(iss.Message)
		}
	}
	if config.HasErrors(issues) {
		for _, iss := range issues {
			if iss.Severity == config.SeverityError {
				fmt.Fprintln(os.Stderr, "Error:", iss.Error())
			}
		}
		return fmt.Errorf("invalid configuration")
	}

	log.Info().Int("sites", len(cfg.Sites)).Msg("configured site mappings")
	for _, s := range cfg.Sites {
		log.Debug().
			Int64("matomo_id", s.MatomoID).
			Str("website_id", s.WebsiteID).
			Str("domain", s.Domain).
			Msg("site mapping")
	}

	if err := setupMetrics(cfg.Metrics, f.datadogAddr, log); err != nil {
		return err
	}
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("metrics flush failed")
		}
	}()

	ctx := cmd.Context()
	conn, err := source.Open(ctx, sourceConfig(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info().Str("kind", cfg.Source.Kind).Msg("connected to Matomo database")

	m := migrate.New(conn, cfg, log)

	if f.dryRun {
		summary, err := m.Summarize(ctx)
		if err != nil {
			return err
		}
		printSummary(os.Stderr, summary)
		return nil
	}

	var dest sink.Sink
	if cfg.ApplyDSN != "" {
		dest, err = sink.NewApply(ctx, cfg.ApplyDSN, log)
	} else {
		dest, err = sink.NewScript(cfg.Output, log)
	}
	if err != nil {
		return err
	}

	if _, err := m.Run(ctx, dest); err != nil {
		dest.Close(ctx)
		return err
	}
	return dest.Close(ctx)
}

func sourceConfig(cfg config.Config) source.Config {
	return source.Config{
		Kind:     cfg.Source.Kind,
		DSN:      cfg.Source.DSN,
		Host:     cfg.Source.Host,
		Port:     cfg.Source.Port,
		User:     cfg.Source.User,
		Password: cfg.Source.Password,
		Database: cfg.Source.Database,
	}
}
