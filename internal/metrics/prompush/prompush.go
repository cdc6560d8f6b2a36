// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the common migration labels (job, stage, status) onto
//     Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint, since a migration is a batch job
//     that exits before a scraper would find it.
package prompush

import (
	"fmt"

	"matomo2umami/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // "migration_stage_total"
	stageDuration *prometheus.SummaryVec // "migration_stage_duration_seconds"

	recordCounter *prometheus.CounterVec // "migration_records_total"
	batchCounter  prometheus.Counter     // "migration_batches_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name. gatewayURL: base URL of the server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "matomo2umami"
	}

	reg := prometheus.NewRegistry()

	// job is the Pushgateway grouping key; stage and status stay dynamic.
	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_stage_total",
			Help: "Total number of migration stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "migration_stage_duration_seconds",
			Help:       "Duration of migration stages in seconds, partitioned by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)

	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_records_total",
			Help: "Record-level counts per kind (sessions, events, skipped_no_mapping, etc.).",
		},
		[]string{"kind"},
	)

	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "migration_batches_total",
			Help: "Total number of INSERT batches emitted by this migration run.",
		},
	)

	if err := reg.Register(stageCounter); err != nil {
		return nil, fmt.Errorf("prompush: register stage counter: %w", err)
	}
	if err := reg.Register(stageDuration); err != nil {
		return nil, fmt.Errorf("prompush: register stage summary: %w", err)
	}
	if err := reg.Register(recordCounter); err != nil {
		return nil, fmt.Errorf("prompush: register record counter: %w", err)
	}
	if err := reg.Register(batchCounter); err != nil {
		return nil, fmt.Errorf("prompush: register batch counter: %w", err)
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
		recordCounter: recordCounter,
		batchCounter:  batchCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "migration_stage_total":
		if b.stageCounter == nil {
			return
		}
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)

	case "migration_records_total":
		if b.recordCounter == nil {
			return
		}
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case "migration_batches_total":
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "migration_stage_duration_seconds" || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
