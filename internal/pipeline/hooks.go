package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
	"github.com/project-pearl/Dashboard-sub014/internal/observability"
)

// Hook consumes the freshly ingested readings after a successful publish.
// Hooks are advisory: an error is logged and counted but never fails the
// rebuild or touches the published snapshot.
type Hook interface {
	Name() string
	Run(ctx context.Context, readings []domain.Reading) error
}

func (r *Rebuilder) runHooks(ctx context.Context, readings []domain.Reading) {
	for _, hook := range r.source.Hooks {
		if err := hook.Run(ctx, readings); err != nil {
			r.logger.Error("post-publish hook failed",
				"source", r.source.Name, "hook", hook.Name(), "error", err)
			r.metrics.HookFailures.WithLabelValues(hook.Name()).Inc()
		}
	}
}

// AlertSink publishes derived exceedance alerts.
type AlertSink interface {
	PublishAlerts(ctx context.Context, alerts []domain.Alert) error
}

// AlertHook screens readings against the threshold table and publishes an
// alert per exceedance.
type AlertHook struct {
	sink    AlertSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAlertHook wires an alert sink as a post-publish hook.
func NewAlertHook(sink AlertSink, logger *slog.Logger, metrics *observability.Metrics) *AlertHook {
	return &AlertHook{sink: sink, logger: logger, metrics: metrics}
}

func (h *AlertHook) Name() string { return "alerts" }

func (h *AlertHook) Run(ctx context.Context, readings []domain.Reading) error {
	alerts := domain.DeriveAlerts(readings)
	if len(alerts) == 0 {
		return nil
	}
	if err := h.sink.PublishAlerts(ctx, alerts); err != nil {
		return fmt.Errorf("publish %d alerts: %w", len(alerts), err)
	}
	h.metrics.AlertsEmitted.Add(float64(len(alerts)))
	h.logger.Info("published exceedance alerts", "alerts", len(alerts), "readings", len(readings))
	return nil
}

// ReadingArchiver persists reading samples for long-term trend queries.
type ReadingArchiver interface {
	ArchiveReadings(ctx context.Context, readings []domain.Reading) error
}

// ArchiveHook writes a bounded per-partition sample of each rebuild's
// readings to the archive. Sampling keeps archive growth proportional to
// partitions, not to upstream volume.
type ArchiveHook struct {
	archiver ReadingArchiver
	limit    int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewArchiveHook wires a reading archiver as a post-publish hook. limit
// bounds the readings archived per partition per rebuild.
func NewArchiveHook(archiver ReadingArchiver, limit int, logger *slog.Logger, metrics *observability.Metrics) *ArchiveHook {
	if limit < 1 {
		limit = 1
	}
	return &ArchiveHook{archiver: archiver, limit: limit, logger: logger, metrics: metrics}
}

func (h *ArchiveHook) Name() string { return "archive" }

func (h *ArchiveHook) Run(ctx context.Context, readings []domain.Reading) error {
	sample := samplePerPartition(readings, h.limit)
	if len(sample) == 0 {
		return nil
	}
	if err := h.archiver.ArchiveReadings(ctx, sample); err != nil {
		return fmt.Errorf("archive %d readings: %w", len(sample), err)
	}
	h.metrics.ReadingsArchived.Add(float64(len(sample)))
	h.logger.Info("archived reading sample", "sampled", len(sample), "readings", len(readings))
	return nil
}

// samplePerPartition takes up to limit readings per partition, preserving
// ingest order within each.
func samplePerPartition(readings []domain.Reading, limit int) []domain.Reading {
	taken := make(map[string]int)
	var sample []domain.Reading
	for _, reading := range readings {
		if taken[reading.State] >= limit {
			continue
		}
		taken[reading.State]++
		sample = append(sample, reading)
	}
	return sample
}
