// Package postgres persists sampled readings to the long-term archive so
// trend queries outlive the in-memory cache's rebuild cycle.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-pearl/Dashboard-sub014/internal/domain"
)

const createArchiveTable = `
CREATE TABLE IF NOT EXISTS reading_archive (
	site_id        TEXT             NOT NULL,
	state          TEXT             NOT NULL,
	parameter      TEXT             NOT NULL,
	characteristic TEXT,
	value          DOUBLE PRECISION NOT NULL,
	unit           TEXT,
	sample_date    TEXT             NOT NULL,
	lat            DOUBLE PRECISION,
	lng            DOUBLE PRECISION,
	archived_at    TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (site_id, parameter, sample_date)
)`

const insertReading = `
INSERT INTO reading_archive (site_id, state, parameter, characteristic, value, unit, sample_date, lat, lng)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (site_id, parameter, sample_date) DO NOTHING`

// Archiver appends reading samples to Postgres.
// It implements pipeline.ReadingArchiver.
type Archiver struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewArchiver connects to the archive database and ensures the archive
// table exists.
func NewArchiver(ctx context.Context, databaseURL string, logger *slog.Logger) (*Archiver, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect archive database: %w", err)
	}
	if _, err := pool.Exec(ctx, createArchiveTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure archive table: %w", err)
	}
	return &Archiver{pool: pool, logger: logger}, nil
}

// ArchiveReadings inserts readings in one batch round trip. The primary
// key covers site, parameter and sample date, so replayed rebuilds are
// idempotent via ON CONFLICT DO NOTHING while the archive still
// accumulates history across runs.
func (a *Archiver) ArchiveReadings(ctx context.Context, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range readings {
		batch.Queue(insertReading,
			r.SiteID, r.State, r.Parameter, r.Characteristic,
			r.Value, r.Unit, r.SampleDate, r.Lat, r.Lng)
	}
	results := a.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range readings {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("archive insert: %w", err)
		}
	}
	a.logger.Debug("archived readings", "rows", len(readings))
	return nil
}

// Close releases the connection pool.
func (a *Archiver) Close() {
	a.pool.Close()
}
