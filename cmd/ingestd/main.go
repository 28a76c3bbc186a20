package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/project-pearl/Dashboard-sub014/internal/adapter/httpapi"
	kafkaadapter "github.com/project-pearl/Dashboard-sub014/internal/adapter/kafka"
	"github.com/project-pearl/Dashboard-sub014/internal/adapter/postgres"
	"github.com/project-pearl/Dashboard-sub014/internal/cache"
	"github.com/project-pearl/Dashboard-sub014/internal/config"
	"github.com/project-pearl/Dashboard-sub014/internal/domain"
	"github.com/project-pearl/Dashboard-sub014/internal/observability"
	"github.com/project-pearl/Dashboard-sub014/internal/pipeline"
	"github.com/project-pearl/Dashboard-sub014/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Post-publish hooks run on the water-quality source only; each is
	// feature-flagged via config so local runs need neither Kafka nor
	// Postgres.
	var hooks []pipeline.Hook
	var alertWriter *kafkaadapter.AlertWriter
	if cfg.AlertsEnabled() {
		alertWriter = kafkaadapter.NewAlertWriter(cfg, logger)
		hooks = append(hooks, pipeline.NewAlertHook(alertWriter, logger, metrics))
		logger.Info("alert publishing enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("alert publishing disabled")
	}

	var archiver *postgres.Archiver
	if cfg.ArchiveEnabled() {
		archiver, err = postgres.NewArchiver(ctx, cfg.ArchiveDatabaseURL, logger)
		if err != nil {
			logger.Error("failed to connect reading archive", "error", err)
			os.Exit(1)
		}
		hooks = append(hooks, pipeline.NewArchiveHook(archiver, cfg.ArchiveSampleLimit, logger, metrics))
		logger.Info("reading archive enabled", "sample_limit", cfg.ArchiveSampleLimit)
	} else {
		logger.Info("reading archive disabled")
	}

	complianceFetch := upstream.NewClient(upstream.Options{
		Name:           "compliance",
		BaseURL:        cfg.ComplianceBaseURL,
		Encoding:       upstream.EncodingJSON,
		PartitionParam: "state",
		Timeout:        cfg.FetchTimeout,
	}, logger, metrics)

	waterQualityFetch := upstream.NewClient(upstream.Options{
		Name:           "waterquality",
		BaseURL:        cfg.WaterQualityBaseURL,
		Encoding:       upstream.EncodingCSV,
		PartitionParam: "statecode",
		Timeout:        cfg.WaterQualityFetchTimeout,
		PageDelay:      cfg.PageDelay,
	}, logger, metrics)

	complianceStore := cache.NewStore("compliance")
	waterQualityStore := cache.NewStore("waterquality")

	complianceRebuilder := pipeline.New(pipeline.Source{
		Name:       "compliance",
		Endpoints:  pipeline.ComplianceEndpoints,
		Partitions: cfg.Partitions,
		PageSize:   cfg.CompliancePageSize,
	}, complianceStore,
		complianceFetch, complianceFetch.WithTimeout(cfg.RetryFetchTimeout),
		cfg.WorkerCount, cfg.RetryBackoff, logger, metrics)

	waterQualityRebuilder := pipeline.New(pipeline.Source{
		Name:           "waterquality",
		Endpoints:      pipeline.WaterQualityEndpoints,
		Partitions:     cfg.Partitions,
		PageSize:       cfg.WaterQualityPageSize,
		KeepPartials:   true,
		PartitionValue: domain.FIPSQueryValue,
		Hooks:          hooks,
	}, waterQualityStore,
		waterQualityFetch, waterQualityFetch.WithTimeout(cfg.WaterQualityRetryFetchTimeout),
		cfg.WorkerCount, cfg.RetryBackoff, logger, metrics)

	rebuilders := []*pipeline.Rebuilder{complianceRebuilder, waterQualityRebuilder}

	srv := httpapi.NewServer(cfg.HTTPAddr,
		[]*cache.Store{complianceStore, waterQualityStore},
		[]httpapi.Rebuilder{complianceRebuilder, waterQualityRebuilder},
		cfg.CellCacheSize, logger, metrics)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the rebuild scheduler: one build of each source at startup,
	// then every RebuildInterval. Manual POST /api/rebuild/{source} shares
	// the same single-flight slot per source.
	go pipeline.RunScheduled(ctx, cfg.RebuildInterval, rebuilders, logger)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if alertWriter != nil {
		if err := alertWriter.Close(); err != nil {
			logger.Error("alert writer close error", "error", err)
		}
	}
	if archiver != nil {
		archiver.Close()
	}

	logger.Info("shutdown complete")
}
