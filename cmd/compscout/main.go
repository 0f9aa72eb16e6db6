// Package main wires together the compensation scout service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pubsubclient "cloud.google.com/go/pubsub"
	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/api"
	"github.com/talentscout/compscout/internal/archive"
	archivegcs "github.com/talentscout/compscout/internal/archive/gcs"
	archivelocal "github.com/talentscout/compscout/internal/archive/local"
	"github.com/talentscout/compscout/internal/clock/system"
	"github.com/talentscout/compscout/internal/config"
	"github.com/talentscout/compscout/internal/discover"
	"github.com/talentscout/compscout/internal/extract"
	"github.com/talentscout/compscout/internal/fetch/diag"
	"github.com/talentscout/compscout/internal/fetch/direct"
	"github.com/talentscout/compscout/internal/fetch/reader"
	"github.com/talentscout/compscout/internal/id/uuid"
	"github.com/talentscout/compscout/internal/logging"
	"github.com/talentscout/compscout/internal/metrics"
	"github.com/talentscout/compscout/internal/oracle"
	"github.com/talentscout/compscout/internal/orchestrator"
	"github.com/talentscout/compscout/internal/pipeline"
	"github.com/talentscout/compscout/internal/policy/ratelimit"
	memorypublisher "github.com/talentscout/compscout/internal/publisher/memory"
	pubsubpublisher "github.com/talentscout/compscout/internal/publisher/pubsub"
	memorystorage "github.com/talentscout/compscout/internal/storage/memory"
	"github.com/talentscout/compscout/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, err := buildFetcher(cfg, logger)
	if err != nil {
		logger.Fatal("fetcher init failed", zap.Error(err))
	}
	oracleClient, err := oracle.New(oracle.Config{
		APIKey: cfg.Oracle.APIKey,
		Model:  cfg.Oracle.Model,
	}, logger.Named("oracle"))
	if err != nil {
		logger.Fatal("oracle init failed", zap.Error(err))
	}

	records, targets, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer closeStores()

	blobStore, err := buildArchive(ctx, cfg)
	if err != nil {
		logger.Fatal("archive init failed", zap.Error(err))
	}
	publisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}

	clock := system.New()
	idGen := uuid.New()
	pacer := ratelimit.New(cfg.CrawlDelay())

	discoverer := discover.New(fetcher, oracleClient, cfg.Crawler.CandidateCap, logger.Named("discover"))
	extractor := extract.New(oracleClient, logger.Named("extract"))
	runner := orchestrator.New(
		discoverer,
		fetcher,
		extractor,
		records,
		targets,
		blobStore,
		publisher,
		pacer,
		clock,
		idGen,
		orchestrator.Config{
			ResultLimit:   cfg.Crawler.ResultLimit,
			ArchivePrefix: cfg.Archive.Prefix,
			EventTopic:    cfg.Publisher.TopicName,
		},
		logger.Named("orchestrator"),
	)
	diagnoser := diag.New(fetcher, cfg.Fetch.Strategy)

	apiServer := api.NewServer(runner, diagnoser, records, targets, idGen, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildFetcher(cfg config.Config, logger *zap.Logger) (pipeline.Fetcher, error) {
	switch cfg.Fetch.Strategy {
	case "reader":
		f, err := reader.New(reader.Config{
			ProxyBase:     cfg.Fetch.ReaderProxyBase,
			UserAgent:     cfg.Fetch.UserAgent,
			Timeout:       cfg.FetchTimeout(),
			MaxTextLength: cfg.Fetch.MaxTextLength,
		}, logger.Named("reader"))
		if err != nil {
			return nil, fmt.Errorf("reader fetcher: %w", err)
		}
		return f, nil
	default:
		return direct.New(direct.Config{
			UserAgent:     cfg.Fetch.UserAgent,
			Timeout:       cfg.FetchTimeout(),
			MaxTextLength: cfg.Fetch.MaxTextLength,
		}, logger.Named("direct")), nil
	}
}

func buildStores(ctx context.Context, cfg config.Config) (pipeline.RecordStore, pipeline.TargetStore, func(), error) {
	if cfg.Storage.Provider != "postgres" {
		return memorystorage.NewRecordStore(), memorystorage.NewTargetStore(), func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, postgres.Config{
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.MaxConns,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("postgres pool: %w", err)
	}
	records, err := postgres.NewRecordStore(pool, "")
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("record store: %w", err)
	}
	targets, err := postgres.NewTargetStore(pool, "")
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("target store: %w", err)
	}
	return records, targets, pool.Close, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (pipeline.BlobStore, error) {
	switch cfg.Archive.Provider {
	case "local":
		store, err := archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local archive: %w", err)
		}
		return store, nil
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		store, err := archivegcs.New(client, archivegcs.Config{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs archive: %w", err)
		}
		return store, nil
	default:
		return archive.NoOp{}, nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (pipeline.Publisher, error) {
	if cfg.Publisher.Provider != "pubsub" {
		return memorypublisher.New(), nil
	}
	client, err := pubsubclient.NewClient(ctx, cfg.Publisher.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	pub, err := pubsubpublisher.New(client)
	if err != nil {
		return nil, fmt.Errorf("pubsub publisher: %w", err)
	}
	return pub, nil
}
