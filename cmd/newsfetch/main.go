// Package main wires together the news-fetch binary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/api"
	gcsarchive "github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/archive/gcs"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/article"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/clock/system"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/config"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/fetch"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/hash/sha256"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/id/uuid"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/logging"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/pipeline"
	gcppublisher "github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/publisher/pubsub"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/render"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/search"
	pgstore "github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/store/postgres"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("walk terminated", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	var renderer search.Renderer
	if cfg.Render.Enabled {
		headless, err := render.New(render.Config{
			MaxParallel:       cfg.Render.MaxParallel,
			UserAgent:         cfg.Search.UserAgent,
			NavigationTimeout: time.Duration(cfg.Render.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless renderer init failed", zap.Error(err))
		} else {
			defer headless.Close()
			renderer = headless
		}
	}

	pageFetcher := search.NewPageFetcher(search.FetcherConfig{
		UserAgent: cfg.Search.UserAgent,
		Timeout:   cfg.SearchTimeout(),
	}, logger)
	walker, err := search.NewWalker(
		search.Query{Keywords: cfg.Search.Keywords},
		cfg.Search.BaseURL,
		pageFetcher,
		renderer,
		logger,
	)
	if err != nil {
		return fmt.Errorf("build walker: %w", err)
	}

	client := fetch.NewClient(fetch.Config{
		Workers:      cfg.Fetch.Workers,
		Timeout:      cfg.FetchTimeout(),
		UserAgent:    cfg.Search.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}, logger)

	assembler := article.NewAssembler(article.NewExtractor(), uuid.New(), system.New(), logger)

	sinks, cleanup, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Server.Port > 0 {
		startDebugServer(ctx, cfg.Server.Port, logger)
	}

	stream := pipeline.NewStream(walker, client, assembler, pipeline.Config{
		QueueCapacity:  cfg.Fetch.QueueCapacity,
		PlatformDomain: cfg.Search.PlatformDomain,
	}, sinks, logger)
	stream.Start(ctx)

	encoder := json.NewEncoder(os.Stdout)
	for {
		record, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("walk stopped by signal")
				return nil
			}
			return err
		}
		logger.Info("article found",
			zap.String("fetch_id", record.FetchID),
			zap.String("url", record.URL),
			zap.String("title", record.Title),
		)
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("encode article record: %w", err)
		}
	}
}

func buildSinks(ctx context.Context, cfg config.Config, logger *zap.Logger) (pipeline.Sinks, func(), error) {
	sinks := pipeline.Sinks{}
	var cleanups []func()
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if cfg.DB.DSN != "" {
		store, err := pgstore.NewArticleStore(ctx, pgstore.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			cleanup()
			return pipeline.Sinks{}, nil, fmt.Errorf("init article store: %w", err)
		}
		cleanups = append(cleanups, store.Close)
		sinks.Store = store
		logger.Info("storing articles in postgres", zap.String("table", cfg.DB.Table))
	}

	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			cleanup()
			return pipeline.Sinks{}, nil, fmt.Errorf("init pubsub client: %w", err)
		}
		cleanups = append(cleanups, func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("close pubsub client", zap.Error(closeErr))
			}
		})
		sinks.Publisher = gcppublisher.New(client.Topic(cfg.PubSub.TopicName))
		sinks.Topic = cfg.PubSub.TopicName
		logger.Info("publishing articles to pubsub", zap.String("topic", cfg.PubSub.TopicName))
	}

	if cfg.Archive.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			cleanup()
			return pipeline.Sinks{}, nil, fmt.Errorf("init storage client: %w", err)
		}
		cleanups = append(cleanups, func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("close storage client", zap.Error(closeErr))
			}
		})
		blobStore, err := gcsarchive.New(client, gcsarchive.Config{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			cleanup()
			return pipeline.Sinks{}, nil, fmt.Errorf("init archive: %w", err)
		}
		sinks.Archive = blobStore
		sinks.ArchivePrefix = cfg.Archive.Prefix
		sinks.Hasher = sha256.New()
		logger.Info("archiving article bodies", zap.String("bucket", cfg.Archive.GCSBucket))
	}

	return sinks, cleanup, nil
}

func startDebugServer(ctx context.Context, port int, logger *zap.Logger) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.NewServer(logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("debug server listening", zap.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("debug server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("debug server shutdown", zap.Error(err))
		}
	}()
}
