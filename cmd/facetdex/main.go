package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/config"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	domfacet "github.com/kailas-cloud/facetdex/internal/domain/facet"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/metrics"
	collectionrepo "github.com/kailas-cloud/facetdex/internal/repository/collection"
	documentrepo "github.com/kailas-cloud/facetdex/internal/repository/document"
	facetrepo "github.com/kailas-cloud/facetdex/internal/repository/facet"
	"github.com/kailas-cloud/facetdex/internal/repository/metadata"
	searchrepo "github.com/kailas-cloud/facetdex/internal/repository/search"
	chiTransport "github.com/kailas-cloud/facetdex/internal/transport/chi"
	collectionuc "github.com/kailas-cloud/facetdex/internal/usecase/collection"
	documentuc "github.com/kailas-cloud/facetdex/internal/usecase/document"
	facetuc "github.com/kailas-cloud/facetdex/internal/usecase/facet"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/facetdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/facetdex/internal/usecase/search"
	"github.com/kailas-cloud/facetdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting facetdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("metadata_driver", cfg.Metadata.Driver),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:        cfg.Database.Addrs,
		Username:     cfg.Database.Username,
		Password:     cfg.Database.Password,
		DB:           cfg.Database.DB,
		WriteTimeout: time.Duration(cfg.Database.WriteTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metaStore, err := metadata.Open(ctx, metadata.Config{
		Driver: cfg.Metadata.Driver,
		Path:   cfg.Metadata.Path,
		DSN:    cfg.Metadata.DSN,
	})
	if err != nil {
		logger.Fatal("Failed to open metadata store", zap.Error(err))
	}
	defer func() { _ = metaStore.Close() }()

	// Register ingest metrics explicitly (no init())
	metrics.RegisterIngestMetrics()

	// Repositories
	collRepo := collectionrepo.New(store)
	docRepo := documentrepo.New(store)
	facetRepo := facetrepo.New(store)
	searchRepo := searchrepo.New(store)

	// Use case services
	facetSvc := facetuc.New(facetRepo, collRepo, domfacet.Policy{
		MaxCardinality: cfg.Facets.MaxCardinality,
		MinValueLen:    cfg.Facets.MinValueLen,
		MaxValueLen:    cfg.Facets.MaxValueLen,
	}).WithDefaultLimit(cfg.Facets.DefaultLimit)
	collSvc := collectionuc.New(collRepo, facetSvc, metaStore)
	docSvc := documentuc.New(docRepo, collRepo, facetSvc).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	searchSvc := searchuc.New(searchRepo, collRepo)
	ingestSvc := ingestuc.New(collSvc, docRepo, facetSvc, store, ingestuc.Config{
		DefaultBatchSize:  cfg.Ingest.DefaultBatchSize,
		MinBatchSize:      cfg.Ingest.MinBatchSize,
		MaxBatchSize:      cfg.Ingest.MaxBatchSize,
		MaxAttempts:       cfg.Ingest.MaxAttempts,
		RetryBackoff:      cfg.Ingest.RetryBackoff,
		MaxFailureDetails: cfg.Ingest.MaxFailureDetails,
	})
	healthSvc := healthuc.New(store, metaStore)

	server := chiTransport.NewServer(collSvc, docSvc, facetSvc, searchSvc, ingestSvc, healthSvc).
		WithMaxUploadBytes(cfg.Ingest.MaxUploadMB << 20)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseURL:          chiTransport.BasePath,
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
