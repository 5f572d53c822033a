package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-orders/internal/cache"
	"clinic-orders/internal/catalog"
	"clinic-orders/internal/config"
	"clinic-orders/internal/database"
	"clinic-orders/internal/handler"
	"clinic-orders/internal/repository"
	"clinic-orders/internal/router"
	"clinic-orders/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "ordering-api")
	logger.Info().Msg("starting clinic ordering API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	logRepo := repository.NewApprovalLogRepository(pool, logger)

	// Catalogue cache and import lock: Redis when configured, in-process otherwise
	catalogCache := cache.NewNoopCache()
	locker := cache.NewLocalLocker()

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to connect to redis, continuing without catalogue cache")
		} else {
			defer client.Close()
			catalogCache = cache.NewRedisCache(client, cfg.Redis.TTL(), logger)
			locker = cache.NewRedisLocker(client, logger)
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis catalogue cache enabled")
		}
	}

	importer := catalog.NewImporter(catalog.ImporterConfig{
		Source:    catalogSource(ctx, cfg.S3, logger),
		Path:      cfg.Catalog.SourcePath,
		Supplier:  cfg.Catalog.Supplier,
		BatchSize: cfg.Catalog.BatchSize,
		Writer:    productRepo,
		Cache:     catalogCache,
		Locker:    locker,
	}, logger)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, catalogCache, importer, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logRepo, logger)
	reviewService := service.NewReviewService(cartRepo, logRepo, cfg.Approval.AdjustPolicy, logger)

	mux := router.New(router.OrderingHandlers{
		Catalog: handler.NewCatalogHandler(catalogService, logger),
		Cart:    handler.NewCartHandler(cartService, logger),
		Review:  handler.NewReviewHandler(reviewService, logger),
	}, cfg.Auth.APIKey, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// catalogSource reads the catalogue file from S3 with a local fallback when
// S3 is enabled, and from the local file system otherwise.
func catalogSource(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) catalog.Source {
	fileSource := catalog.NewFileSource(logger)

	if !cfg.Enabled {
		logger.Info().Msg("using local file system for catalogue file (S3 disabled)")
		return fileSource
	}

	s3Source, err := catalog.NewS3Source(ctx, cfg.Bucket, cfg.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 source, falling back to local file system only")
		return fileSource
	}

	return catalog.NewFallbackSource(s3Source, fileSource, cfg.Prefix, logger)
}
