package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-orders/internal/config"
	"clinic-orders/internal/database"
	"clinic-orders/internal/handler"
	"clinic-orders/internal/notify"
	"clinic-orders/internal/repository"
	"clinic-orders/internal/router"
	"clinic-orders/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "policy-api")
	logger.Info().Msg("starting policy manager API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	notifier := notify.NewNoopNotifier()
	if cfg.Webhook.URL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.TimeoutDuration(), logger)
		logger.Info().Str("url", cfg.Webhook.URL).Msg("webhook notifications enabled")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Webhook.TimeoutDuration()+5*time.Second)
		defer closeCancel()
		if err := notifier.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("webhook queue not drained before exit")
		}
	}()

	companyRepo := repository.NewCompanyRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	policyRepo := repository.NewPolicyRepository(pool, logger)

	directoryService := service.NewDirectoryService(companyRepo, userRepo, notifier, logger)
	policyService := service.NewPolicyService(policyRepo, companyRepo, notifier, logger)

	mux := router.NewPolicy(router.PolicyHandlers{
		Directory: handler.NewDirectoryHandler(directoryService, logger),
		Policy:    handler.NewPolicyHandler(policyService, logger),
	}, cfg.Auth.APIKey, logger)

	server := &http.Server{
		Addr:         cfg.Server.PolicyAddress(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.PolicyAddress()).
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
