// Package app wires configuration, storage, vendor clients, the syncer, and
// the HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mottahub/sync-backend/internal/adapter/calendly"
	"github.com/mottahub/sync-backend/internal/adapter/karbon"
	"github.com/mottahub/sync-backend/internal/adapter/postgres"
	"github.com/mottahub/sync-backend/internal/adapter/postgres/sink"
	"github.com/mottahub/sync-backend/internal/adapter/postgres/syncstore"
	"github.com/mottahub/sync-backend/internal/config"
	"github.com/mottahub/sync-backend/internal/domain"
	"github.com/mottahub/sync-backend/internal/syncer"
	"github.com/mottahub/sync-backend/internal/transport/middleware"
	"github.com/mottahub/sync-backend/internal/transport/rest"
)

// Run is the server entry point. It blocks until ctx is canceled, then
// shuts the HTTP server down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting sync backend",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	s := buildSyncer(cfg, pool, logger)

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	router := rest.NewRouter(rest.RouterConfig{
		Sync:                  rest.NewSyncHandler(s, syncstore.New(pool, logger), cfg.Sync.RunTimeout, logger),
		Health:                rest.NewHealthHandler(pool, BuildVersion()),
		APIKey:                cfg.Server.APIKey,
		CalendlyWebhookSecret: cfg.Calendly.WebhookSecretKey,
		WebhookRateLimit:      120,
		Limiter:               limiter,
	})

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
	)(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.Sync.Interval > 0 {
		go runScheduler(ctx, s, cfg.Sync, logger)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// BuildSyncer constructs a fully wired Syncer for one-shot CLI use.
func BuildSyncer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*syncer.Syncer, func(), error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return buildSyncer(cfg, pool, logger), pool.Close, nil
}

func buildSyncer(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) *syncer.Syncer {
	karbonClient := karbon.NewClient(cfg.Karbon, logger)
	calendlyClient := calendly.NewClient(cfg.Calendly, logger)
	recordSink := sink.New(pool, cfg.Sync.ChunkSize, logger)
	store := syncstore.New(pool, logger)
	txm := postgres.NewTxManager(pool)
	return syncer.New(karbonClient, calendlyClient, recordSink, store, txm, logger)
}

// runScheduler triggers incremental runs at the configured interval until
// the context is canceled.
func runScheduler(ctx context.Context, s *syncer.Syncer, cfg config.SyncConfig, logger *slog.Logger) {
	logger.Info("scheduler started", slog.Duration("interval", cfg.Interval))
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
			summary, err := s.Run(runCtx, syncer.Options{
				Incremental: true,
				Trigger:     domain.TriggerSchedule,
			})
			cancel()
			if err != nil {
				logger.Error("scheduled run failed", slog.Any("error", err))
				continue
			}
			logger.Info("scheduled run finished",
				slog.Bool("success", summary.Success),
				slog.Int("synced", summary.Synced),
				slog.Int("updated", summary.Updated),
				slog.Int("errors", summary.Errors),
			)
		}
	}
}
