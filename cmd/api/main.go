package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatlead_backend/internal/chatbots"
	"chatlead_backend/internal/config"
	"chatlead_backend/internal/crm"
	"chatlead_backend/internal/dispatch"
	"chatlead_backend/internal/email"
	"chatlead_backend/internal/events"
	apphttp "chatlead_backend/internal/http"
	"chatlead_backend/internal/http/router"
	"chatlead_backend/internal/leads"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/notification"
	"chatlead_backend/internal/sms"
	"chatlead_backend/migrations"
	"chatlead_backend/platform/db"
	"chatlead_backend/platform/logger"
	"chatlead_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	emailSender := email.NewSender(cfg)
	smsClient := sms.NewClient(cfg, log)
	forwarder := crm.NewForwarder()

	dispatchClient := initDispatchClient(cfg, log)
	if dispatchClient != nil {
		defer dispatchClient.Close()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	chatbotsModule := chatbots.NewModule(pool, forwarder, val)
	leadsModule := leads.NewModule(pool, chatbotsModule.Service(), scoring.NewEngine(cfg), eventBus, val)

	dispatcher := notification.NewDispatcher(
		leadsModule.Repository(),
		chatbotsModule.Repository(),
		emailSender,
		smsClient,
		forwarder,
		log,
	)

	var enqueuer notification.Enqueuer
	if dispatchClient != nil {
		enqueuer = dispatchClient
	}
	notification.NewModule(eventBus, enqueuer, dispatcher, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			chatbotsModule,
			leadsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initDispatchClient(cfg config.DispatchConfig, log *logger.Logger) *dispatch.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; notification dispatch runs inline")
		return nil
	}

	client, err := dispatch.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize dispatch client, running inline", "error", err)
		return nil
	}
	return client
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
