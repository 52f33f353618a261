// The worker binary runs the asynq consumer that delivers lead notifications
// (email, SMS, CRM forwarding) off the request path.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatbotrepo "chatlead_backend/internal/chatbots/repository"
	"chatlead_backend/internal/config"
	"chatlead_backend/internal/crm"
	"chatlead_backend/internal/dispatch"
	"chatlead_backend/internal/email"
	leadrepo "chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/notification"
	"chatlead_backend/internal/sms"
	"chatlead_backend/platform/db"
	"chatlead_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting dispatch worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	forwarder := crm.NewForwarder()
	dispatcher := notification.NewDispatcher(
		leadrepo.New(pool),
		chatbotrepo.New(pool),
		email.NewSender(cfg),
		sms.NewClient(cfg, log),
		forwarder,
		log,
	)

	worker, err := dispatch.NewWorker(cfg, dispatcher, log)
	if err != nil {
		log.Error("failed to initialize dispatch worker", "error", err)
		panic("failed to initialize dispatch worker: " + err.Error())
	}

	log.Info("dispatch worker running", "queue", cfg.GetDispatchQueue(), "concurrency", cfg.GetDispatchConcurrency())
	worker.Run(ctx)
	log.Info("dispatch worker stopped")
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

	return fmt.Errorf("%s: %w", name, lastErr)
}
