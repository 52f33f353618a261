package dispatch

import (
	"context"
	"fmt"

	"chatlead_backend/internal/config"
	"chatlead_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Dispatcher runs the notification fan-out for one captured lead.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload LeadDispatchPayload) error
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	dispatcher Dispatcher
	log        *logger.Logger
}

func NewWorker(cfg config.DispatchConfig, dispatcher Dispatcher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetDispatchQueue()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetDispatchConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		dispatcher: dispatcher,
		log:        log,
	}

	mux.HandleFunc(TaskLeadDispatch, w.handleLeadDispatch)

	return w, nil
}

func (w *Worker) handleLeadDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadDispatchPayload(task)
	if err != nil {
		return err
	}
	return w.dispatcher.Dispatch(ctx, payload)
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("dispatch worker stopped", "error", err)
	}
}
