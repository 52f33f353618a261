package notification

import (
	"context"

	"chatlead_backend/internal/dispatch"
	"chatlead_backend/internal/events"
	"chatlead_backend/platform/logger"
)

// Enqueuer queues a dispatch run on the background worker.
type Enqueuer interface {
	EnqueueLeadDispatch(ctx context.Context, payload dispatch.LeadDispatchPayload) error
}

// Module bridges LeadCaptured events into notification dispatch. With a
// queue available the fan-out runs on the worker; without one, or when the
// enqueue fails, it runs inline so alerts still go out on single-process
// deployments.
type Module struct {
	enqueuer   Enqueuer
	dispatcher *Dispatcher
	log        *logger.Logger
}

// NewModule subscribes to lead capture events. enqueuer may be nil.
func NewModule(bus events.Bus, enqueuer Enqueuer, dispatcher *Dispatcher, log *logger.Logger) *Module {
	m := &Module{
		enqueuer:   enqueuer,
		dispatcher: dispatcher,
		log:        log,
	}

	bus.Subscribe(events.LeadCaptured{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadCaptured)
		if !ok {
			return nil
		}
		m.handleLeadCaptured(ctx, e)
		return nil
	}))

	return m
}

func (m *Module) handleLeadCaptured(ctx context.Context, e events.LeadCaptured) {
	payload := dispatch.LeadDispatchPayload{
		LeadID:        e.LeadID.String(),
		ChatbotID:     e.ChatbotID.String(),
		IsNew:         e.IsNew,
		Score:         e.Score,
		Category:      e.Category,
		ScoreImproved: e.ScoreImproved,
		NameChanged:   e.NameChanged,
	}

	if m.enqueuer != nil {
		err := m.enqueuer.EnqueueLeadDispatch(ctx, payload)
		if err == nil {
			return
		}
		m.log.Error("dispatch enqueue failed, running inline", "error", err, "leadId", payload.LeadID)
	}

	if err := m.dispatcher.Dispatch(ctx, payload); err != nil {
		m.log.Error("inline dispatch failed", "error", err, "leadId", payload.LeadID)
	}
}
