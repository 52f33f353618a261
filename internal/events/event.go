// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"chatlead_backend/platform/events"
	"chatlead_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
// This is a convenience re-export from platform/events.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCaptured is published after a lead submission has been persisted,
// whether it created a new lead or merged into a recent one. It carries
// everything the notification dispatcher needs to decide which channels to
// fire without re-reading the lead.
type LeadCaptured struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	ChatbotID     uuid.UUID `json:"chatbotId"`
	IsNew         bool      `json:"isNew"`
	Score         int       `json:"score"`
	Category      string    `json:"category"`
	ScoreImproved bool      `json:"scoreImproved"`
	NameChanged   bool      `json:"nameChanged"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }

// LeadStatusChanged is published when an agent updates a lead's status via
// the query/update API.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	ChatbotID uuid.UUID `json:"chatbotId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }
