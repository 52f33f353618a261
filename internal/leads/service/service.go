// Package service implements lead intake, dedup/merge, and the agent-facing
// query and lifecycle operations.
package service

import (
	"context"
	"time"

	chatbotrepo "chatlead_backend/internal/chatbots/repository"
	"chatlead_backend/internal/events"
	"chatlead_backend/internal/leads/analyzer"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/leads/transport"
	"chatlead_backend/platform/apperr"
	"chatlead_backend/platform/phone"
	"chatlead_backend/platform/validator"

	"github.com/google/uuid"
)

// DedupWindow is how far back a repeat submission from the same phone folds
// into the existing lead instead of creating a new one.
const DedupWindow = 24 * time.Hour

const defaultPageSize = 25

// Repository is the persistence surface the service needs.
type Repository interface {
	FindRecentByPhone(ctx context.Context, chatbotID uuid.UUID, phone string, cutoff time.Time) (*repository.Lead, error)
	Create(ctx context.Context, lead *repository.Lead) error
	Merge(ctx context.Context, id uuid.UUID, contact domain.Contact, facts domain.Facts, score int, category domain.Category, analysis *analyzer.Summary, conversationID, notes string) (*repository.Lead, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*repository.Lead, error)
	List(ctx context.Context, userID uuid.UUID, filter repository.ListFilter) ([]repository.Lead, int, repository.CategoryCounts, error)
	Update(ctx context.Context, id, userID uuid.UUID, params repository.UpdateParams) (*repository.Lead, error)
}

// ChatbotResolver maps a widget public key to its chatbot.
type ChatbotResolver interface {
	ResolveByPublicKey(ctx context.Context, publicKey string) (*chatbotrepo.Chatbot, error)
}

type Service struct {
	repo     Repository
	chatbots ChatbotResolver
	engine   *scoring.Engine
	bus      events.Bus
	validate *validator.Validator

	now func() time.Time
}

func New(repo Repository, chatbots ChatbotResolver, engine *scoring.Engine, bus events.Bus, val *validator.Validator) *Service {
	return &Service{
		repo:     repo,
		chatbots: chatbots,
		engine:   engine,
		bus:      bus,
		validate: val,
		now:      time.Now,
	}
}

// Submit ingests a chatbot submission: validate, resolve the tenant,
// normalize the phone, dedup against the 24h window, score, persist, and
// publish LeadCaptured. The event is published asynchronously; delivery
// failures never surface to the widget.
func (s *Service) Submit(ctx context.Context, req transport.SubmitLeadRequest) (*transport.SubmitLeadResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation("validation failed").WithDetails(validator.FieldErrors(err))
	}

	bot, err := s.chatbots.ResolveByPublicKey(ctx, req.ChatbotKey)
	if err != nil {
		return nil, err
	}

	normalized := phone.NormalizeE164(req.Contact.Phone)
	if normalized == "" {
		return nil, apperr.Validation("phone number could not be normalized").
			WithDetails([]validator.FieldError{{Field: "contact.phone", Rule: "e164"}})
	}

	contact := domain.Contact{
		Name:  req.Contact.Name,
		Phone: normalized,
		Email: req.Contact.Email,
	}
	facts := req.Facts.ToDomain()

	cutoff := s.now().Add(-DedupWindow)
	existing, err := s.repo.FindRecentByPhone(ctx, bot.ID, normalized, cutoff)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return s.createLead(ctx, bot, contact, facts, req)
	}
	return s.mergeLead(ctx, bot, existing, contact, facts, req)
}

func (s *Service) createLead(ctx context.Context, bot *chatbotrepo.Chatbot, contact domain.Contact, facts domain.Facts, req transport.SubmitLeadRequest) (*transport.SubmitLeadResponse, error) {
	score, category := s.engine.Score(contact, facts)
	summary := analyzer.Analyze(contact, facts)

	source := req.Source
	if source == "" {
		source = domain.SourceChatbot
	}

	lead := &repository.Lead{
		ChatbotID:      bot.ID,
		UserID:         bot.UserID,
		ConversationID: req.ConversationID,
		Contact:        contact,
		Facts:          facts,
		Score:          score,
		Category:       category,
		Status:         domain.StatusNew,
		Analysis:       &summary,
		Notes:          req.Notes,
		Source:         source,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		ChatbotID:     bot.ID,
		IsNew:         true,
		Score:         lead.Score,
		Category:      string(lead.Category),
		ScoreImproved: true,
	})

	return &transport.SubmitLeadResponse{
		Lead:     toLeadResponse(lead),
		IsNew:    true,
		Score:    lead.Score,
		Category: string(lead.Category),
		Message:  submitMessage(true, lead.Category),
	}, nil
}

func (s *Service) mergeLead(ctx context.Context, bot *chatbotrepo.Chatbot, existing *repository.Lead, contact domain.Contact, facts domain.Facts, req transport.SubmitLeadRequest) (*transport.SubmitLeadResponse, error) {
	combined := domain.Combine(existing.Facts, facts)

	// A repeat submission without a usable name keeps the stored one.
	if contact.Name == "" {
		contact.Name = existing.Contact.Name
	}

	score, category := s.engine.Score(contact, combined)
	summary := analyzer.Analyze(contact, combined)

	merged, err := s.repo.Merge(ctx, existing.ID, contact, combined, score, category, &summary, req.ConversationID, req.Notes)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        merged.ID,
		ChatbotID:     bot.ID,
		IsNew:         false,
		Score:         merged.Score,
		Category:      string(merged.Category),
		ScoreImproved: merged.Score > existing.Score,
		NameChanged:   merged.Contact.Name != existing.Contact.Name,
	})

	return &transport.SubmitLeadResponse{
		Lead:     toLeadResponse(merged),
		IsNew:    false,
		Score:    merged.Score,
		Category: string(merged.Category),
		Message:  submitMessage(false, merged.Category),
	}, nil
}

func submitMessage(isNew bool, category domain.Category) string {
	if isNew {
		if category == domain.CategoryHot {
			return "Lead captured and flagged as hot"
		}
		return "Lead captured"
	}
	return "Lead updated with the new conversation details"
}

// Get returns one lead scoped to its owner.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toLeadResponse(lead)
	return &resp, nil
}

// List returns a filtered page of the user's leads, hottest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, req transport.ListLeadsRequest) (*transport.ListLeadsResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation("validation failed").WithDetails(validator.FieldErrors(err))
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 {
		size = defaultPageSize
	}

	filter := repository.ListFilter{
		ChatbotID: req.ChatbotID,
		Category:  domain.Category(req.Category),
		Status:    domain.Status(req.Status),
		Search:    req.Search,
		Offset:    (page - 1) * size,
		Limit:     size,
	}

	leads, total, counts, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, toLeadResponse(&leads[i]))
	}

	return &transport.ListLeadsResponse{
		Items:    items,
		Total:    total,
		Counts:   transport.CategoryCounts{Hot: counts.Hot, Warm: counts.Warm, Cold: counts.Cold},
		Page:     page,
		PageSize: size,
	}, nil
}

// Update moves a lead through its lifecycle and publishes the status change.
// Re-opening a terminal lead is rejected.
func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, req transport.UpdateLeadRequest) (*transport.LeadResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation("validation failed").WithDetails(validator.FieldErrors(err))
	}

	current, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	newStatus := domain.Status(req.Status)
	if newStatus != "" && current.Status.Terminal() && newStatus != current.Status {
		return nil, apperr.Conflict("lead is in a terminal status")
	}

	params := repository.UpdateParams{Status: newStatus, Notes: req.Notes}
	params.Appointment.Time = req.AppointmentTime
	params.Appointment.Note = req.AppointmentNote
	if req.AppointmentDate != nil {
		date, err := time.Parse("2006-01-02", *req.AppointmentDate)
		if err != nil {
			return nil, apperr.Validation("invalid appointment date").WithDetails([]validator.FieldError{
				{Field: "appointmentDate", Rule: "datetime"},
			})
		}
		params.Appointment.Date = &date
	}

	updated, err := s.repo.Update(ctx, id, userID, params)
	if err != nil {
		return nil, err
	}

	if newStatus != "" && newStatus != current.Status {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    updated.ID,
			ChatbotID: updated.ChatbotID,
			OldStatus: string(current.Status),
			NewStatus: string(updated.Status),
		})
	}

	resp := toLeadResponse(updated)
	return &resp, nil
}

func toLeadResponse(lead *repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:             lead.ID,
		ChatbotID:      lead.ChatbotID,
		ConversationID: lead.ConversationID,
		Contact:        lead.Contact,
		Facts:          lead.Facts,
		Score:          lead.Score,
		Category:       string(lead.Category),
		Status:         string(lead.Status),
		Analysis:       lead.Analysis,
		Notes:          lead.Notes,
		Source:         lead.Source,
		Appointment:    toAppointment(lead.Appointment),
		ContactedAt:    lead.ContactedAt,
		ConvertedAt:    lead.ConvertedAt,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
	}
}

func toAppointment(appt repository.Appointment) *transport.Appointment {
	if appt.Date == nil && appt.Time == nil && appt.Note == nil {
		return nil
	}
	out := &transport.Appointment{Time: appt.Time, Note: appt.Note}
	if appt.Date != nil {
		date := appt.Date.Format("2006-01-02")
		out.Date = &date
	}
	return out
}
