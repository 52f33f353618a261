// Package notification fans a captured lead out to the tenant's alert
// channels: email, SMS, and the configured CRM. Delivery is fire-and-forget
// with hard isolation between channels; one channel failing never blocks or
// fails the others.
package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	chatbotrepo "chatlead_backend/internal/chatbots/repository"
	"chatlead_backend/internal/crm"
	"chatlead_backend/internal/dispatch"
	"chatlead_backend/internal/email"
	"chatlead_backend/internal/leads/analyzer"
	"chatlead_backend/internal/leads/domain"
	leadrepo "chatlead_backend/internal/leads/repository"
	"chatlead_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LeadSource loads the lead being dispatched.
type LeadSource interface {
	GetForDispatch(ctx context.Context, id uuid.UUID) (*leadrepo.Lead, error)
}

// ChatbotSource loads the tenant's recipients and CRM configuration.
type ChatbotSource interface {
	GetForDispatch(ctx context.Context, id uuid.UUID) (*chatbotrepo.Chatbot, error)
}

// SMSSender sends one text message.
type SMSSender interface {
	SendMessage(ctx context.Context, phone, message string) error
}

// CRMForwarder forwards one lead to the tenant's CRM.
type CRMForwarder interface {
	Forward(ctx context.Context, cfg *crm.Config, lead crm.Lead) crm.Result
}

type Dispatcher struct {
	leads    LeadSource
	chatbots ChatbotSource
	email    email.Sender
	sms      SMSSender
	crm      CRMForwarder
	log      *logger.Logger
}

func NewDispatcher(leads LeadSource, chatbots ChatbotSource, emailSender email.Sender, smsSender SMSSender, forwarder CRMForwarder, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		leads:    leads,
		chatbots: chatbots,
		email:    emailSender,
		sms:      smsSender,
		crm:      forwarder,
		log:      log,
	}
}

// Dispatch runs the fan-out for one captured lead. Channel failures are
// logged and swallowed; the returned error covers only the lookups that
// precede delivery, so asynq retries those and never re-delivers.
func (d *Dispatcher) Dispatch(ctx context.Context, payload dispatch.LeadDispatchPayload) error {
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("invalid lead id %q: %w", payload.LeadID, err)
	}
	chatbotID, err := uuid.Parse(payload.ChatbotID)
	if err != nil {
		return fmt.Errorf("invalid chatbot id %q: %w", payload.ChatbotID, err)
	}

	lead, err := d.leads.GetForDispatch(ctx, leadID)
	if err != nil {
		return err
	}
	bot, err := d.chatbots.GetForDispatch(ctx, chatbotID)
	if err != nil {
		return err
	}

	material := payload.IsNew || payload.ScoreImproved || payload.NameChanged

	var g errgroup.Group

	if material && bot.NotificationEmail != nil && *bot.NotificationEmail != "" {
		to := *bot.NotificationEmail
		g.Go(func() error {
			if err := d.email.SendLeadAlert(ctx, to, buildAlert(lead, bot, !payload.IsNew)); err != nil {
				d.log.DeliveryError("email", lead.ID.String(), bot.UserID.String(), err)
			}
			return nil
		})
	}

	// Hot leads always re-alert over SMS, even when a merge changed nothing.
	if lead.Category == domain.CategoryHot && bot.NotificationPhone != nil && *bot.NotificationPhone != "" {
		to := *bot.NotificationPhone
		g.Go(func() error {
			if err := d.sms.SendMessage(ctx, to, smsText(lead)); err != nil {
				d.log.DeliveryError("sms", lead.ID.String(), bot.UserID.String(), err)
			}
			return nil
		})
	}

	if bot.CRM != nil && bot.CRM.Enabled {
		g.Go(func() error {
			res := d.crm.Forward(ctx, bot.CRM, toCRMLead(lead, bot))
			if !res.Success {
				d.log.DeliveryError("crm", lead.ID.String(), bot.UserID.String(), res.Err)
			}
			return nil
		})
	}

	return g.Wait()
}

func buildAlert(lead *leadrepo.Lead, bot *chatbotrepo.Chatbot, merged bool) email.LeadAlert {
	alert := email.LeadAlert{
		LeadName:    lead.Contact.Name,
		Phone:       lead.Contact.Phone,
		Score:       lead.Score,
		Category:    string(lead.Category),
		ChatbotName: bot.Name,
		Merged:      merged,
		Details:     alertDetails(lead.Facts),
	}
	if lead.Contact.Email != nil {
		alert.Email = *lead.Contact.Email
	}
	if lead.Analysis != nil {
		alert.AnalysisHTML = analyzer.RenderHTML(*lead.Analysis)
	}
	return alert
}

func alertDetails(facts domain.Facts) []email.Detail {
	var details []email.Detail
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			details = append(details, email.Detail{Label: label, Value: value})
		}
	}

	add("Intent", string(facts.Intent))
	add("Property type", facts.PropertyType)
	add("Budget", facts.Budget)
	if facts.BudgetMax != nil {
		add("Budget ceiling", strconv.FormatInt(*facts.BudgetMax, 10))
	}
	add("Location", facts.Location)
	add("Timeline", facts.Timeline)
	if facts.HasPreApproval != nil {
		if *facts.HasPreApproval {
			add("Pre-approval", "yes")
		} else {
			add("Pre-approval", "no")
		}
	}

	return details
}

// smsText keeps the alert under a single SMS segment where possible.
func smsText(lead *leadrepo.Lead) string {
	parts := []string{
		fmt.Sprintf("Hot lead: %s %s (score %d)", lead.Contact.Name, lead.Contact.Phone, lead.Score),
	}
	if lead.Facts.Timeline != "" {
		parts = append(parts, lead.Facts.Timeline)
	}
	if lead.Facts.Location != "" {
		parts = append(parts, lead.Facts.Location)
	}
	return strings.Join(parts, " · ")
}

func toCRMLead(lead *leadrepo.Lead, bot *chatbotrepo.Chatbot) crm.Lead {
	return crm.Lead{
		ID:             lead.ID.String(),
		ChatbotID:      lead.ChatbotID.String(),
		ChatbotName:    bot.Name,
		ConversationID: lead.ConversationID,
		Contact:        lead.Contact,
		Facts:          lead.Facts,
		Score:          lead.Score,
		Category:       lead.Category,
		Notes:          lead.Notes,
		Source:         lead.Source,
		CreatedAt:      lead.CreatedAt,
	}
}
