// Package service implements chatbot settings management and CRM connection
// testing on top of the chatbot repository.
package service

import (
	"context"
	"strings"

	"chatlead_backend/internal/chatbots/repository"
	"chatlead_backend/internal/chatbots/transport"
	"chatlead_backend/internal/crm"
	"chatlead_backend/platform/apperr"
	"chatlead_backend/platform/validator"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*repository.Chatbot, error)
	GetByPublicKey(ctx context.Context, publicKey string) (*repository.Chatbot, error)
	UpdateSettings(ctx context.Context, id, userID uuid.UUID, email, phone *string, crmCfg *crm.Config) (*repository.Chatbot, error)
}

type Service struct {
	repo      Repository
	forwarder *crm.Forwarder
	validate  *validator.Validator
}

func New(repo Repository, forwarder *crm.Forwarder, val *validator.Validator) *Service {
	return &Service{repo: repo, forwarder: forwarder, validate: val}
}

// ResolveByPublicKey looks up the chatbot a widget submission belongs to.
// Used by the intake path, which carries no authenticated user.
func (s *Service) ResolveByPublicKey(ctx context.Context, publicKey string) (*repository.Chatbot, error) {
	key := strings.TrimSpace(publicKey)
	if key == "" {
		return nil, apperr.BadRequest("missing chatbot key")
	}
	return s.repo.GetByPublicKey(ctx, key)
}

func (s *Service) GetSettings(ctx context.Context, chatbotID, userID uuid.UUID) (*transport.SettingsResponse, error) {
	bot, err := s.repo.GetByID(ctx, chatbotID, userID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(bot), nil
}

func (s *Service) UpdateSettings(ctx context.Context, chatbotID, userID uuid.UUID, req transport.UpdateSettingsRequest) (*transport.SettingsResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation("validation failed").WithDetails(validator.FieldErrors(err))
	}

	crmCfg, err := toCRMConfig(req.CRM)
	if err != nil {
		return nil, err
	}

	// Masked secrets submitted back unchanged mean "keep the stored value".
	if crmCfg != nil && hasMaskedSecret(crmCfg) {
		current, err := s.repo.GetByID(ctx, chatbotID, userID)
		if err != nil {
			return nil, err
		}
		restoreSecrets(crmCfg, current.CRM)
	}

	bot, err := s.repo.UpdateSettings(ctx, chatbotID, userID, req.NotificationEmail, req.NotificationPhone, crmCfg)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(bot), nil
}

// TestCRMConnection forwards a synthetic lead through the production sender
// for the chatbot's stored configuration.
func (s *Service) TestCRMConnection(ctx context.Context, chatbotID, userID uuid.UUID) (*transport.CRMTestResponse, error) {
	bot, err := s.repo.GetByID(ctx, chatbotID, userID)
	if err != nil {
		return nil, err
	}

	res := s.forwarder.TestConnection(ctx, bot.CRM)
	resp := &transport.CRMTestResponse{
		Success:  res.Success,
		Provider: res.Provider,
		Detail:   res.Detail,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	return resp, nil
}

const secretMask = "••••••••"

func toSettingsResponse(bot *repository.Chatbot) *transport.SettingsResponse {
	resp := &transport.SettingsResponse{
		ChatbotID:         bot.ID,
		Name:              bot.Name,
		PublicKey:         bot.PublicKey,
		NotificationEmail: bot.NotificationEmail,
		NotificationPhone: bot.NotificationPhone,
		UpdatedAt:         bot.UpdatedAt,
	}
	if bot.CRM != nil {
		resp.CRM = &transport.CRMSettings{
			Enabled:          bot.CRM.Enabled,
			Provider:         bot.CRM.Provider,
			WebhookURL:       bot.CRM.WebhookURL,
			WebhookToken:     mask(bot.CRM.WebhookToken),
			CustomHeaders:    bot.CRM.CustomHeaders,
			RexSubdomain:     bot.CRM.RexSubdomain,
			RexToken:         mask(bot.CRM.RexToken),
			ReapitClientID:   bot.CRM.ReapitClientID,
			ReapitCustomerID: bot.CRM.ReapitCustomerID,
			ReapitBaseURL:    bot.CRM.ReapitBaseURL,
		}
		resp.CRM.ReapitClientSecret = mask(bot.CRM.ReapitClientSecret)
	}
	return resp
}

func toCRMConfig(in *transport.CRMSettings) (*crm.Config, error) {
	if in == nil {
		return nil, nil
	}
	if in.Enabled {
		switch in.Provider {
		case crm.ProviderGeneric:
			if in.WebhookURL == "" {
				return nil, apperr.Validation("webhookUrl is required for the generic provider")
			}
		case crm.ProviderRex:
			if in.RexSubdomain == "" || in.RexToken == "" {
				return nil, apperr.Validation("rexSubdomain and rexToken are required for the rex provider")
			}
		case crm.ProviderReapit:
			// The base URL is an optional override of the platform default.
			if in.ReapitClientID == "" || in.ReapitClientSecret == "" {
				return nil, apperr.Validation("reapitClientId and reapitClientSecret are required for the reapit provider")
			}
		default:
			return nil, apperr.Validation("provider is required when the integration is enabled")
		}
	}
	return &crm.Config{
		Enabled:            in.Enabled,
		Provider:           in.Provider,
		WebhookURL:         in.WebhookURL,
		WebhookToken:       in.WebhookToken,
		CustomHeaders:      in.CustomHeaders,
		RexSubdomain:       in.RexSubdomain,
		RexToken:           in.RexToken,
		ReapitClientID:     in.ReapitClientID,
		ReapitClientSecret: in.ReapitClientSecret,
		ReapitCustomerID:   in.ReapitCustomerID,
		ReapitBaseURL:      in.ReapitBaseURL,
	}, nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return secretMask
}

func hasMaskedSecret(cfg *crm.Config) bool {
	return cfg.WebhookToken == secretMask ||
		cfg.RexToken == secretMask ||
		cfg.ReapitClientSecret == secretMask
}

func restoreSecrets(cfg, stored *crm.Config) {
	if stored == nil {
		return
	}
	if cfg.WebhookToken == secretMask {
		cfg.WebhookToken = stored.WebhookToken
	}
	if cfg.RexToken == secretMask {
		cfg.RexToken = stored.RexToken
	}
	if cfg.ReapitClientSecret == secretMask {
		cfg.ReapitClientSecret = stored.ReapitClientSecret
	}
}
