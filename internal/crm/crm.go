// Package crm forwards qualified leads to external CRM systems. Three
// provider protocols are supported behind one Sender interface: a generic
// JSON webhook, the Rex REST CRM, and the Reapit OAuth2 CRM. Adding a fourth
// provider is a closed, localized change: implement Sender, extend the
// factory switch.
package crm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chatlead_backend/internal/leads/domain"
)

// Provider identifiers stored in tenant CRM configuration.
const (
	ProviderGeneric = "generic"
	ProviderRex     = "rex"
	ProviderReapit  = "reapit"
)

const (
	webhookTimeout = 10 * time.Second
	restTimeout    = 15 * time.Second
	tokenTimeout   = 10 * time.Second
	webhookBackoff = 500 * time.Millisecond
	headerAuth     = "Authorization"
	headerContent  = "Content-Type"
	mimeJSON       = "application/json"
	mimeForm       = "application/x-www-form-urlencoded"
	bearerPrefix   = "Bearer "
)

// Config is the per-tenant CRM integration blob stored with the chatbot
// settings. Exactly one provider section is populated, matching Provider.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider,omitempty"`

	// Generic webhook
	WebhookURL    string            `json:"webhookUrl,omitempty"`
	WebhookToken  string            `json:"webhookToken,omitempty"`
	CustomHeaders map[string]string `json:"customHeaders,omitempty"`

	// Rex
	RexSubdomain string `json:"rexSubdomain,omitempty"`
	RexToken     string `json:"rexToken,omitempty"`

	// Reapit
	ReapitClientID     string `json:"reapitClientId,omitempty"`
	ReapitClientSecret string `json:"reapitClientSecret,omitempty"`
	ReapitCustomerID   string `json:"reapitCustomerId,omitempty"`
	ReapitBaseURL      string `json:"reapitBaseUrl,omitempty"`
}

// Lead is the forwarding view of a persisted lead: identity, contact and
// qualification facts plus the derived score. Built by the caller from the
// already-persisted record so every provider sees the same data.
type Lead struct {
	ID             string
	ChatbotID      string
	ChatbotName    string
	ConversationID string
	Contact        domain.Contact
	Facts          domain.Facts
	Score          int
	Category       domain.Category
	Notes          string
	Source         string
	CreatedAt      time.Time
}

// Result reports the outcome of a forwarding attempt. Err is captured, not
// thrown: nothing escapes the adapter boundary.
type Result struct {
	Success  bool
	Provider string
	Detail   string
	Err      error
}

// Sender forwards one lead to one provider.
type Sender interface {
	Forward(ctx context.Context, lead Lead) Result
}

// AuthError marks failures in the OAuth2 token exchange, distinct from
// downstream API failures, so operators can tell bad credentials from a
// provider outage.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "crm auth: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// Forwarder selects and runs the provider sender for a tenant configuration.
type Forwarder struct {
	httpClient *http.Client
}

// NewForwarder creates a Forwarder. The shared client carries no timeout;
// each provider call sets its own via context.
func NewForwarder() *Forwarder {
	return &Forwarder{httpClient: &http.Client{}}
}

// Forward sends the lead to the configured provider. A disabled or absent
// integration is a no-op success so callers never branch on configuration.
func (f *Forwarder) Forward(ctx context.Context, cfg *Config, lead Lead) Result {
	if cfg == nil || !cfg.Enabled {
		return Result{Success: true, Detail: "integration disabled"}
	}

	sender, err := f.senderFor(cfg)
	if err != nil {
		return Result{Success: false, Provider: cfg.Provider, Err: err}
	}

	return sender.Forward(ctx, lead)
}

func (f *Forwarder) senderFor(cfg *Config) (Sender, error) {
	switch cfg.Provider {
	case ProviderGeneric:
		return newWebhookSender(cfg, f.httpClient), nil
	case ProviderRex:
		return newRexSender(cfg, f.httpClient), nil
	case ProviderReapit:
		return newReapitSender(cfg, f.httpClient), nil
	default:
		return nil, fmt.Errorf("unknown crm provider %q", cfg.Provider)
	}
}
