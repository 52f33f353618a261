// Package transport defines the chatbot settings request/response DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CRMSettings is the wire shape of a tenant's CRM integration.
type CRMSettings struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider,omitempty" validate:"omitempty,oneof=generic rex reapit"`

	WebhookURL    string            `json:"webhookUrl,omitempty" validate:"omitempty,url,max=2048"`
	WebhookToken  string            `json:"webhookToken,omitempty" validate:"omitempty,max=512"`
	CustomHeaders map[string]string `json:"customHeaders,omitempty" validate:"omitempty,max=10"`

	RexSubdomain string `json:"rexSubdomain,omitempty" validate:"omitempty,hostname_rfc1123,max=63"`
	RexToken     string `json:"rexToken,omitempty" validate:"omitempty,max=512"`

	ReapitClientID     string `json:"reapitClientId,omitempty" validate:"omitempty,max=128"`
	ReapitClientSecret string `json:"reapitClientSecret,omitempty" validate:"omitempty,max=256"`
	ReapitCustomerID   string `json:"reapitCustomerId,omitempty" validate:"omitempty,max=64"`
	ReapitBaseURL      string `json:"reapitBaseUrl,omitempty" validate:"omitempty,url,max=2048"`
}

// UpdateSettingsRequest updates notification recipients and CRM configuration.
type UpdateSettingsRequest struct {
	NotificationEmail *string      `json:"notificationEmail" validate:"omitempty,email,max=255"`
	NotificationPhone *string      `json:"notificationPhone" validate:"omitempty,min=7,max=20"`
	CRM               *CRMSettings `json:"crm"`
}

// SettingsResponse is the chatbot settings view. Secrets are masked.
type SettingsResponse struct {
	ChatbotID         uuid.UUID    `json:"chatbotId"`
	Name              string       `json:"name"`
	PublicKey         string       `json:"publicKey"`
	NotificationEmail *string      `json:"notificationEmail,omitempty"`
	NotificationPhone *string      `json:"notificationPhone,omitempty"`
	CRM               *CRMSettings `json:"crm,omitempty"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// CRMTestResponse reports the outcome of a connection test.
type CRMTestResponse struct {
	Success  bool   `json:"success"`
	Provider string `json:"provider,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Error    string `json:"error,omitempty"`
}
