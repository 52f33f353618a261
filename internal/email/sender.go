// Package email delivers lead alert emails over the tenant's SMTP server.
package email

import (
	"context"

	"chatlead_backend/internal/config"
)

// LeadAlert carries everything the alert template needs. AnalysisHTML is the
// pre-rendered analyzer block and is trusted markup built from escaped input.
type LeadAlert struct {
	LeadName     string
	Phone        string
	Email        string
	Score        int
	Category     string
	ChatbotName  string
	Merged       bool
	Details      []Detail
	AnalysisHTML string
}

// Detail is one labelled qualification line in the alert body.
type Detail struct {
	Label string
	Value string
}

type Sender interface {
	SendLeadAlert(ctx context.Context, toEmail string, alert LeadAlert) error
}

// NoopSender is used when SMTP is not configured. Deliveries silently
// succeed so the notification fan-out never branches on configuration.
type NoopSender struct{}

func (NoopSender) SendLeadAlert(ctx context.Context, toEmail string, alert LeadAlert) error {
	return nil
}

// NewSender returns the SMTP sender, or a no-op when email is disabled.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
