package crm

import (
	"context"
	"time"

	"chatlead_backend/internal/leads/domain"
)

// TestConnection pushes a synthetic lead through the same forwarding path
// production traffic uses, so a passing test means real deliveries will work
// with the exact same provider, auth and payload code.
func (f *Forwarder) TestConnection(ctx context.Context, cfg *Config) Result {
	if cfg == nil || !cfg.Enabled {
		return Result{Success: true, Detail: "integration disabled"}
	}

	budget := int64(500000)
	email := "test@example.com"
	preApproved := true

	lead := Lead{
		ID:             "test-connection",
		ChatbotID:      "test-connection",
		ChatbotName:    "Connection Test",
		ConversationID: "test-connection",
		Contact: domain.Contact{
			Name:  "Connection Test",
			Phone: "+15550100000",
			Email: &email,
		},
		Facts: domain.Facts{
			Intent:         domain.IntentBuy,
			PropertyType:   "apartment",
			Location:       "Test City",
			Timeline:       "this month",
			BudgetMax:      &budget,
			HasPreApproval: &preApproved,
		},
		Score:     90,
		Category:  domain.CategoryHot,
		Notes:     "Synthetic lead generated by a CRM connection test. Safe to delete.",
		Source:    "connection-test",
		CreatedAt: time.Now().UTC(),
	}

	return f.Forward(ctx, cfg, lead)
}
