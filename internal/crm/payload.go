package crm

import (
	"strconv"
	"strings"
	"time"

	"chatlead_backend/internal/leads/domain"
)

// envelope is the normalized JSON body sent to generic webhook consumers.
type envelope struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Contact   envelopeContact `json:"contact"`
	Lead      envelopeLead    `json:"lead"`
	Scoring   envelopeScoring `json:"scoring"`
	Meta      envelopeMeta    `json:"meta"`
}

type envelopeContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type envelopeLead struct {
	Intent         string              `json:"intent,omitempty"`
	PropertyType   string              `json:"propertyType,omitempty"`
	Purpose        string              `json:"purpose,omitempty"`
	Budget         string              `json:"budget,omitempty"`
	BudgetMin      *int64              `json:"budgetMin,omitempty"`
	BudgetMax      *int64              `json:"budgetMax,omitempty"`
	Location       string              `json:"location,omitempty"`
	Timeline       string              `json:"timeline,omitempty"`
	HasPreApproval *bool               `json:"hasPreApproval,omitempty"`
	Requirements   domain.Requirements `json:"requirements,omitempty"`
	Notes          string              `json:"notes,omitempty"`
}

type envelopeScoring struct {
	Score    int    `json:"score"`
	Category string `json:"category"`
}

type envelopeMeta struct {
	LeadID         string    `json:"leadId"`
	ChatbotID      string    `json:"chatbotId"`
	ChatbotName    string    `json:"chatbotName,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	Source         string    `json:"source"`
	CapturedAt     time.Time `json:"capturedAt"`
}

func buildEnvelope(lead Lead) envelope {
	email := ""
	if lead.Contact.Email != nil {
		email = *lead.Contact.Email
	}

	return envelope{
		Event:     "lead.captured",
		Timestamp: time.Now().UTC(),
		Contact: envelopeContact{
			Name:  lead.Contact.Name,
			Phone: lead.Contact.Phone,
			Email: email,
		},
		Lead: envelopeLead{
			Intent:         string(lead.Facts.Intent),
			PropertyType:   lead.Facts.PropertyType,
			Purpose:        string(lead.Facts.Purpose),
			Budget:         lead.Facts.Budget,
			BudgetMin:      lead.Facts.BudgetMin,
			BudgetMax:      lead.Facts.BudgetMax,
			Location:       lead.Facts.Location,
			Timeline:       lead.Facts.Timeline,
			HasPreApproval: lead.Facts.HasPreApproval,
			Requirements:   lead.Facts.Requirements,
			Notes:          lead.Notes,
		},
		Scoring: envelopeScoring{
			Score:    lead.Score,
			Category: string(lead.Category),
		},
		Meta: envelopeMeta{
			LeadID:         lead.ID,
			ChatbotID:      lead.ChatbotID,
			ChatbotName:    lead.ChatbotName,
			ConversationID: lead.ConversationID,
			Source:         lead.Source,
			CapturedAt:     lead.CreatedAt,
		},
	}
}

// splitName separates a full name into first and last for providers with a
// structured contact schema. Single-word names become the first name.
func splitName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// qualificationNotes concatenates every known qualification field into a
// human-readable blob, in a fixed order so CRM-side diffs stay stable.
func qualificationNotes(lead Lead) string {
	var lines []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, label+": "+value)
		}
	}

	add("Intent", string(lead.Facts.Intent))
	add("Property type", lead.Facts.PropertyType)
	add("Purpose", string(lead.Facts.Purpose))
	add("Budget", lead.Facts.Budget)
	if lead.Facts.BudgetMax != nil {
		add("Budget ceiling", formatInt64(*lead.Facts.BudgetMax))
	}
	add("Location", lead.Facts.Location)
	add("Timeline", lead.Facts.Timeline)
	if lead.Facts.HasPreApproval != nil {
		if *lead.Facts.HasPreApproval {
			add("Pre-approval", "yes")
		} else {
			add("Pre-approval", "no")
		}
	}
	add("Score", formatInt64(int64(lead.Score))+" ("+string(lead.Category)+")")
	add("Notes", lead.Notes)

	return strings.Join(lines, "\n")
}

// categoryTags derives provider tags from category, intent and property type.
func categoryTags(lead Lead) []string {
	tags := []string{"chatbot-lead", string(lead.Category)}
	if lead.Facts.Intent != "" {
		tags = append(tags, string(lead.Facts.Intent))
	}
	if lead.Facts.PropertyType != "" {
		tags = append(tags, strings.ToLower(lead.Facts.PropertyType))
	}
	return tags
}

func formatInt64(n int64) string {
	return strconv.FormatInt(n, 10)
}
