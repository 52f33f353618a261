// Package scoring computes the numeric qualification score and hot/warm/cold
// category for a lead. It is a pure additive point system with no I/O, no
// randomness and no external calls: identical inputs always yield identical
// outputs. The point weights are deliberately transparent so agents can audit
// why a lead scored the way it did.
package scoring

import (
	"strings"

	"chatlead_backend/internal/leads/domain"
)

const (
	pointsTimelineImmediate = 40
	pointsTimelineQuarter   = 25
	pointsTimelineHalfYear  = 10

	pointsPreApproved    = 30
	pointsNotPreApproved = 5

	pointsBudgetTop = 20
	pointsBudgetMid = 15
	pointsBudgetLow = 10
	pointsBudgetAny = 5

	pointsPhone = 5
	pointsEmail = 5

	pointsIntentBuy = 5
	// Sellers are weighted higher: a listing feeds many buyers.
	pointsIntentSell = 10

	// Category thresholds are fixed constants, not per-tenant: "hot" must
	// mean the same thing on every dashboard.
	thresholdHot  = 70
	thresholdWarm = 40
)

// Timeline keyword buckets. Matching is substring-based and covers English
// and Turkish phrasings; unknown phrasing contributes nothing.
var (
	timelineImmediate = []string{
		"immediate", "asap", "right away", "urgent", "this week", "this month",
		"hemen", "acil", "bu hafta", "bu ay", "en kısa",
	}
	timelineQuarter = []string{
		"1-3 month", "1 to 3", "next month", "couple of month", "few month",
		"1-3 ay", "gelecek ay", "önümüzdeki ay", "birkaç ay", "2 ay", "3 ay",
	}
	timelineHalfYear = []string{
		"3-6 month", "3 to 6", "within 6", "six month", "this year",
		"3-6 ay", "6 ay", "altı ay", "bu yıl", "sene içinde",
	}
)

// Engine scores qualification facts. Budget tier thresholds are configured
// per deployment; everything else is fixed.
type Engine struct {
	tierTop int64
	tierMid int64
	tierLow int64
}

// BudgetTiers provides the configured budget thresholds.
type BudgetTiers interface {
	GetBudgetTiers() (top, mid, low int64)
}

// NewEngine creates a scoring engine with the given budget tier thresholds.
func NewEngine(cfg BudgetTiers) *Engine {
	top, mid, low := cfg.GetBudgetTiers()
	return &Engine{tierTop: top, tierMid: mid, tierLow: low}
}

// Score maps contact and qualification facts to a 0-100 score and category.
// Missing optional facts contribute zero; there are no failure modes.
func (e *Engine) Score(contact domain.Contact, facts domain.Facts) (int, domain.Category) {
	score := 0

	score += timelinePoints(facts.Timeline)
	score += preApprovalPoints(facts.HasPreApproval)
	score += e.budgetPoints(facts)
	score += contactPoints(contact)
	score += intentPoints(facts.Intent)

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return score, Categorize(score)
}

// Categorize maps a score to its category using the fixed thresholds.
func Categorize(score int) domain.Category {
	switch {
	case score >= thresholdHot:
		return domain.CategoryHot
	case score >= thresholdWarm:
		return domain.CategoryWarm
	default:
		return domain.CategoryCold
	}
}

func timelinePoints(timeline string) int {
	normalized := strings.ToLower(strings.TrimSpace(timeline))
	if normalized == "" {
		return 0
	}

	switch {
	case containsAny(normalized, timelineImmediate):
		return pointsTimelineImmediate
	case containsAny(normalized, timelineQuarter):
		return pointsTimelineQuarter
	case containsAny(normalized, timelineHalfYear):
		return pointsTimelineHalfYear
	default:
		// "just browsing" and anything unrecognized
		return 0
	}
}

func preApprovalPoints(hasPreApproval *bool) int {
	if hasPreApproval == nil {
		return 0
	}
	if *hasPreApproval {
		return pointsPreApproved
	}
	return pointsNotPreApproved
}

func (e *Engine) budgetPoints(facts domain.Facts) int {
	if facts.BudgetMax != nil {
		ceiling := *facts.BudgetMax
		switch {
		case ceiling >= e.tierTop:
			return pointsBudgetTop
		case ceiling >= e.tierMid:
			return pointsBudgetMid
		case ceiling >= e.tierLow:
			return pointsBudgetLow
		default:
			return pointsBudgetAny
		}
	}
	if strings.TrimSpace(facts.Budget) != "" {
		return pointsBudgetAny
	}
	return 0
}

func contactPoints(contact domain.Contact) int {
	points := 0
	if strings.TrimSpace(contact.Phone) != "" {
		points += pointsPhone
	}
	if contact.Email != nil && strings.TrimSpace(*contact.Email) != "" {
		points += pointsEmail
	}
	return points
}

func intentPoints(intent domain.Intent) int {
	switch intent {
	case domain.IntentBuy:
		return pointsIntentBuy
	case domain.IntentSell:
		return pointsIntentSell
	default:
		return 0
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
