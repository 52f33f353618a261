// Package analyzer produces a human-readable actionable summary for a lead:
// profile classification, heat, blockers and a first-call recommendation.
// It deliberately does not share code with the scoring engine and applies its
// own weighting, so its heat can diverge slightly from the scored category.
// That divergence is intentional: the score ranks leads, the summary tells an
// agent what to do on the first call.
package analyzer

import (
	"fmt"
	"strings"

	"chatlead_backend/internal/leads/domain"
)

// Text is a bilingual message. Every human-facing field is built in both
// languages up front, keeping the rules engine independent of any
// presentation-time localization.
type Text struct {
	EN string `json:"en"`
	TR string `json:"tr"`
}

// Profile is the classified prospect archetype.
type Profile string

const (
	ProfileSeller      Profile = "seller_candidate"
	ProfileRenter      Profile = "renter"
	ProfileInvestor    Profile = "investor"
	ProfileUrgentBuyer Profile = "urgent_buyer"
	ProfileBrowser     Profile = "browser"
	ProfileUndecided   Profile = "undecided"
)

// Heat is the analyzer's own urgency read, independent of the scoring category.
type Heat string

const (
	HeatHigh   Heat = "high"
	HeatMedium Heat = "medium"
	HeatLow    Heat = "low"
)

// Summary is the analyzer output. CriticalNote is nil when no blocker applies;
// when set it is always the single highest-priority blocker, never a list.
type Summary struct {
	Profile        Profile `json:"profile"`
	ProfileLabel   Text    `json:"profileLabel"`
	Heat           Heat    `json:"heat"`
	Situation      Text    `json:"situation"`
	CriticalNote   *Text   `json:"criticalNote,omitempty"`
	Recommendation Text    `json:"recommendation"`
	Confidence     int     `json:"confidence"`
}

var browsingPhrases = []string{
	"just browsing", "just looking", "curious", "no rush", "someday",
	"bakıyorum", "sadece bakıyor", "acelem yok", "fikir edin",
}

var urgentPhrases = []string{
	"immediate", "asap", "urgent", "right away", "this week", "this month",
	"hemen", "acil", "bu hafta", "bu ay", "en kısa",
}

var mustSellPhrases = []string{
	"after selling", "need to sell", "once i sell", "have to sell",
	"sattıktan sonra", "önce satmam", "evimi satmam",
}

// Analyze classifies the prospect and builds the actionable summary.
// Pure function: no I/O, no recomputation of the numeric score.
func Analyze(contact domain.Contact, facts domain.Facts) Summary {
	profile, label := classify(facts)
	heat := assessHeat(facts)

	return Summary{
		Profile:        profile,
		ProfileLabel:   label,
		Heat:           heat,
		Situation:      describeSituation(facts, profile),
		CriticalNote:   detectBlocker(facts),
		Recommendation: recommend(profile, heat),
		Confidence:     confidence(contact, facts),
	}
}

// classify walks a priority-ordered decision tree; the first matching rule
// wins.
func classify(facts domain.Facts) (Profile, Text) {
	urgent := containsAny(facts.Timeline, urgentPhrases)
	browsing := containsAny(facts.Timeline, browsingPhrases)
	preApproved := facts.HasPreApproval != nil && *facts.HasPreApproval
	noPreApproval := facts.HasPreApproval == nil || !*facts.HasPreApproval

	switch {
	case facts.Intent == domain.IntentSell || facts.Intent == domain.IntentValue:
		return ProfileSeller, Text{EN: "Seller candidate", TR: "Satıcı adayı"}
	case facts.Intent == domain.IntentRent || facts.Intent == domain.IntentTenant:
		return ProfileRenter, Text{EN: "Renter", TR: "Kiracı"}
	case facts.Purpose == domain.PurposeInvestment:
		return ProfileInvestor, Text{EN: "Investor", TR: "Yatırımcı"}
	case urgent && preApproved:
		return ProfileUrgentBuyer, Text{EN: "Urgent buyer", TR: "Acil alıcı"}
	case browsing || (noPreApproval && !urgent):
		return ProfileBrowser, Text{EN: "Browser / undecided", TR: "İnceleyen / kararsız"}
	default:
		return ProfileUndecided, Text{EN: "Undecided", TR: "Kararsız"}
	}
}

// assessHeat applies the analyzer's own weighting: urgency dominates,
// financing readiness and a concrete budget lift, browsing suppresses.
func assessHeat(facts domain.Facts) Heat {
	if containsAny(facts.Timeline, browsingPhrases) {
		return HeatLow
	}

	points := 0
	if containsAny(facts.Timeline, urgentPhrases) {
		points += 2
	}
	if facts.HasPreApproval != nil && *facts.HasPreApproval {
		points += 2
	}
	if facts.BudgetMax != nil || strings.TrimSpace(facts.Budget) != "" {
		points++
	}
	if facts.Intent == domain.IntentSell {
		points++
	}

	switch {
	case points >= 3:
		return HeatHigh
	case points >= 1:
		return HeatMedium
	default:
		return HeatLow
	}
}

func describeSituation(facts domain.Facts, profile Profile) Text {
	var en, tr []string

	switch profile {
	case ProfileSeller:
		en = append(en, "Wants to sell or value a property.")
		tr = append(tr, "Bir mülkü satmak veya değerletmek istiyor.")
	case ProfileRenter:
		en = append(en, "Looking for a rental.")
		tr = append(tr, "Kiralık arıyor.")
	case ProfileInvestor:
		en = append(en, "Buying for investment purposes.")
		tr = append(tr, "Yatırım amaçlı alım yapıyor.")
	case ProfileUrgentBuyer:
		en = append(en, "Ready to buy on a short timeline.")
		tr = append(tr, "Kısa vadede almaya hazır.")
	default:
		en = append(en, "Exploring the market.")
		tr = append(tr, "Piyasayı araştırıyor.")
	}

	if facts.Location != "" {
		en = append(en, fmt.Sprintf("Target area: %s.", facts.Location))
		tr = append(tr, fmt.Sprintf("Hedef bölge: %s.", facts.Location))
	}
	if facts.BudgetMax != nil {
		en = append(en, fmt.Sprintf("Budget up to %d.", *facts.BudgetMax))
		tr = append(tr, fmt.Sprintf("Bütçe en fazla %d.", *facts.BudgetMax))
	} else if strings.TrimSpace(facts.Budget) != "" {
		en = append(en, fmt.Sprintf("Stated budget: %s.", facts.Budget))
		tr = append(tr, fmt.Sprintf("Belirtilen bütçe: %s.", facts.Budget))
	}
	if facts.Timeline != "" {
		en = append(en, fmt.Sprintf("Timeline: %s.", facts.Timeline))
		tr = append(tr, fmt.Sprintf("Zaman planı: %s.", facts.Timeline))
	}

	return Text{EN: strings.Join(en, " "), TR: strings.Join(tr, " ")}
}

// detectBlocker surfaces at most one blocker, by fixed priority:
// must-sell-first outranks missing pre-approval outranks merely browsing.
// The agent gets one clear action item, not a list.
func detectBlocker(facts domain.Facts) *Text {
	if mustSellFirst(facts) {
		return &Text{
			EN: "Must sell an existing property before buying.",
			TR: "Almadan önce mevcut mülkünü satması gerekiyor.",
		}
	}

	if facts.HasPreApproval != nil && !*facts.HasPreApproval &&
		(facts.Intent == domain.IntentBuy || facts.Intent == "") {
		return &Text{
			EN: "No financing pre-approval yet.",
			TR: "Henüz kredi ön onayı yok.",
		}
	}

	if containsAny(facts.Timeline, browsingPhrases) {
		return &Text{
			EN: "Currently only browsing the market.",
			TR: "Şu an sadece piyasayı inceliyor.",
		}
	}

	return nil
}

func mustSellFirst(facts domain.Facts) bool {
	if flag, ok := facts.Requirements.Extra["mustSellFirst"].(bool); ok && flag {
		return true
	}
	return containsAny(facts.Timeline, mustSellPhrases) || containsAny(facts.Budget, mustSellPhrases)
}

func recommend(profile Profile, heat Heat) Text {
	switch {
	case profile == ProfileSeller:
		return Text{
			EN: "Offer a free valuation call within 24 hours; listing leads are high value.",
			TR: "24 saat içinde ücretsiz değerleme görüşmesi önerin; satış kaydı yüksek değerlidir.",
		}
	case profile == ProfileUrgentBuyer, heat == HeatHigh:
		return Text{
			EN: "Call within the hour with 2-3 matching listings ready.",
			TR: "Bir saat içinde arayın, 2-3 uygun ilanı hazır bulundurun.",
		}
	case profile == ProfileInvestor:
		return Text{
			EN: "Prepare yield comparisons before the first call.",
			TR: "İlk görüşmeden önce getiri karşılaştırmaları hazırlayın.",
		}
	case heat == HeatMedium:
		return Text{
			EN: "Call within one business day and qualify the timeline.",
			TR: "Bir iş günü içinde arayıp zaman planını netleştirin.",
		}
	default:
		return Text{
			EN: "Add to the nurture sequence; check back in two weeks.",
			TR: "Takip listesine ekleyin; iki hafta sonra tekrar ulaşın.",
		}
	}
}

// confidence is the share of the ten defined fact slots that are filled,
// as a 0-100 percentage. It measures data completeness, not prediction
// certainty.
func confidence(contact domain.Contact, facts domain.Facts) int {
	filled := 0
	slots := []bool{
		strings.TrimSpace(contact.Name) != "",
		contact.Email != nil && strings.TrimSpace(*contact.Email) != "",
		facts.Intent != "",
		strings.TrimSpace(facts.PropertyType) != "",
		facts.Purpose != "",
		facts.BudgetMax != nil || strings.TrimSpace(facts.Budget) != "",
		strings.TrimSpace(facts.Location) != "",
		strings.TrimSpace(facts.Timeline) != "",
		facts.HasPreApproval != nil,
		!facts.Requirements.IsZero(),
	}
	for _, ok := range slots {
		if ok {
			filled++
		}
	}
	return filled * 100 / len(slots)
}

func containsAny(s string, keywords []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
