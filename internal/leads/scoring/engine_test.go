package scoring

import (
	"testing"

	"chatlead_backend/internal/leads/domain"
)

type tiers struct{ top, mid, low int64 }

func (t tiers) GetBudgetTiers() (int64, int64, int64) { return t.top, t.mid, t.low }

func defaultTiers() tiers { return tiers{top: 20_000_000, mid: 10_000_000, low: 5_000_000} }

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }
func strPtr(s string) *string { return &s }

func TestScore_HotLeadWorkedExample(t *testing.T) {
	engine := NewEngine(defaultTiers())

	contact := domain.Contact{Name: "Ayşe Y.", Phone: "+905551234567"}
	facts := domain.Facts{
		Intent:         domain.IntentBuy,
		Timeline:       "this month",
		HasPreApproval: boolPtr(true),
		BudgetMax:      int64Ptr(6_000_000),
	}

	score, category := engine.Score(contact, facts)

	// 40 timeline + 30 pre-approval + 10 budget tier + 5 phone + 5 intent
	if score != 90 {
		t.Fatalf("expected score 90, got %d", score)
	}
	if category != domain.CategoryHot {
		t.Fatalf("expected hot, got %s", category)
	}
}

func TestScore_Deterministic(t *testing.T) {
	engine := NewEngine(defaultTiers())
	contact := domain.Contact{Phone: "+905551112233", Email: strPtr("a@b.co")}
	facts := domain.Facts{Intent: domain.IntentSell, Timeline: "birkaç ay içinde"}

	s1, c1 := engine.Score(contact, facts)
	s2, c2 := engine.Score(contact, facts)

	if s1 != s2 || c1 != c2 {
		t.Fatalf("scoring is not deterministic: (%d,%s) vs (%d,%s)", s1, c1, s2, c2)
	}
}

func TestScore_TimelineBuckets(t *testing.T) {
	engine := NewEngine(defaultTiers())

	cases := []struct {
		timeline string
		want     int
	}{
		{"immediately, ASAP", 40},
		{"hemen taşınmak istiyorum", 40},
		{"in 1-3 months", 25},
		{"önümüzdeki ay olabilir", 25},
		{"within 6 months maybe", 10},
		{"bu yıl içinde", 10},
		{"just browsing", 0},
		{"", 0},
	}

	for _, tc := range cases {
		score, _ := engine.Score(domain.Contact{}, domain.Facts{Timeline: tc.timeline})
		if score != tc.want {
			t.Errorf("timeline %q: expected %d, got %d", tc.timeline, tc.want, score)
		}
	}
}

func TestScore_PreApprovalStates(t *testing.T) {
	engine := NewEngine(defaultTiers())

	if score, _ := engine.Score(domain.Contact{}, domain.Facts{HasPreApproval: boolPtr(true)}); score != 30 {
		t.Errorf("explicit true: expected 30, got %d", score)
	}
	if score, _ := engine.Score(domain.Contact{}, domain.Facts{HasPreApproval: boolPtr(false)}); score != 5 {
		t.Errorf("explicit false: expected 5, got %d", score)
	}
	if score, _ := engine.Score(domain.Contact{}, domain.Facts{}); score != 0 {
		t.Errorf("unknown: expected 0, got %d", score)
	}
}

func TestScore_BudgetTiers(t *testing.T) {
	engine := NewEngine(defaultTiers())

	cases := []struct {
		name  string
		facts domain.Facts
		want  int
	}{
		{"top tier", domain.Facts{BudgetMax: int64Ptr(25_000_000)}, 20},
		{"top boundary", domain.Facts{BudgetMax: int64Ptr(20_000_000)}, 20},
		{"mid tier", domain.Facts{BudgetMax: int64Ptr(12_000_000)}, 15},
		{"lower-mid tier", domain.Facts{BudgetMax: int64Ptr(6_000_000)}, 10},
		{"any numeric", domain.Facts{BudgetMax: int64Ptr(500_000)}, 5},
		{"free text only", domain.Facts{Budget: "around 2M"}, 5},
		{"nothing", domain.Facts{}, 0},
	}

	for _, tc := range cases {
		score, _ := engine.Score(domain.Contact{}, tc.facts)
		if score != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, score)
		}
	}
}

func TestScore_RangeAndThresholds(t *testing.T) {
	engine := NewEngine(defaultTiers())

	// Maximum everything stays clamped to [0,100].
	contact := domain.Contact{Phone: "+905551234567", Email: strPtr("x@y.z")}
	facts := domain.Facts{
		Intent:         domain.IntentSell,
		Timeline:       "hemen",
		HasPreApproval: boolPtr(true),
		BudgetMax:      int64Ptr(50_000_000),
	}
	score, category := engine.Score(contact, facts)
	if score < 0 || score > 100 {
		t.Fatalf("score out of range: %d", score)
	}
	if category != domain.CategoryHot {
		t.Fatalf("expected hot at score %d", score)
	}

	if got := Categorize(70); got != domain.CategoryHot {
		t.Errorf("70 should be hot, got %s", got)
	}
	if got := Categorize(69); got != domain.CategoryWarm {
		t.Errorf("69 should be warm, got %s", got)
	}
	if got := Categorize(40); got != domain.CategoryWarm {
		t.Errorf("40 should be warm, got %s", got)
	}
	if got := Categorize(39); got != domain.CategoryCold {
		t.Errorf("39 should be cold, got %s", got)
	}
}

func TestScore_SellerWeightedAboveBuyer(t *testing.T) {
	engine := NewEngine(defaultTiers())

	buyScore, _ := engine.Score(domain.Contact{}, domain.Facts{Intent: domain.IntentBuy})
	sellScore, _ := engine.Score(domain.Contact{}, domain.Facts{Intent: domain.IntentSell})

	if sellScore <= buyScore {
		t.Fatalf("sell intent (%d) should outscore buy intent (%d)", sellScore, buyScore)
	}
}
