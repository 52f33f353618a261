// Package domain holds the lead domain model shared by the scoring engine,
// the analyzer, and the ingestion service. It has no I/O dependencies.
package domain

import "strings"

// Intent is what the prospect wants to do.
type Intent string

const (
	IntentBuy    Intent = "buy"
	IntentRent   Intent = "rent"
	IntentSell   Intent = "sell"
	IntentValue  Intent = "value"
	IntentTenant Intent = "tenant"
)

// Purpose distinguishes investors from owner-occupiers.
type Purpose string

const (
	PurposeInvestment Purpose = "investment"
	PurposeResidence  Purpose = "residence"
)

// Category is the hot/warm/cold qualification bucket.
type Category string

const (
	CategoryHot  Category = "hot"
	CategoryWarm Category = "warm"
	CategoryCold Category = "cold"
)

// Status is the lead lifecycle state.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status ends the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusLost || s == StatusCancelled
}

// SourceChatbot is the capture-source tag applied when a submission carries
// no explicit source.
const SourceChatbot = "chatbot"

// Requirements is the vertical-specific qualification bag. Known keys are
// typed; anything else round-trips through Extra untouched so CRM payloads
// keep the full picture.
type Requirements struct {
	Bedrooms  *int           `json:"bedrooms,omitempty"`
	Bathrooms *int           `json:"bathrooms,omitempty"`
	Parking   *bool          `json:"parking,omitempty"`
	SizeSqm   *float64       `json:"sizeSqm,omitempty"`
	Features  []string       `json:"features,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// IsZero reports whether no requirement field is set.
func (r Requirements) IsZero() bool {
	return r.Bedrooms == nil && r.Bathrooms == nil && r.Parking == nil &&
		r.SizeSqm == nil && len(r.Features) == 0 && len(r.Extra) == 0
}

// Facts are the qualification facts produced by a chatbot conversation.
// Optional facts are pointers or empty strings; the scoring engine treats
// missing facts as zero contribution.
type Facts struct {
	Intent         Intent       `json:"intent,omitempty"`
	PropertyType   string       `json:"propertyType,omitempty"`
	Purpose        Purpose      `json:"purpose,omitempty"`
	Budget         string       `json:"budget,omitempty"`
	BudgetMin      *int64       `json:"budgetMin,omitempty"`
	BudgetMax      *int64       `json:"budgetMax,omitempty"`
	Location       string       `json:"location,omitempty"`
	Timeline       string       `json:"timeline,omitempty"`
	HasPreApproval *bool        `json:"hasPreApproval,omitempty"`
	Requirements   Requirements `json:"requirements,omitempty"`
}

// Contact holds the prospect's contact facts. Phone is mandatory and, once
// normalized, serves as the dedup key.
type Contact struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

// Combine builds the merged facts view for a repeat submission inside the
// dedup window. Fresh facts override stored facts field by field, with two
// exceptions: the numeric budget ceiling keeps the maximum of both, and
// pre-approval keeps the stored value unless the new submission set it
// explicitly. Requirements merge per key, fresh values winning.
func Combine(old, fresh Facts) Facts {
	out := old

	if fresh.Intent != "" {
		out.Intent = fresh.Intent
	}
	if fresh.PropertyType != "" {
		out.PropertyType = fresh.PropertyType
	}
	if fresh.Purpose != "" {
		out.Purpose = fresh.Purpose
	}
	if strings.TrimSpace(fresh.Budget) != "" {
		out.Budget = fresh.Budget
	}
	if fresh.BudgetMin != nil {
		out.BudgetMin = fresh.BudgetMin
	}
	out.BudgetMax = maxBudget(old.BudgetMax, fresh.BudgetMax)
	if strings.TrimSpace(fresh.Location) != "" {
		out.Location = fresh.Location
	}
	if strings.TrimSpace(fresh.Timeline) != "" {
		out.Timeline = fresh.Timeline
	}
	if fresh.HasPreApproval != nil {
		out.HasPreApproval = fresh.HasPreApproval
	}
	out.Requirements = combineRequirements(old.Requirements, fresh.Requirements)

	return out
}

func maxBudget(a, b *int64) *int64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *b > *a {
		return b
	}
	return a
}

func combineRequirements(old, fresh Requirements) Requirements {
	out := old
	if fresh.Bedrooms != nil {
		out.Bedrooms = fresh.Bedrooms
	}
	if fresh.Bathrooms != nil {
		out.Bathrooms = fresh.Bathrooms
	}
	if fresh.Parking != nil {
		out.Parking = fresh.Parking
	}
	if fresh.SizeSqm != nil {
		out.SizeSqm = fresh.SizeSqm
	}
	if len(fresh.Features) > 0 {
		out.Features = mergeFeatures(old.Features, fresh.Features)
	}
	if len(fresh.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(fresh.Extra))
		} else {
			merged := make(map[string]any, len(old.Extra)+len(fresh.Extra))
			for k, v := range old.Extra {
				merged[k] = v
			}
			out.Extra = merged
		}
		for k, v := range fresh.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

func mergeFeatures(old, fresh []string) []string {
	seen := make(map[string]struct{}, len(old)+len(fresh))
	out := make([]string, 0, len(old)+len(fresh))
	for _, lists := range [][]string{old, fresh} {
		for _, f := range lists {
			key := strings.ToLower(strings.TrimSpace(f))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}
