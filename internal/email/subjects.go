package email

import "fmt"

const (
	subjectHotLeadFmt    = "🔥 Hot lead: %s (%d)"
	subjectWarmLeadFmt   = "⭐ Warm lead: %s (%d)"
	subjectColdLeadFmt   = "New lead: %s (%d)"
	subjectUpdatedSuffix = " — updated"
)

// subjectForAlert priority-codes the subject line so hot leads stand out in a
// crowded inbox.
func subjectForAlert(alert LeadAlert) string {
	var subject string
	switch alert.Category {
	case "hot":
		subject = fmt.Sprintf(subjectHotLeadFmt, alert.LeadName, alert.Score)
	case "warm":
		subject = fmt.Sprintf(subjectWarmLeadFmt, alert.LeadName, alert.Score)
	default:
		subject = fmt.Sprintf(subjectColdLeadFmt, alert.LeadName, alert.Score)
	}
	if alert.Merged {
		subject += subjectUpdatedSuffix
	}
	return subject
}

func alertHeading(alert LeadAlert) string {
	if alert.Merged {
		return "A lead you already know came back"
	}
	return "You have a new lead"
}
