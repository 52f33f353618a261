package email

import (
	"strings"
	"testing"
)

func TestSubjectForAlert(t *testing.T) {
	cases := []struct {
		alert LeadAlert
		want  string
	}{
		{LeadAlert{LeadName: "Ayşe", Score: 90, Category: "hot"}, "🔥 Hot lead: Ayşe (90)"},
		{LeadAlert{LeadName: "Mehmet", Score: 55, Category: "warm"}, "⭐ Warm lead: Mehmet (55)"},
		{LeadAlert{LeadName: "Jan", Score: 20, Category: "cold"}, "New lead: Jan (20)"},
		{LeadAlert{LeadName: "Ayşe", Score: 90, Category: "hot", Merged: true}, "🔥 Hot lead: Ayşe (90) — updated"},
	}
	for _, c := range cases {
		if got := subjectForAlert(c.alert); got != c.want {
			t.Errorf("subjectForAlert(%+v) = %q, want %q", c.alert, got, c.want)
		}
	}
}

func TestRenderLeadAlertTemplate(t *testing.T) {
	alert := LeadAlert{
		LeadName:    "Ayşe Yılmaz",
		Phone:       "+905551234567",
		Email:       "ayse@example.com",
		Score:       90,
		Category:    "hot",
		ChatbotName: "Marina Homes",
		Details: []Detail{
			{Label: "Timeline", Value: "this month"},
			{Label: "Budget", Value: "6,000,000"},
		},
		AnalysisHTML: `<div class="analysis">Urgent buyer</div>`,
	}

	content, err := renderEmailTemplate("lead_alert.html", leadAlertEmailData{
		baseEmailData: baseEmailData{Title: "t", Heading: "h"},
		Alert:         alert,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	// html/template escapes "+" to &#43; in text nodes; clients render it back.
	for _, want := range []string{
		"Ayşe Yılmaz",
		"&#43;905551234567",
		"90/100",
		"Timeline",
		"this month",
		`<div class="analysis">Urgent buyer</div>`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered alert missing %q", want)
		}
	}
}

func TestRenderEscapesLeadInput(t *testing.T) {
	alert := LeadAlert{
		LeadName:    `<script>alert(1)</script>`,
		Phone:       "+15550100000",
		Category:    "cold",
		ChatbotName: "Bot",
	}
	content, err := renderEmailTemplate("lead_alert.html", leadAlertEmailData{
		baseEmailData: baseEmailData{Title: "t", Heading: "h"},
		Alert:         alert,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(content, "<script>") {
		t.Fatal("lead name was not escaped")
	}
}
