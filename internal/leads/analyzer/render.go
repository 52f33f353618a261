package analyzer

import (
	"fmt"
	"html"
	"strings"
)

// heatColors maps analyzer heat to the accent color used in email fragments.
var heatColors = map[Heat]string{
	HeatHigh:   "#d9342b",
	HeatMedium: "#e8930c",
	HeatLow:    "#4a7aa8",
}

// RenderText renders the summary as a plain-text multi-line block for logs
// and SMS-adjacent notifications. Pure formatting over an existing Summary;
// nothing is recomputed.
func RenderText(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Profile: %s / %s\n", s.ProfileLabel.EN, s.ProfileLabel.TR)
	fmt.Fprintf(&b, "Heat: %s\n", s.Heat)
	fmt.Fprintf(&b, "Situation: %s\n", s.Situation.EN)
	fmt.Fprintf(&b, "Durum: %s\n", s.Situation.TR)
	if s.CriticalNote != nil {
		fmt.Fprintf(&b, "Blocker: %s / %s\n", s.CriticalNote.EN, s.CriticalNote.TR)
	}
	fmt.Fprintf(&b, "First call: %s\n", s.Recommendation.EN)
	fmt.Fprintf(&b, "İlk arama: %s\n", s.Recommendation.TR)
	fmt.Fprintf(&b, "Data completeness: %d%%", s.Confidence)

	return b.String()
}

// RenderHTML renders the summary as a color-coded HTML fragment for email
// notifications. All dynamic text is escaped.
func RenderHTML(s Summary) string {
	color := heatColors[s.Heat]
	if color == "" {
		color = heatColors[HeatLow]
	}

	var b strings.Builder

	fmt.Fprintf(&b, `<div style="border-left:4px solid %s;padding:8px 12px;">`, color)
	fmt.Fprintf(&b, `<p style="margin:0 0 4px;"><strong style="color:%s;">%s</strong> &middot; %s</p>`,
		color, html.EscapeString(s.ProfileLabel.EN), html.EscapeString(s.ProfileLabel.TR))
	fmt.Fprintf(&b, `<p style="margin:0 0 4px;">%s</p>`, html.EscapeString(s.Situation.EN))
	fmt.Fprintf(&b, `<p style="margin:0 0 4px;">%s</p>`, html.EscapeString(s.Situation.TR))
	if s.CriticalNote != nil {
		fmt.Fprintf(&b, `<p style="margin:0 0 4px;color:%s;"><strong>%s</strong><br>%s</p>`,
			color, html.EscapeString(s.CriticalNote.EN), html.EscapeString(s.CriticalNote.TR))
	}
	fmt.Fprintf(&b, `<p style="margin:0 0 4px;">%s<br>%s</p>`,
		html.EscapeString(s.Recommendation.EN), html.EscapeString(s.Recommendation.TR))
	fmt.Fprintf(&b, `<p style="margin:0;font-size:12px;color:#666;">Data completeness: %d%%</p>`, s.Confidence)
	b.WriteString(`</div>`)

	return b.String()
}
