package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type leadAlertEmailData struct {
	baseEmailData
	Alert LeadAlert
}

// AnalysisBlock exposes the pre-rendered analyzer markup to the template
// without re-escaping. The markup is built exclusively from escaped input.
func (d leadAlertEmailData) AnalysisBlock() template.HTML {
	return template.HTML(d.Alert.AnalysisHTML)
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}

	return buf.String(), nil
}
