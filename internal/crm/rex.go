package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// rexSender creates a contact in the Rex CRM through its REST API. Rex wants
// a structured contact (split name, typed phone list) with the qualification
// detail flattened into a notes blob. No retry: Rex deduplicates poorly, so a
// doubled request risks a doubled contact.
type rexSender struct {
	cfg    *Config
	client *http.Client

	// baseURL overrides the subdomain-derived endpoint in tests.
	baseURL string
}

func newRexSender(cfg *Config, client *http.Client) *rexSender {
	return &rexSender{cfg: cfg, client: client}
}

func (s *rexSender) endpoint() string {
	if s.baseURL != "" {
		return s.baseURL + "/rex/v1/contacts"
	}
	return fmt.Sprintf("https://%s.rexsoftware.com/rex/v1/contacts", s.cfg.RexSubdomain)
}

type rexContact struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email,omitempty"`
	Phones    []rexPhone `json:"phones"`
	Notes     string     `json:"notes,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	Source    string     `json:"source"`
}

type rexPhone struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

func (s *rexSender) Forward(ctx context.Context, lead Lead) Result {
	first, last := splitName(lead.Contact.Name)
	email := ""
	if lead.Contact.Email != nil {
		email = *lead.Contact.Email
	}

	payload := rexContact{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phones:    []rexPhone{{Type: "mobile", Number: lead.Contact.Phone}},
		Notes:     qualificationNotes(lead),
		Tags:      categoryTags(lead),
		Source:    lead.Source,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Provider: ProviderRex, Err: fmt.Errorf("encode rex contact: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, restTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(body))
	if err != nil {
		return Result{Provider: ProviderRex, Err: fmt.Errorf("build rex request: %w", err)}
	}
	req.Header.Set(headerContent, mimeJSON)
	req.Header.Set(headerAuth, bearerPrefix+s.cfg.RexToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{Provider: ProviderRex, Err: fmt.Errorf("post rex contact: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{
			Provider: ProviderRex,
			Err:      fmt.Errorf("rex returned status %d: %s", resp.StatusCode, snippet),
		}
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return Result{Success: true, Provider: ProviderRex, Detail: "contact created"}
}
