package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	reapitDefaultAPIBase = "https://platform.reapit.cloud"
	reapitTokenEndpoint  = "https://connect.reapit.cloud/token"
)

// reapitSender creates a contact in the Reapit Foundations platform. Every
// forward performs a fresh OAuth2 client-credentials exchange before the API
// call; token failures surface as *AuthError so callers can distinguish bad
// credentials from a platform outage.
type reapitSender struct {
	cfg    *Config
	client *http.Client

	// tokenURL overrides the platform token endpoint in tests.
	tokenURL string
}

func newReapitSender(cfg *Config, client *http.Client) *reapitSender {
	return &reapitSender{cfg: cfg, client: client}
}

type reapitToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type reapitContact struct {
	Forename         string            `json:"forename"`
	Surname          string            `json:"surname"`
	Email            string            `json:"email,omitempty"`
	MobilePhone      string            `json:"mobilePhone"`
	MarketingConsent string            `json:"marketingConsent"`
	Source           reapitSource      `json:"source"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type reapitSource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (s *reapitSender) Forward(ctx context.Context, lead Lead) Result {
	token, err := s.fetchToken(ctx)
	if err != nil {
		return Result{Provider: ProviderReapit, Err: &AuthError{Err: err}}
	}

	first, last := splitName(lead.Contact.Name)
	if last == "" {
		// Reapit rejects contacts without a surname.
		last = first
	}
	email := ""
	if lead.Contact.Email != nil {
		email = *lead.Contact.Email
	}

	payload := reapitContact{
		Forename:         first,
		Surname:          last,
		Email:            email,
		MobilePhone:      lead.Contact.Phone,
		MarketingConsent: "notAsked",
		Source:           reapitSource{ID: lead.Source, Type: "source"},
		Metadata: map[string]string{
			"leadId":   lead.ID,
			"score":    formatInt64(int64(lead.Score)),
			"category": string(lead.Category),
			"notes":    qualificationNotes(lead),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Provider: ProviderReapit, Err: fmt.Errorf("encode reapit contact: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, restTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiEndpoint(), bytes.NewReader(body))
	if err != nil {
		return Result{Provider: ProviderReapit, Err: fmt.Errorf("build reapit request: %w", err)}
	}
	req.Header.Set(headerContent, mimeJSON)
	req.Header.Set(headerAuth, bearerPrefix+token)
	req.Header.Set("reapit-customer", s.cfg.ReapitCustomerID)
	req.Header.Set("api-version", "2020-01-31")

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{Provider: ProviderReapit, Err: fmt.Errorf("post reapit contact: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{
			Provider: ProviderReapit,
			Err:      fmt.Errorf("reapit returned status %d: %s", resp.StatusCode, snippet),
		}
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return Result{Success: true, Provider: ProviderReapit, Detail: "contact created"}
}

// apiEndpoint builds the contacts URL. The stored base URL is an optional
// override of the platform default.
func (s *reapitSender) apiEndpoint() string {
	base := s.cfg.ReapitBaseURL
	if base == "" {
		base = reapitDefaultAPIBase
	}
	return strings.TrimRight(base, "/") + "/contacts"
}

func (s *reapitSender) fetchToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.cfg.ReapitClientID)
	form.Set("client_secret", s.cfg.ReapitClientSecret)

	endpoint := s.tokenURL
	if endpoint == "" {
		endpoint = reapitTokenEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set(headerContent, mimeForm)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, snippet)
	}

	var token reapitToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	return token.AccessToken, nil
}
