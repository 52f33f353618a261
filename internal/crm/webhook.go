package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// webhookSender delivers the normalized lead envelope to a customer-supplied
// HTTPS endpoint. Transient upstream failures (5xx) get exactly one retry
// after a short backoff; 4xx responses are treated as permanent and never
// retried.
type webhookSender struct {
	cfg    *Config
	client *http.Client
}

func newWebhookSender(cfg *Config, client *http.Client) *webhookSender {
	return &webhookSender{cfg: cfg, client: client}
}

func (s *webhookSender) Forward(ctx context.Context, lead Lead) Result {
	body, err := json.Marshal(buildEnvelope(lead))
	if err != nil {
		return Result{Provider: ProviderGeneric, Err: fmt.Errorf("encode webhook payload: %w", err)}
	}

	status, err := s.post(ctx, body)
	if err == nil && status >= 500 {
		select {
		case <-time.After(webhookBackoff):
		case <-ctx.Done():
			return Result{Provider: ProviderGeneric, Err: ctx.Err()}
		}
		status, err = s.post(ctx, body)
	}
	if err != nil {
		return Result{Provider: ProviderGeneric, Err: err}
	}
	if status < 200 || status >= 300 {
		return Result{
			Provider: ProviderGeneric,
			Err:      fmt.Errorf("webhook returned status %d", status),
		}
	}

	return Result{Success: true, Provider: ProviderGeneric, Detail: fmt.Sprintf("delivered with status %d", status)}
}

func (s *webhookSender) post(ctx context.Context, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set(headerContent, mimeJSON)
	if s.cfg.WebhookToken != "" {
		req.Header.Set(headerAuth, bearerPrefix+s.cfg.WebhookToken)
	}
	for k, v := range s.cfg.CustomHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode, nil
}
