package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Webhook request headers.
const (
	HeaderEvent     = "X-Zinc-Event"
	HeaderInstance  = "X-Zinc-Instance"
	HeaderSignature = "X-Zinc-Signature"
)

// WebhookConfig configures the webhook publisher.
type WebhookConfig struct {
	URL string
	// Secret, when set, signs each body with HMAC-SHA256.
	Secret   string
	Attempts int
	Backoff  time.Duration
	Client   *http.Client
}

// WebhookPublisher POSTs each ConfigChanged event as JSON to one URL.
type WebhookPublisher struct {
	cfg WebhookConfig
}

// NewWebhookPublisher returns a publisher for cfg.URL.
func NewWebhookPublisher(cfg WebhookConfig) (*WebhookPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("events: webhook url is required")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = 2 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	log.Info().Str("url", cfg.URL).Bool("signed", cfg.Secret != "").Msg("Webhook event publisher configured")
	return &WebhookPublisher{cfg: cfg}, nil
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Publish sends evt, retrying non-2xx responses with linear backoff.
func (p *WebhookPublisher) Publish(ctx context.Context, evt ConfigChanged) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < p.cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * p.cfg.Backoff):
			}
		}
		if lastErr = p.send(ctx, evt, body); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("webhook failed after %d attempts: %w", p.cfg.Attempts, lastErr)
}

func (p *WebhookPublisher) send(ctx context.Context, evt ConfigChanged, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Zinc-Webhook/1.0")
	req.Header.Set(HeaderEvent, string(evt.Action))
	req.Header.Set(HeaderInstance, evt.InstanceID)
	if p.cfg.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(p.cfg.Secret, body))
	}

	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook HTTP %d from %s", resp.StatusCode, p.cfg.URL)
	}
	return nil
}

func (p *WebhookPublisher) Close() error { return nil }

// MultiPublisher fans each event out to every publisher.
type MultiPublisher []Publisher

// Publish delivers to all publishers and joins their errors.
func (m MultiPublisher) Publish(ctx context.Context, evt ConfigChanged) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
