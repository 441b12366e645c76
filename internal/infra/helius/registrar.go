package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/trenchlabs/trenchbot/internal/metrics"
)

// DefaultTransactionTypes is the filter set subscribed for each address.
var DefaultTransactionTypes = []string{"EXECUTE", "CREATE", "TRANSFER", "APPROVE", "REJECT", "CANCEL"}

// RetryConfig defines retry behavior for registration calls.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        10 * time.Second,
	BackoffMultiple: 2.0,
}

// Config holds the webhook API settings.
type Config struct {
	APIURL           string
	APIKey           string
	WebhookBaseURL   string
	TransactionTypes []string
	Retry            RetryConfig
}

// Registrar subscribes wallet addresses to the provider's transaction
// webhook. The side effect is external; callers persist a wallet only
// after registration succeeds.
type Registrar struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a webhook registrar.
func New(cfg Config) *Registrar {
	if len(cfg.TransactionTypes) == 0 {
		cfg.TransactionTypes = DefaultTransactionTypes
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig
	}
	return &Registrar{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type subscribeRequest struct {
	WebhookURL       string   `json:"webhookURL"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
	TransactionTypes []string `json:"transactionTypes"`
}

// Register subscribes an address for transaction notifications, retrying
// transient failures with exponential backoff.
func (r *Registrar) Register(ctx context.Context, address string) error {
	var lastErr error
	for attempt := 0; attempt < r.cfg.Retry.MaxAttempts; attempt++ {
		err := r.register(ctx, address)
		if err == nil {
			metrics.WebhookRegistrations.WithLabelValues("success").Inc()
			return nil
		}
		lastErr = err

		if attempt == r.cfg.Retry.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}
	metrics.WebhookRegistrations.WithLabelValues("failure").Inc()
	return fmt.Errorf("failed after %d attempts: %w", r.cfg.Retry.MaxAttempts, lastErr)
}

func (r *Registrar) register(ctx context.Context, address string) error {
	body, err := json.Marshal(subscribeRequest{
		WebhookURL:       r.cfg.WebhookBaseURL + "/helius-webhook",
		AccountAddresses: []string{address},
		WebhookType:      "transaction",
		TransactionTypes: r.cfg.TransactionTypes,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/webhooks?api-key=%s", r.cfg.APIURL, r.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook API returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func (r *Registrar) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(r.cfg.Retry.InitialDelay) *
		math.Pow(r.cfg.Retry.BackoffMultiple, float64(attempt)))
	if delay > r.cfg.Retry.MaxDelay {
		delay = r.cfg.Retry.MaxDelay
	}
	return delay
}
