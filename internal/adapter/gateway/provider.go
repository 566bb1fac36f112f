// Package gateway talks to the external payment providers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var _ domain.PaymentGateway = (*Provider)(nil)

// ProviderConfig configures one HTTP payment provider.
type ProviderConfig struct {
	Name             string
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	FailureThreshold int
	Cooldown         time.Duration
	Retry            RetryConfig
}

// Provider implements domain.PaymentGateway against a JSON REST API:
//
//	POST /payments                    start a collection
//	GET  /payments/{transaction}      read its status
//	POST /payments/{transaction}/refunds
//
// Every call passes through a circuit breaker; only status reads are retried.
type Provider struct {
	cfg     ProviderConfig
	client  *http.Client
	breaker *Breaker
	logger  zerolog.Logger
}

// NewProvider creates a provider client.
func NewProvider(cfg ProviderConfig, logger zerolog.Logger) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger = logger.With().Str("provider", cfg.Name).Logger()
	breaker := NewBreaker(cfg.FailureThreshold, 1, cfg.Cooldown)
	breaker.OnStateChange(func(from, to State) {
		logger.Warn().Stringer("from", from).Stringer("to", to).Msg("payment provider circuit changed")
	})

	return &Provider{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// Breaker exposes the provider's circuit breaker.
func (p *Provider) Breaker() *Breaker { return p.breaker }

type initiateRequest struct {
	Reference string            `json:"reference"`
	Amount    string            `json:"amount"`
	Currency  string            `json:"currency"`
	Method    string            `json:"method"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type initiateResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

func (p *Provider) InitiatePayment(ctx context.Context, req domain.GatewayRequest) (domain.GatewayReceipt, error) {
	var resp initiateResponse
	err := p.call(ctx, http.MethodPost, "/payments", initiateRequest{
		Reference: req.PaymentID,
		Amount:    req.Amount.Amount().String(),
		Currency:  req.Amount.Currency(),
		Method:    string(req.Method),
		Metadata:  req.Metadata,
	}, &resp)
	if err != nil {
		return domain.GatewayReceipt{}, fmt.Errorf("initiating payment %s: %w", req.PaymentID, err)
	}
	if resp.TransactionID == "" {
		return domain.GatewayReceipt{}, fmt.Errorf("initiating payment %s: provider returned no transaction id", req.PaymentID)
	}

	status := domain.GatewayPending
	switch resp.Status {
	case "succeeded", "success", "completed":
		status = domain.GatewaySucceeded
	case "failed", "rejected", "cancelled":
		status = domain.GatewayFailed
	}
	return domain.GatewayReceipt{TransactionID: resp.TransactionID, Status: status}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

// ValidatePayment reports whether the provider considers the transaction paid.
func (p *Provider) ValidatePayment(ctx context.Context, transactionID string) (bool, error) {
	path := "/payments/" + url.PathEscape(transactionID)
	return retry(ctx, p.cfg.Retry, p.logger, "validate payment "+transactionID, func(ctx context.Context) (bool, error) {
		var resp statusResponse
		if err := p.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return false, err
		}
		switch resp.Status {
		case "succeeded", "success", "completed":
			return true, nil
		}
		return false, nil
	})
}

type refundRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type refundResponse struct {
	Accepted bool `json:"accepted"`
}

func (p *Provider) RefundPayment(ctx context.Context, transactionID string, amount domain.Money) (bool, error) {
	var resp refundResponse
	err := p.call(ctx, http.MethodPost, "/payments/"+url.PathEscape(transactionID)+"/refunds", refundRequest{
		Amount:   amount.Amount().String(),
		Currency: amount.Currency(),
	}, &resp)
	if err != nil {
		return false, fmt.Errorf("refunding %s: %w", transactionID, err)
	}
	return resp.Accepted, nil
}

// call performs one request through the breaker. Client errors (4xx) are
// permanent and do not count against the provider's health.
func (p *Provider) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return permanent(fmt.Errorf("encoding request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, body)
	if err != nil {
		return permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	// Every allowed call below records a Success or Failure.
	if !p.breaker.Allow() {
		return ErrCircuitOpen
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.breaker.Failure()
		return fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	p.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("provider call")

	switch {
	case resp.StatusCode >= 500:
		p.breaker.Failure()
		return fmt.Errorf("provider returned %s", resp.Status)
	case resp.StatusCode >= 400:
		p.breaker.Success()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return permanent(fmt.Errorf("provider rejected request: %s: %s", resp.Status, strings.TrimSpace(string(msg))))
	}
	p.breaker.Success()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return permanent(fmt.Errorf("decoding provider response: %w", err))
	}
	return nil
}
