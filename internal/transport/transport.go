// Package transport delivers text messages to phone numbers through an SMS
// provider.
package transport

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/models"
)

//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

// Sender delivers one message body to one address.
type Sender interface {
	Send(ctx context.Context, to, body string) (*SendResult, error)
}

// SendResult identifies the message at the provider.
type SendResult struct {
	ProviderID string
}

// Error is a send rejected or failed at the provider. It matches
// models.ErrTransport through errors.Is.
type Error struct {
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Code != 0:
		return fmt.Sprintf("transport: status %d, code %d: %s", e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("transport: status %d: %s", e.StatusCode, e.Message)
	default:
		return "transport: " + e.Message
	}
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{models.ErrTransport, e.Err}
	}
	return []error{models.ErrTransport}
}

// New builds the configured provider wrapped with the circuit breaker and the
// provider rate limit.
func New(cfg *config.TransportConfig, logger *zap.Logger) (*ResilientSender, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second

	var provider Sender
	switch cfg.Provider {
	case "twilio":
		provider = NewTwilioSender(&cfg.Twilio, timeout)
	case "webhook":
		provider = NewWebhookSender(&cfg.Webhook, timeout)
	default:
		return nil, fmt.Errorf("unknown transport provider %q", cfg.Provider)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	return NewResilientSender(
		provider,
		NewCircuitBreaker(&cfg.CircuitBreaker, logger),
		rate.NewLimiter(limit, burst),
		logger,
	), nil
}
