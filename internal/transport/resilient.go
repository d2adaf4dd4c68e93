package transport

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ResilientSender guards a provider with a rate limiter and a circuit breaker.
type ResilientSender struct {
	next    Sender
	breaker *CircuitBreaker
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewResilientSender(next Sender, breaker *CircuitBreaker, limiter *rate.Limiter, logger *zap.Logger) *ResilientSender {
	return &ResilientSender{
		next:    next,
		breaker: breaker,
		limiter: limiter,
		logger:  logger,
	}
}

func (s *ResilientSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for send slot: %w", err)
	}

	var result *SendResult
	err := s.breaker.Execute(ctx, func() error {
		res, err := s.next.Send(ctx, to, body)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		requests, failures := s.breaker.Counts()
		s.logger.Warn("Send failed",
			zap.Error(err),
			zap.String("circuitBreakerState", s.breaker.State()),
			zap.Uint32("totalRequests", requests),
			zap.Uint32("totalFailures", failures))
		return nil, err
	}

	return result, nil
}

// Breaker exposes the circuit breaker for health reporting.
func (s *ResilientSender) Breaker() *CircuitBreaker {
	return s.breaker
}
