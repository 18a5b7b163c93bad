// Package resilience guards upstream calls with circuit breakers.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = gobreaker.ErrOpenState

// Breaker is a named circuit breaker over string-returning calls.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[string]
}

// NewBreaker trips after threshold consecutive failures and stays open for timeout.
func NewBreaker(name string, threshold uint32, timeout time.Duration) *Breaker {
	if threshold == 0 {
		threshold = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := logging.With("resilience")
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Cancelled callers say nothing about the upstream's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[string](settings)}
}

// Do runs fn through the breaker.
func (b *Breaker) Do(fn func() (string, error)) (string, error) {
	return b.cb.Execute(fn)
}

// State reports closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

type guardedModel struct {
	model   ports.LanguageModel
	breaker *Breaker
}

// GuardModel wraps a language model so calls fail fast while its breaker is open.
func GuardModel(model ports.LanguageModel, breaker *Breaker) ports.LanguageModel {
	return &guardedModel{model: model, breaker: breaker}
}

func (g *guardedModel) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := g.breaker.Do(func() (string, error) {
		return g.model.Complete(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("resilience: %w", err)
	}
	return out, nil
}
