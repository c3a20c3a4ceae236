// Package breaker guards outbound calls (LLM, weather) with a circuit breaker
package breaker

import (
	"context"
	"errors"
	"time"

	"garden_buddy/internal/logger"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned while the circuit rejects calls
var ErrOpen = errors.New("circuit breaker is open")

// Config holds the configuration for the circuit breaker
type Config struct {
	// MaxFailures is the number of consecutive failures required to trip the circuit
	MaxFailures uint32
	// Timeout is how long the circuit stays open before going half-open
	Timeout time.Duration
	// HalfOpenMaxSuccesses closes the circuit again after this many half-open successes
	HalfOpenMaxSuccesses uint32
}

// DefaultConfig trips after 3 failures and retries after 30 seconds
func DefaultConfig() Config {
	return Config{MaxFailures: 3, Timeout: 30 * time.Second, HalfOpenMaxSuccesses: 2}
}

// Breaker wraps gobreaker with context checks and state logging
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a named breaker. Zero fields fall back to DefaultConfig.
func New(name string, config Config) *Breaker {
	def := DefaultConfig()
	if config.MaxFailures == 0 {
		config.MaxFailures = def.MaxFailures
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	if config.HalfOpenMaxSuccesses == 0 {
		config.HalfOpenMaxSuccesses = def.HalfOpenMaxSuccesses
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.HalfOpenMaxSuccesses,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. An open circuit returns ErrOpen
// without calling fn.
func (b *Breaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := b.cb.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrOpen
	}
	return result, err
}

// State is "closed", "open" or "half-open"
func (b *Breaker) State() string {
	return b.cb.State().String()
}
