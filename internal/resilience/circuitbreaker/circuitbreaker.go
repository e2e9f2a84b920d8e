// Package circuitbreaker wraps github.com/sony/gobreaker for feed fetching.
// A breaker trips when a host keeps failing, so the remaining feeds on that
// host are skipped for the rest of the run instead of waiting out their
// timeouts one by one.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear failure counts
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// FailureThreshold is the failure ratio threshold to trip the circuit,
	// e.g. 0.6 means 60% failure rate
	FailureThreshold float64

	// MinRequests is the minimum number of requests before calculating failure ratio
	MinRequests uint32
}

// FeedFetchConfig returns the configuration used per feed host.
// A run fetches only a handful of feeds per host, so the breaker trips after
// two requests that both failed.
func FeedFetchConfig(host string) Config {
	return Config{
		Name:             "feed:" + host,
		MaxRequests:      1,
		Interval:         0,
		Timeout:          10 * time.Minute,
		FailureThreshold: 1.0,
		MinRequests:      2,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker with additional functionality.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a new circuit breaker with the given configuration.
// State changes are logged at WARN on logger, or on slog.Default() if nil.
func New(cfg Config, logger *slog.Logger) *CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the circuit breaker.
// If the circuit is open, it returns gobreaker.ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// IsRejected reports whether err means a breaker refused the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// HostSet lazily creates one breaker per URL host. It is safe for
// concurrent use.
type HostSet struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	config   func(host string) Config
	logger   *slog.Logger
}

// NewHostSet creates an empty set. config builds the configuration for a
// newly seen host; nil means FeedFetchConfig.
func NewHostSet(config func(host string) Config, logger *slog.Logger) *HostSet {
	if config == nil {
		config = FeedFetchConfig
	}
	return &HostSet{
		breakers: make(map[string]*CircuitBreaker),
		config:   config,
		logger:   logger,
	}
}

// For returns the breaker for the host of rawURL. URLs that do not parse
// share the breaker of the empty host.
func (s *HostSet) For(rawURL string) *CircuitBreaker {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(u.Host)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.breakers[host]
	if !ok {
		cb = New(s.config(host), s.logger)
		s.breakers[host] = cb
	}
	return cb
}

// Len returns the number of hosts seen so far.
func (s *HostSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.breakers)
}
