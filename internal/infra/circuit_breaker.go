package infra

import (
	"errors"
	"sync"
	"time"
)

// CBState is the breaker position: closed (calls flow), open (calls fast-fail)
// or half-open (a probe is testing whether the collaborator recovered).
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without invoking the wrapped call while the
// breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig tunes when the breaker trips and recovers. Zero values
// fall back to the defaults.
type CircuitBreakerConfig struct {
	// FailureThreshold is the run of consecutive failures that trips the
	// breaker open.
	FailureThreshold int
	// SuccessThreshold is the run of consecutive half-open successes that
	// closes it again.
	SuccessThreshold int
	// OpenTimeout is how long the breaker stays open before letting a probe
	// through.
	OpenTimeout time.Duration
}

// DefaultCBConfig suits the suite-service HTTP clients: trip after five
// straight failures, probe after a minute, close on two good probes.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

// CircuitBreaker wraps calls to a flaky collaborator so a sustained outage
// fast-fails instead of tying up request handlers in timeouts. Sales must
// keep completing at the registers while accounting is down; the callers
// treat a fast-fail exactly like any other collaborator error.
type CircuitBreaker struct {
	mu sync.Mutex

	state       CBState
	failures    int // consecutive, resets on success
	successes   int // consecutive half-open probes, resets on failure
	lastTripped time.Time

	cfg CircuitBreakerConfig
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}
	return &CircuitBreaker{state: CBClosed, cfg: cfg}
}

// State reports the breaker position, moving open to half-open once the
// timeout has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

func (cb *CircuitBreaker) currentState() CBState {
	if cb.state == CBOpen && time.Since(cb.lastTripped) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
	}
	return cb.state
}

// Execute runs fn unless the breaker is open, and feeds the outcome back into
// the state machine.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.currentState() == CBOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failures++
	cb.lastTripped = time.Now()

	switch cb.state {
	case CBClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.state = CBOpen
			cb.successes = 0
		}
	case CBHalfOpen:
		// Failed probe reopens the breaker for another full timeout.
		cb.state = CBOpen
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
}
