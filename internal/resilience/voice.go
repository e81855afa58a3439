// Package resilience shields synthesis backends from cascading failures.
//
// [BreakerVoice] wraps a [voice.Voice] with a three-state circuit breaker
// (closed, open, half-open). While the breaker is open, Generate fails fast
// with [ErrCircuitOpen] wrapped as an API error, so the session worker drops
// the request instead of waiting out another doomed API round trip.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yomubot/yomu/pkg/voice"
)

// ErrCircuitOpen is returned by [BreakerVoice.Generate] while the breaker is
// open and the reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the current operating mode of a [BreakerVoice].
type State int

const (
	// StateClosed forwards every call to the backend.
	StateClosed State = iota

	// StateOpen rejects every call with [ErrCircuitOpen] until the reset
	// timeout elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through. Enough
	// probe successes close the breaker; any probe failure re-opens it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a [BreakerVoice]. Zero-value fields take defaults.
type BreakerConfig struct {
	// Name labels the breaker in log messages. Defaults to the wrapped
	// voice's identifier.
	Name string

	// MaxFailures is how many consecutive synthesis failures open the
	// breaker. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before probing the
	// backend again. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenProbes is how many probe successes close the breaker again.
	// Default: 3.
	HalfOpenProbes int
}

// BreakerVoice implements [voice.Voice], tripping open when the wrapped
// backend fails repeatedly.
type BreakerVoice struct {
	inner voice.Voice

	name           string
	maxFailures    int
	resetTimeout   time.Duration
	halfOpenProbes int

	mu           sync.Mutex
	state        State
	failures     int
	openedAt     time.Time
	probesInUse  int
	probesPassed int
}

var _ voice.Voice = (*BreakerVoice)(nil)

// NewBreakerVoice wraps inner with a breaker configured by cfg.
func NewBreakerVoice(inner voice.Voice, cfg BreakerConfig) *BreakerVoice {
	if cfg.Name == "" {
		cfg.Name = inner.Identifier()
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 3
	}
	return &BreakerVoice{
		inner:          inner,
		name:           cfg.Name,
		maxFailures:    cfg.MaxFailures,
		resetTimeout:   cfg.ResetTimeout,
		halfOpenProbes: cfg.HalfOpenProbes,
	}
}

// Identifier returns the wrapped voice's identifier. The breaker is
// transparent to caching: it never changes the audio an identity produces.
func (v *BreakerVoice) Identifier() string {
	return v.inner.Identifier()
}

// Generate implements [voice.Voice]. An open breaker returns an API error
// wrapping [ErrCircuitOpen] without calling the backend.
func (v *BreakerVoice) Generate(ctx context.Context, text string) ([]byte, error) {
	probe, err := v.admit()
	if err != nil {
		return nil, voice.APIError(fmt.Errorf("resilience: %s: %w", v.inner.Identifier(), err))
	}

	audio, err := v.inner.Generate(ctx, text)
	v.settle(probe, err)
	return audio, err
}

// State reports the breaker's mode. An open breaker whose reset timeout has
// elapsed reports half-open; the transition itself happens on the next call.
func (v *BreakerVoice) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateOpen && time.Since(v.openedAt) >= v.resetTimeout {
		return StateHalfOpen
	}
	return v.state
}

// admit decides whether a synthesis call may proceed and whether it counts
// as a half-open probe.
func (v *BreakerVoice) admit() (probe bool, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.state {
	case StateOpen:
		if time.Since(v.openedAt) < v.resetTimeout {
			return false, ErrCircuitOpen
		}
		v.state = StateHalfOpen
		v.probesInUse = 0
		v.probesPassed = 0
		slog.Info("resilience: probing backend after reset timeout", "voice", v.name)
		fallthrough
	case StateHalfOpen:
		if v.probesInUse >= v.halfOpenProbes {
			return false, ErrCircuitOpen
		}
		v.probesInUse++
		return true, nil
	}
	return false, nil
}

// settle records the outcome of an admitted synthesis call.
func (v *BreakerVoice) settle(probe bool, callErr error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if probe {
		if callErr != nil {
			// One failed probe is enough evidence the backend is still down.
			v.state = StateOpen
			v.openedAt = time.Now()
			slog.Warn("resilience: backend still failing, breaker re-opened", "voice", v.name)
			return
		}
		v.probesPassed++
		if v.probesPassed >= v.halfOpenProbes {
			v.state = StateClosed
			v.failures = 0
			slog.Info("resilience: backend recovered, breaker closed", "voice", v.name)
		}
		return
	}

	if callErr == nil {
		v.failures = 0
		return
	}
	v.failures++
	if v.failures >= v.maxFailures {
		v.state = StateOpen
		v.openedAt = time.Now()
		slog.Warn("resilience: breaker opened",
			"voice", v.name, "consecutive_failures", v.failures)
	}
}
