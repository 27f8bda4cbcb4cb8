package client

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Mode says which fish list the presentation layer should trust.
type Mode int

const (
	// ModeFallback renders the local simulation. It is also the initial
	// state: no data has arrived yet.
	ModeFallback Mode = iota
	// ModeLive renders the most recent server snapshot.
	ModeLive
)

func (m Mode) String() string {
	if m == ModeLive {
		return "live"
	}
	return "fallback"
}

// DefaultStaleAfter is how long the arbiter trusts the last non-empty
// snapshot before degrading to the local simulation. Observed variants of
// this cutoff ranged from 1s to 3.2s; 3.2s is the shipped default and the
// value is configurable.
const DefaultStaleAfter = 3200 * time.Millisecond

// Arbiter is the Live/Fallback reconciliation state machine. It is a purely
// local decision; the server never learns which mode a client is in.
type Arbiter struct {
	mu         sync.Mutex
	staleAfter time.Duration
	mode       Mode
	lastValid  time.Time
	lastCount  int
	log        zerolog.Logger
}

// NewArbiter builds an arbiter starting in fallback mode. A non-positive
// staleAfter selects DefaultStaleAfter.
func NewArbiter(staleAfter time.Duration, log zerolog.Logger) *Arbiter {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Arbiter{
		staleAfter: staleAfter,
		mode:       ModeFallback,
		log:        log.With().Str("component", "arbiter").Logger(),
	}
}

// Observe records that a snapshot with count fish arrived at now. A
// non-empty snapshot promotes to live immediately; an empty one demotes,
// matching the disconnect path.
func (a *Arbiter) Observe(count int, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastCount = count
	if count > 0 {
		a.lastValid = now
	}
	a.applyLocked(now)
}

// Evaluate recomputes the mode at frame time, catching staleness timeouts
// between messages.
func (a *Arbiter) Evaluate(now time.Time) Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applyLocked(now)
	return a.mode
}

// Mode returns the last computed mode without re-evaluating.
func (a *Arbiter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *Arbiter) applyLocked(now time.Time) {
	desired := ModeFallback
	if a.lastCount > 0 && !a.lastValid.IsZero() && now.Sub(a.lastValid) <= a.staleAfter {
		desired = ModeLive
	}
	if desired != a.mode {
		a.log.Info().
			Stringer("from", a.mode).
			Stringer("to", desired).
			Int("lastCount", a.lastCount).
			Msg("render mode changed")
		a.mode = desired
	}
}
