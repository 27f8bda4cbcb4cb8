package client

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// maxFallbackStep caps how far the fallback school is advanced in one frame
// so a long live stretch (or a suspended tab) does not teleport the agents.
const maxFallbackStep = 250 * time.Millisecond

// ViewConfig tunes the reconciliation layer.
type ViewConfig struct {
	// StaleAfter is the live-data freshness window; zero picks the default.
	StaleAfter time.Duration
	// FallbackFish is the school size used when the live feed is unusable.
	FallbackFish int
	// FallbackSeed seeds the local simulation; zero derives one from the
	// clock so every viewer wanders differently.
	FallbackSeed int64
}

// View is the frame-facing facade: network messages go in on one side, and
// every render frame pulls a non-empty, interpolated fish list out the
// other. It owns the receiver, the fallback school and the mode arbiter.
type View struct {
	receiver *Receiver
	fallback *Fallback
	arbiter  *Arbiter

	mu           sync.Mutex
	fallbackFish int
	lastStep     time.Time
}

// NewView wires up a receiver, fallback school and arbiter.
func NewView(cfg ViewConfig, log zerolog.Logger) *View {
	if cfg.FallbackFish <= 0 {
		cfg.FallbackFish = 20
	}
	seed := cfg.FallbackSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &View{
		receiver:     NewReceiver(log),
		fallback:     NewFallback(seed),
		arbiter:      NewArbiter(cfg.StaleAfter, log),
		fallbackFish: cfg.FallbackFish,
	}
}

// Receiver exposes the sanitizing receiver, mainly for tests.
func (v *View) Receiver() *Receiver {
	return v.receiver
}

// HandleMessage ingests one raw payload stamped with the current time.
// It is safe to call from the network goroutine while frames are running.
func (v *View) HandleMessage(payload []byte) {
	v.HandleMessageAt(payload, time.Now())
}

// HandleMessageAt is HandleMessage with an explicit clock for tests.
func (v *View) HandleMessageAt(payload []byte, now time.Time) {
	count, ok := v.receiver.HandleMessage(payload, now)
	if !ok {
		return
	}
	v.arbiter.Observe(count, now)
}

// Frame returns the fish list to render at now and the mode it came from.
// The list is never empty once FallbackFish > 0: if live data is unusable
// the fallback school is force-initialized on the spot.
func (v *View) Frame(now time.Time) ([]Fish, Mode) {
	mode := v.arbiter.Evaluate(now)
	if mode == ModeLive {
		if fish := v.receiver.LiveFish(now); len(fish) > 0 {
			return fish, ModeLive
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.fallback.Ensure(v.fallbackFish)
	if !v.lastStep.IsZero() {
		dt := now.Sub(v.lastStep)
		if dt > maxFallbackStep {
			dt = maxFallbackStep
		}
		v.fallback.Step(dt.Seconds())
	}
	v.lastStep = now
	return v.fallback.Fish(), ModeFallback
}
