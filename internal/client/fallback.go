package client

import (
	"math"
	"math/rand"
)

// Fallback tuning. Deliberately matches the feel of the server school while
// staying a fully self-contained re-implementation: the fallback must keep
// producing plausible motion forever with zero external input.
const (
	fallbackMinSpeed  = 0.05
	fallbackMaxSpeed  = 0.15
	fallbackTurnNoise = 0.7
	fallbackBounce    = 0.9
	fallbackAccelOdds = 0.02
	fallbackAccelGain = 1.05

	fallbackMarginX   = 0.02
	fallbackMarginY   = 0.05
	fallbackZLow      = 0.05
	fallbackZHigh     = 0.95
	fallbackZDrift    = 0.05
	fallbackPhaseRate = 4.0
)

// fallbackFish is one locally simulated agent. It shares the shape of a
// server agent but owns its own wander state and random stream.
type fallbackFish struct {
	id    int
	x, y  float64
	z     float64
	dir   float64
	speed float64
	scale float64
	phase float64
}

// Fallback simulates a local school of wandering fish. Agents persist across
// activations: re-entering fallback mode after a brief live interruption
// resumes the previous poses instead of re-randomizing them.
type Fallback struct {
	rng  *rand.Rand
	fish []fallbackFish
}

// NewFallback builds an empty fallback school drawing from the given seed.
func NewFallback(seed int64) *Fallback {
	return &Fallback{rng: rand.New(rand.NewSource(seed))}
}

// Ensure lazily grows the school to at least n agents. Existing agents are
// never touched, which is what preserves continuity between activations.
func (f *Fallback) Ensure(n int) {
	for len(f.fish) < n {
		f.fish = append(f.fish, fallbackFish{
			id:    -1000 - len(f.fish),
			x:     fallbackMarginX + f.rng.Float64()*(1-2*fallbackMarginX),
			y:     fallbackMarginY + f.rng.Float64()*(1-2*fallbackMarginY),
			z:     fallbackZLow + f.rng.Float64()*(fallbackZHigh-fallbackZLow),
			dir:   f.rng.Float64() * 2 * math.Pi,
			speed: fallbackMinSpeed + f.rng.Float64()*(fallbackMaxSpeed-fallbackMinSpeed),
			scale: 0.8 + f.rng.Float64()*0.4,
			phase: f.rng.Float64() * 2 * math.Pi,
		})
	}
}

// Len reports the current school size.
func (f *Fallback) Len() int {
	return len(f.fish)
}

// Step advances every agent by dt seconds: planar angle random walk,
// integration, wall bounce with damping, occasional speed-up, and a gentle
// vertical drift.
func (f *Fallback) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for i := range f.fish {
		f.stepFish(&f.fish[i], dt)
	}
}

func (f *Fallback) stepFish(fi *fallbackFish, dt float64) {
	fi.dir += (f.rng.Float64()*2 - 1) * fallbackTurnNoise * dt
	fi.dir = math.Atan2(math.Sin(fi.dir), math.Cos(fi.dir))

	vx := math.Cos(fi.dir) * fi.speed
	vy := math.Sin(fi.dir) * fi.speed
	nx := fi.x + vx*dt
	ny := fi.y + vy*dt

	// Reflect off walls; the new angle is staged so a corner hit mirrors
	// both components of the same incoming direction.
	bounced := false
	newDir := fi.dir
	if nx < fallbackMarginX {
		nx = fallbackMarginX
		newDir = math.Pi - newDir
		bounced = true
	} else if nx > 1-fallbackMarginX {
		nx = 1 - fallbackMarginX
		newDir = math.Pi - newDir
		bounced = true
	}
	if ny < fallbackMarginY {
		ny = fallbackMarginY
		newDir = -newDir
		bounced = true
	} else if ny > 1-fallbackMarginY {
		ny = 1 - fallbackMarginY
		newDir = -newDir
		bounced = true
	}

	if bounced {
		fi.dir = math.Atan2(math.Sin(newDir), math.Cos(newDir))
		fi.speed = math.Max(fallbackMinSpeed, fi.speed*(0.9+0.1*fallbackBounce))
	} else if f.rng.Float64() < fallbackAccelOdds {
		fi.speed = math.Min(fallbackMaxSpeed, fi.speed*fallbackAccelGain)
	}

	fi.x, fi.y = nx, ny
	fi.z = clampRange(fi.z+(f.rng.Float64()*2-1)*fallbackZDrift*dt, fallbackZLow, fallbackZHigh)
	fi.phase = math.Mod(fi.phase+dt*fallbackPhaseRate, 2*math.Pi)
}

// Fish renders the school into the presentation shape.
func (f *Fallback) Fish() []Fish {
	out := make([]Fish, 0, len(f.fish))
	for i := range f.fish {
		fi := &f.fish[i]
		out = append(out, Fish{
			ID:      fi.id,
			X:       fi.x,
			Y:       fi.y,
			Z:       fi.z,
			Heading: Heading{X: math.Cos(fi.dir), Y: math.Sin(fi.dir)},
			Scale:   fi.scale,
			Phase:   fi.phase,
		})
	}
	return out
}
