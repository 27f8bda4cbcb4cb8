// Package sim owns the authoritative swimming simulation: a fixed school of
// wandering fish agents advanced by a deterministic fixed-timestep integrator
// inside a normalized [0,1]^3 tank.
package sim

import (
	"math"
	"math/rand"
)

// Engine advances all agents by one fixed timestep per call and exposes
// read-only snapshots. It is not safe for concurrent use; the hub drives it
// from a single tick goroutine.
type Engine struct {
	cfg    Config
	rng    *rand.Rand
	agents []Agent
	tick   uint64
}

// New builds an engine with cfg.FishCount freshly spawned agents. The same
// seed always produces the same school and the same motion.
func New(cfg Config, seed int64) *Engine {
	cfg = cfg.normalized()
	rng := rand.New(rand.NewSource(seed))
	agents := make([]Agent, 0, cfg.FishCount)
	for i := 0; i < cfg.FishCount; i++ {
		agents = append(agents, spawnAgent(i, cfg, rng))
	}
	return &Engine{cfg: cfg, rng: rng, agents: agents}
}

// Config returns the normalized tuning the engine runs with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Tick returns the number of completed steps.
func (e *Engine) Tick() uint64 {
	return e.tick
}

// Step advances every agent by dt seconds. Agents are independent, so they
// are updated sequentially in index order to keep the RNG stream stable.
func (e *Engine) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for i := range e.agents {
		e.stepAgent(&e.agents[i], dt)
	}
	e.tick++
}

func (e *Engine) stepAgent(a *Agent, dt float64) {
	cfg := e.cfg

	// Slow random walk on the heading angles, not per-axis noise, so the
	// motion stays smooth instead of jittering.
	a.yaw = normalizeAngle(a.yaw + (e.rng.Float64()*2-1)*cfg.TurnNoise*dt)
	a.pitch = clamp(a.pitch+(e.rng.Float64()*2-1)*cfg.TurnNoise*0.5*dt, -cfg.MaxPitch, cfg.MaxPitch)

	heading := directionFromAngles(a.yaw, a.pitch)
	a.Velocity = heading.Scale(a.Speed)
	a.Position = a.Position.Add(a.Velocity.Scale(dt))

	bounced := false
	if reflected, pos := reflectAxis(a.Position.X, cfg.BoundsX); reflected {
		a.Position.X = pos
		a.yaw = normalizeAngle(math.Pi - a.yaw)
		bounced = true
	}
	if reflected, pos := reflectAxis(a.Position.Y, cfg.BoundsY); reflected {
		a.Position.Y = pos
		a.yaw = normalizeAngle(-a.yaw)
		bounced = true
	}
	if reflected, pos := reflectAxis(a.Position.Z, cfg.BoundsZ); reflected {
		a.Position.Z = pos
		a.pitch = -a.pitch
		bounced = true
	}

	if bounced {
		// Shed some speed on impact so agents stop hugging walls at full tilt.
		a.Speed = math.Max(cfg.MinSpeed, a.Speed*(0.9+0.1*cfg.WallBounce))
		heading = directionFromAngles(a.yaw, a.pitch)
		a.Velocity = heading.Scale(a.Speed)
	} else if e.rng.Float64() < cfg.AccelChance {
		a.Speed = math.Min(cfg.MaxSpeed, a.Speed*cfg.AccelFactor)
		a.Velocity = heading.Scale(a.Speed)
	}

	if unit, ok := a.Velocity.Normalized(); ok {
		a.Heading = unit
	}
	// A degenerate velocity keeps the previous heading untouched.
}

// reflectAxis clamps pos into the range and reports whether it left it.
func reflectAxis(pos float64, r AxisRange) (bool, float64) {
	if pos < r.Low {
		return true, r.Low
	}
	if pos > r.High {
		return true, r.High
	}
	return false, pos
}

// Snapshot captures the public state of every agent, in agent order. The
// result is an independent copy; zero agents yields an empty, non-nil slice.
func (e *Engine) Snapshot() []Fish {
	fish := make([]Fish, 0, len(e.agents))
	for i := range e.agents {
		fish = append(fish, e.agents[i].snapshot())
	}
	return fish
}
