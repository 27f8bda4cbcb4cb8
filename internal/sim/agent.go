package sim

import (
	"math"
	"math/rand"
)

// Agent is one simulated fish. Position, velocity and heading live in
// normalized tank coordinates; yaw and pitch are the private wander state
// the random walk perturbs each tick.
type Agent struct {
	ID       int
	Position Vec3
	Velocity Vec3
	Heading  Vec3
	Speed    float64
	Scale    float64

	yaw   float64
	pitch float64
}

// Fish is the public per-agent snapshot row serialized to clients.
type Fish struct {
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Scale   float64 `json:"scale"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	VZ      float64 `json:"vz"`
	Speed   float64 `json:"speed"`
	Heading Vec3    `json:"heading"`
}

func spawnAgent(id int, cfg Config, rng *rand.Rand) Agent {
	yaw := rng.Float64() * 2 * math.Pi
	pitch := (rng.Float64()*2 - 1) * cfg.MaxPitch * 0.5
	heading := directionFromAngles(yaw, pitch)
	speed := cfg.MinSpeed + rng.Float64()*(cfg.MaxSpeed-cfg.MinSpeed)

	return Agent{
		ID: id,
		Position: Vec3{
			X: cfg.BoundsX.Low + rng.Float64()*(cfg.BoundsX.High-cfg.BoundsX.Low),
			Y: cfg.BoundsY.Low + rng.Float64()*(cfg.BoundsY.High-cfg.BoundsY.Low),
			Z: cfg.BoundsZ.Low + rng.Float64()*(cfg.BoundsZ.High-cfg.BoundsZ.Low),
		},
		Velocity: heading.Scale(speed),
		Heading:  heading,
		Speed:    speed,
		Scale:    0.8 + rng.Float64()*0.4,
		yaw:      yaw,
		pitch:    pitch,
	}
}

// snapshot copies the agent's public fields into a wire row.
func (a *Agent) snapshot() Fish {
	return Fish{
		ID:      a.ID,
		X:       a.Position.X,
		Y:       a.Position.Y,
		Z:       a.Position.Z,
		Scale:   a.Scale,
		VX:      a.Velocity.X,
		VY:      a.Velocity.Y,
		VZ:      a.Velocity.Z,
		Speed:   a.Speed,
		Heading: a.Heading,
	}
}
