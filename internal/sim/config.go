package sim

// AxisRange bounds one axis of the tank volume. Agents are clamped to
// [Low, High] so the renderer never sees a fish inside a wall.
type AxisRange struct {
	Low  float64
	High float64
}

// Config tunes the swimming simulation. The zero value is not usable
// directly; call normalized or start from DefaultConfig.
type Config struct {
	// FishCount is the number of agents spawned at startup. Agents are never
	// added or removed afterwards. Zero is valid and yields empty snapshots.
	FishCount int

	// MinSpeed and MaxSpeed bound agent speed in normalized units per second.
	MinSpeed float64
	MaxSpeed float64

	// TurnNoise is the half-width, in radians per second, of the random walk
	// applied to each agent's heading every tick.
	TurnNoise float64

	// MaxPitch caps how steeply an agent may swim up or down, in radians.
	MaxPitch float64

	// WallBounce controls how much speed survives a wall reflection (0..1).
	WallBounce float64

	// AccelChance is the per-tick probability of a small speed-up, and
	// AccelFactor the multiplier applied when it fires.
	AccelChance float64
	AccelFactor float64

	// BoundsX/Y/Z are the swimmable margins inside the [0,1] tank.
	BoundsX AxisRange
	BoundsY AxisRange
	BoundsZ AxisRange
}

// DefaultConfig returns the tuning used by the production tank.
func DefaultConfig() Config {
	return Config{
		FishCount:   20,
		MinSpeed:    0.05,
		MaxSpeed:    0.15,
		TurnNoise:   0.7,
		MaxPitch:    0.6,
		WallBounce:  0.9,
		AccelChance: 0.02,
		AccelFactor: 1.05,
		BoundsX:     AxisRange{Low: 0.02, High: 0.98},
		BoundsY:     AxisRange{Low: 0.05, High: 0.95},
		BoundsZ:     AxisRange{Low: 0.05, High: 0.95},
	}
}

// normalized fills in defaults for unset fields so a partially populated
// config still produces a sane tank.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.FishCount < 0 {
		c.FishCount = 0
	}
	if c.MinSpeed <= 0 {
		c.MinSpeed = def.MinSpeed
	}
	if c.MaxSpeed <= c.MinSpeed {
		c.MaxSpeed = c.MinSpeed * (def.MaxSpeed / def.MinSpeed)
	}
	if c.TurnNoise <= 0 {
		c.TurnNoise = def.TurnNoise
	}
	if c.MaxPitch <= 0 {
		c.MaxPitch = def.MaxPitch
	}
	if c.WallBounce <= 0 || c.WallBounce > 1 {
		c.WallBounce = def.WallBounce
	}
	if c.AccelChance <= 0 {
		c.AccelChance = def.AccelChance
	}
	if c.AccelFactor <= 1 {
		c.AccelFactor = def.AccelFactor
	}
	c.BoundsX = normalizedRange(c.BoundsX, def.BoundsX)
	c.BoundsY = normalizedRange(c.BoundsY, def.BoundsY)
	c.BoundsZ = normalizedRange(c.BoundsZ, def.BoundsZ)
	return c
}

func normalizedRange(r, def AxisRange) AxisRange {
	if r.High <= r.Low {
		return def
	}
	r.Low = clamp(r.Low, 0, 1)
	r.High = clamp(r.High, 0, 1)
	if r.High <= r.Low {
		return def
	}
	return r
}
