package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepKeepsAgentsInsideBounds(t *testing.T) {
	t.Parallel()

	for _, seed := range []int64{1, 7, 42, 1337} {
		eng := New(DefaultConfig(), seed)
		cfg := eng.Config()

		for i := 0; i < 2000; i++ {
			eng.Step(0.05)
			for _, f := range eng.Snapshot() {
				assert.GreaterOrEqual(t, f.X, cfg.BoundsX.Low, "seed %d tick %d", seed, i)
				assert.LessOrEqual(t, f.X, cfg.BoundsX.High, "seed %d tick %d", seed, i)
				assert.GreaterOrEqual(t, f.Y, cfg.BoundsY.Low, "seed %d tick %d", seed, i)
				assert.LessOrEqual(t, f.Y, cfg.BoundsY.High, "seed %d tick %d", seed, i)
				assert.GreaterOrEqual(t, f.Z, cfg.BoundsZ.Low, "seed %d tick %d", seed, i)
				assert.LessOrEqual(t, f.Z, cfg.BoundsZ.High, "seed %d tick %d", seed, i)
			}
		}
	}
}

func TestStepKeepsSpeedWithinConfiguredRange(t *testing.T) {
	t.Parallel()

	eng := New(DefaultConfig(), 99)
	cfg := eng.Config()
	const tolerance = 1e-9

	for i := 0; i < 1000; i++ {
		eng.Step(0.05)
		for _, f := range eng.Snapshot() {
			speed := math.Sqrt(f.VX*f.VX + f.VY*f.VY + f.VZ*f.VZ)
			assert.GreaterOrEqual(t, speed, cfg.MinSpeed-tolerance)
			assert.LessOrEqual(t, speed, cfg.MaxSpeed+tolerance)
			assert.InDelta(t, f.Speed, speed, 1e-9)
		}
	}
}

func TestHeadingStaysUnitLength(t *testing.T) {
	t.Parallel()

	eng := New(DefaultConfig(), 5)
	for i := 0; i < 500; i++ {
		eng.Step(0.05)
		for _, f := range eng.Snapshot() {
			length := f.Heading.Length()
			require.False(t, math.IsNaN(length), "heading became NaN at tick %d", i)
			assert.InDelta(t, 1.0, length, 1e-9, "tick %d fish %d", i, f.ID)
		}
	}
}

func TestSameSeedProducesIdenticalTrajectories(t *testing.T) {
	t.Parallel()

	a := New(DefaultConfig(), 42)
	b := New(DefaultConfig(), 42)

	for i := 0; i < 200; i++ {
		a.Step(0.05)
		b.Step(0.05)
	}

	require.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestDifferentSeedsDiverge(t *testing.T) {
	t.Parallel()

	a := New(DefaultConfig(), 1)
	b := New(DefaultConfig(), 2)
	a.Step(0.05)
	b.Step(0.05)

	assert.NotEqual(t, a.Snapshot(), b.Snapshot())
}

func TestZeroAgentsYieldsEmptySnapshot(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.FishCount = 0
	eng := New(cfg, 42)
	eng.Step(0.05)

	fish := eng.Snapshot()
	require.NotNil(t, fish)
	assert.Empty(t, fish)
}

func TestStepIgnoresNonPositiveDt(t *testing.T) {
	t.Parallel()

	eng := New(DefaultConfig(), 42)
	before := eng.Snapshot()
	eng.Step(0)
	eng.Step(-1)

	assert.Equal(t, before, eng.Snapshot())
	assert.Equal(t, uint64(0), eng.Tick())
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	t.Parallel()

	eng := New(DefaultConfig(), 42)
	first := eng.Snapshot()
	clone := make([]Fish, len(first))
	copy(clone, first)

	eng.Step(0.05)

	assert.Equal(t, clone, first, "stepping must not mutate an earlier snapshot")
	assert.NotEqual(t, first, eng.Snapshot())
}

func TestAgentIdentitiesAreStable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.FishCount = 5
	eng := New(cfg, 3)

	for i := 0; i < 50; i++ {
		eng.Step(0.05)
		fish := eng.Snapshot()
		require.Len(t, fish, 5)
		for idx, f := range fish {
			assert.Equal(t, idx, f.ID)
		}
	}
}

func TestScaleFixedAtCreation(t *testing.T) {
	t.Parallel()

	eng := New(DefaultConfig(), 8)
	initial := eng.Snapshot()
	for i := 0; i < 100; i++ {
		eng.Step(0.05)
	}
	final := eng.Snapshot()

	for i := range initial {
		assert.Equal(t, initial[i].Scale, final[i].Scale)
		assert.GreaterOrEqual(t, initial[i].Scale, 0.8)
		assert.LessOrEqual(t, initial[i].Scale, 1.2)
	}
}

func TestBounceReflectsAndDampens(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.FishCount = 1
	cfg.TurnNoise = 1e-12 // effectively straight-line swimming
	eng := New(cfg, 42)

	// Point the agent straight at the +X wall at max speed.
	a := &eng.agents[0]
	a.yaw = 0
	a.pitch = 0
	a.Speed = cfg.MaxSpeed
	a.Position = Vec3{X: cfg.BoundsX.High - 1e-4, Y: 0.5, Z: 0.5}

	eng.Step(0.05)

	f := eng.Snapshot()[0]
	assert.Equal(t, cfg.BoundsX.High, f.X, "position clamps to the margin")
	assert.Negative(t, f.VX, "x velocity reflects")
	assert.Less(t, f.Speed, cfg.MaxSpeed, "bounce sheds speed")
	assert.GreaterOrEqual(t, f.Speed, cfg.MinSpeed)
}

// TestSeed42TrajectoryMatchesPinnedReference is the regression gate for the
// integrator: 3 agents, seed 42, 100 ticks at dt=0.05 must reproduce the
// trajectory of the pinned reference stepper below, bit for bit. Any change
// to spawn order, RNG consumption, update arithmetic or bounce handling
// shows up as a diff here.
func TestSeed42TrajectoryMatchesPinnedReference(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.FishCount = 3
	eng := New(cfg, 42)

	got := make([][]Fish, 0, 100)
	for i := 0; i < 100; i++ {
		eng.Step(0.05)
		got = append(got, eng.Snapshot())
	}

	want := referenceTrajectory(cfg, 42, 100, 0.05)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("trajectory drifted from pinned reference (-want +got):\n%s", diff)
	}
}

// referenceTrajectory is a frozen, standalone restatement of the engine's
// spawn and step arithmetic, including the exact RNG call order. It must not
// be edited to follow engine changes mechanically; a diff against it is the
// signal that the simulation's observable behavior moved.
func referenceTrajectory(cfg Config, seed int64, ticks int, dt float64) [][]Fish {
	type refAgent struct {
		pos, vel, heading Vec3
		speed, scale      float64
		yaw, pitch        float64
	}

	rng := rand.New(rand.NewSource(seed))
	agents := make([]refAgent, cfg.FishCount)
	for i := range agents {
		yaw := rng.Float64() * 2 * math.Pi
		pitch := (rng.Float64()*2 - 1) * cfg.MaxPitch * 0.5
		heading := directionFromAngles(yaw, pitch)
		speed := cfg.MinSpeed + rng.Float64()*(cfg.MaxSpeed-cfg.MinSpeed)
		agents[i] = refAgent{
			pos: Vec3{
				X: cfg.BoundsX.Low + rng.Float64()*(cfg.BoundsX.High-cfg.BoundsX.Low),
				Y: cfg.BoundsY.Low + rng.Float64()*(cfg.BoundsY.High-cfg.BoundsY.Low),
				Z: cfg.BoundsZ.Low + rng.Float64()*(cfg.BoundsZ.High-cfg.BoundsZ.Low),
			},
			vel:     heading.Scale(speed),
			heading: heading,
			speed:   speed,
			scale:   0.8 + rng.Float64()*0.4,
			yaw:     yaw,
			pitch:   pitch,
		}
	}

	out := make([][]Fish, 0, ticks)
	for tick := 0; tick < ticks; tick++ {
		for i := range agents {
			a := &agents[i]
			a.yaw = normalizeAngle(a.yaw + (rng.Float64()*2-1)*cfg.TurnNoise*dt)
			a.pitch = clamp(a.pitch+(rng.Float64()*2-1)*cfg.TurnNoise*0.5*dt, -cfg.MaxPitch, cfg.MaxPitch)

			heading := directionFromAngles(a.yaw, a.pitch)
			a.vel = heading.Scale(a.speed)
			a.pos = a.pos.Add(a.vel.Scale(dt))

			bounced := false
			if reflected, pos := reflectAxis(a.pos.X, cfg.BoundsX); reflected {
				a.pos.X = pos
				a.yaw = normalizeAngle(math.Pi - a.yaw)
				bounced = true
			}
			if reflected, pos := reflectAxis(a.pos.Y, cfg.BoundsY); reflected {
				a.pos.Y = pos
				a.yaw = normalizeAngle(-a.yaw)
				bounced = true
			}
			if reflected, pos := reflectAxis(a.pos.Z, cfg.BoundsZ); reflected {
				a.pos.Z = pos
				a.pitch = -a.pitch
				bounced = true
			}

			if bounced {
				a.speed = math.Max(cfg.MinSpeed, a.speed*(0.9+0.1*cfg.WallBounce))
				heading = directionFromAngles(a.yaw, a.pitch)
				a.vel = heading.Scale(a.speed)
			} else if rng.Float64() < cfg.AccelChance {
				a.speed = math.Min(cfg.MaxSpeed, a.speed*cfg.AccelFactor)
				a.vel = heading.Scale(a.speed)
			}

			if unit, ok := a.vel.Normalized(); ok {
				a.heading = unit
			}
		}

		snap := make([]Fish, 0, len(agents))
		for i := range agents {
			a := &agents[i]
			snap = append(snap, Fish{
				ID:      i,
				X:       a.pos.X,
				Y:       a.pos.Y,
				Z:       a.pos.Z,
				Scale:   a.scale,
				VX:      a.vel.X,
				VY:      a.vel.Y,
				VZ:      a.vel.Z,
				Speed:   a.speed,
				Heading: a.heading,
			})
		}
		out = append(out, snap)
	}
	return out
}
