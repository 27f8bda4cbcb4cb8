package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedRejectsDegenerateVectors(t *testing.T) {
	t.Parallel()

	_, ok := Vec3{}.Normalized()
	assert.False(t, ok)

	_, ok = Vec3{X: 1e-12}.Normalized()
	assert.False(t, ok)

	unit, ok := Vec3{X: 3, Y: 4}.Normalized()
	assert.True(t, ok)
	assert.InDelta(t, 0.6, unit.X, 1e-12)
	assert.InDelta(t, 0.8, unit.Y, 1e-12)
}

func TestDirectionFromAnglesIsUnitLength(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ yaw, pitch float64 }{
		{0, 0},
		{math.Pi / 2, 0},
		{math.Pi, 0.5},
		{-math.Pi / 3, -0.6},
	} {
		dir := directionFromAngles(tc.yaw, tc.pitch)
		assert.InDelta(t, 1.0, dir.Length(), 1e-12, "yaw=%v pitch=%v", tc.yaw, tc.pitch)
	}
}

func TestNormalizeAngleWraps(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, normalizeAngle(2*math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi/2, normalizeAngle(3*math.Pi/2), 1e-12)
}

func TestConfigNormalizedFillsDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{FishCount: 3}.normalized()
	def := DefaultConfig()

	assert.Equal(t, 3, cfg.FishCount)
	assert.Equal(t, def.MinSpeed, cfg.MinSpeed)
	assert.Equal(t, def.MaxSpeed, cfg.MaxSpeed)
	assert.Equal(t, def.BoundsX, cfg.BoundsX)

	cfg = Config{FishCount: -5}.normalized()
	assert.Equal(t, 0, cfg.FishCount)

	cfg = Config{BoundsX: AxisRange{Low: 0.9, High: 0.1}}.normalized()
	assert.Equal(t, def.BoundsX, cfg.BoundsX, "inverted range falls back to default")
}
