package client

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackColdStartPopulatesSchool(t *testing.T) {
	t.Parallel()

	f := NewFallback(42)
	assert.Zero(t, f.Len())

	f.Ensure(12)
	require.Equal(t, 12, f.Len())

	for _, fish := range f.Fish() {
		assert.GreaterOrEqual(t, fish.X, 0.0)
		assert.LessOrEqual(t, fish.X, 1.0)
		assert.GreaterOrEqual(t, fish.Y, 0.0)
		assert.LessOrEqual(t, fish.Y, 1.0)
		assert.GreaterOrEqual(t, fish.Scale, 0.8)
		assert.LessOrEqual(t, fish.Scale, 1.2)
	}
}

func TestFallbackStaysInsideTank(t *testing.T) {
	t.Parallel()

	f := NewFallback(7)
	f.Ensure(10)
	for i := 0; i < 5000; i++ {
		f.Step(1.0 / 30)
	}

	for _, fish := range f.Fish() {
		assert.GreaterOrEqual(t, fish.X, fallbackMarginX)
		assert.LessOrEqual(t, fish.X, 1-fallbackMarginX)
		assert.GreaterOrEqual(t, fish.Y, fallbackMarginY)
		assert.LessOrEqual(t, fish.Y, 1-fallbackMarginY)
		assert.GreaterOrEqual(t, fish.Z, fallbackZLow)
		assert.LessOrEqual(t, fish.Z, fallbackZHigh)
	}
}

func TestFallbackIsDeterministicPerSeed(t *testing.T) {
	t.Parallel()

	a := NewFallback(42)
	b := NewFallback(42)
	a.Ensure(5)
	b.Ensure(5)
	for i := 0; i < 300; i++ {
		a.Step(1.0 / 30)
		b.Step(1.0 / 30)
	}

	require.Equal(t, a.Fish(), b.Fish())
}

func TestEnsureNeverResetsExistingAgents(t *testing.T) {
	t.Parallel()

	f := NewFallback(42)
	f.Ensure(5)
	for i := 0; i < 60; i++ {
		f.Step(1.0 / 30)
	}
	before := f.Fish()

	// A re-activation calls Ensure again; existing agents must resume, not
	// re-randomize.
	f.Ensure(5)
	assert.Equal(t, before, f.Fish())

	f.Ensure(8)
	after := f.Fish()
	require.Equal(t, 8, f.Len())
	assert.Equal(t, before, after[:5], "growing the school keeps prior agents intact")
}

func TestFallbackHeadingsAreUnitLength(t *testing.T) {
	t.Parallel()

	f := NewFallback(3)
	f.Ensure(6)
	for i := 0; i < 100; i++ {
		f.Step(1.0 / 30)
	}

	for _, fish := range f.Fish() {
		length := math.Sqrt(fish.Heading.X*fish.Heading.X + fish.Heading.Y*fish.Heading.Y)
		assert.InDelta(t, 1.0, length, 1e-9)
	}
}
