package proto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusa0827/apuarium/internal/sim"
)

func TestEncodeStateCarriesAllWireFields(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fish := []sim.Fish{{
		ID: 1, X: 0.1, Y: 0.2, Z: 0.3,
		Scale: 1.1, VX: 0.01, VY: 0.02, VZ: 0.03,
		Speed:   0.05,
		Heading: sim.Vec3{X: 1},
	}}

	data, err := EncodeState(fish, 7, now)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "state", decoded["type"])
	assert.EqualValues(t, 7, decoded["t"])
	assert.EqualValues(t, now.UnixMilli(), decoded["serverTime"])

	entries, ok := decoded["fish"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)

	entry, ok := entries[0].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"id", "x", "y", "z", "scale", "vx", "vy", "vz", "speed", "heading"} {
		assert.Contains(t, entry, key)
	}
	heading, ok := entry["heading"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, heading["x"])
}

func TestEncodeStateRendersEmptyListNotNull(t *testing.T) {
	t.Parallel()

	data, err := EncodeState(nil, 0, time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fish":[]`)
}

func TestEncodeHello(t *testing.T) {
	t.Parallel()

	data, err := EncodeHello()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"hello"}`, string(data))
}
