package client

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// scaleMin/scaleMax bound the visual size multiplier accepted off the wire.
	scaleMin = 0.4
	scaleMax = 1.8

	// retainFor keeps a record around briefly after its id stops appearing in
	// snapshots so a flickering feed does not restart the fish from scratch.
	retainFor = 2 * time.Second

	dirEpsilon = 1e-9
)

// record is the client-side mirror of one wire fish, augmented with the
// interpolation state the render loop needs. The last two known positions
// are kept so frames can lerp between ticks.
type record struct {
	id int

	prevX, prevY, prevZ float64
	prevAt              time.Time

	x, y, z float64
	at      time.Time

	heading  Heading
	scale    float64
	phase    float64
	lastSeen time.Time
}

// Receiver converts arbitrary inbound payloads into a trustworthy fish list.
// Sanitization is total: malformed input degrades to defaults, never to an
// error. The live feed is untrusted network input.
type Receiver struct {
	mu        sync.Mutex
	records   map[int]*record
	order     []int
	lastValid time.Time
	lastCount int
	log       zerolog.Logger
}

// NewReceiver builds an empty receiver.
func NewReceiver(log zerolog.Logger) *Receiver {
	return &Receiver{
		records: make(map[int]*record),
		log:     log.With().Str("component", "receiver").Logger(),
	}
}

type wireEnvelope struct {
	Type string            `json:"type"`
	Fish []json.RawMessage `json:"fish"`
}

// HandleMessage ingests one raw websocket payload observed at now. It
// returns the number of fish accepted and whether the payload was a state
// snapshot at all. Non-state payloads and garbage are ignored.
func (r *Receiver) HandleMessage(payload []byte, now time.Time) (int, bool) {
	var env wireEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		r.log.Debug().Err(err).Msg("discarding unparseable payload")
		return 0, false
	}
	if env.Type != "state" {
		return 0, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order := make([]int, 0, len(env.Fish))
	for i, raw := range env.Fish {
		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			r.log.Debug().Int("index", i).Err(err).Msg("skipping malformed fish entry")
			continue
		}
		id := r.ingestLocked(entry, i, now)
		order = append(order, id)
	}

	r.pruneLocked(now)
	r.order = order
	r.lastCount = len(order)
	if len(order) > 0 {
		r.lastValid = now
	}
	return len(order), true
}

// ingestLocked sanitizes one wire entry into its record and returns the id
// used, synthesizing a positional fallback id when the entry carries none.
func (r *Receiver) ingestLocked(entry map[string]any, index int, now time.Time) int {
	id := -1 - index
	if v, ok := numField(entry, "id"); ok {
		id = int(math.Round(v))
	}

	rec, exists := r.records[id]
	if !exists {
		rec = &record{id: id, x: 0.5, y: 0.5, z: 0.5, heading: headingRight, scale: 1}
		r.records[id] = rec
	}

	rec.prevX, rec.prevY, rec.prevZ = rec.x, rec.y, rec.z
	rec.prevAt = rec.at

	if v, ok := numField(entry, "x"); ok {
		rec.x = clamp01(v)
	}
	if v, ok := numField(entry, "y"); ok {
		rec.y = clamp01(v)
	}
	if v, ok := numField(entry, "z"); ok {
		rec.z = clamp01(v)
	}

	if h, ok := headingFromEntry(entry); ok {
		rec.heading = h
	}

	if v, ok := numField(entry, "scale"); ok {
		rec.scale = clampRange(v, scaleMin, scaleMax)
	}

	if !rec.at.IsZero() {
		rec.phase = math.Mod(rec.phase+now.Sub(rec.at).Seconds()*4, 2*math.Pi)
	}
	rec.at = now
	if rec.prevAt.IsZero() {
		// First sighting: no segment to interpolate over yet.
		rec.prevX, rec.prevY, rec.prevZ = rec.x, rec.y, rec.z
		rec.prevAt = now
	}
	rec.lastSeen = now
	return id
}

// pruneLocked drops records whose id has been absent long enough that a
// reappearance no longer benefits from continuity.
func (r *Receiver) pruneLocked(now time.Time) {
	for id, rec := range r.records {
		if now.Sub(rec.lastSeen) > retainFor {
			delete(r.records, id)
		}
	}
}

// headingFromEntry resolves the direction of a wire entry in fixed
// preference order: explicit 3D heading, then 3D velocity, then the legacy
// planar angle, then the legacy flip hint. Absent all of those it reports
// false and the caller keeps the previous (or default) heading.
func headingFromEntry(entry map[string]any) (Heading, bool) {
	if raw, ok := entry["heading"].(map[string]any); ok {
		h := Heading{}
		hx, okX := numField(raw, "x")
		hy, okY := numField(raw, "y")
		hz, okZ := numField(raw, "z")
		if okX || okY || okZ {
			h.X, h.Y, h.Z = hx, hy, hz
			if unit, ok := normalizeHeading(h); ok {
				return unit, true
			}
		}
	}

	vx, okX := numField(entry, "vx")
	vy, okY := numField(entry, "vy")
	vz, okZ := numField(entry, "vz")
	if okX || okY || okZ {
		if unit, ok := normalizeHeading(Heading{X: vx, Y: vy, Z: vz}); ok {
			return unit, true
		}
	}

	if dir, ok := numField(entry, "dir"); ok && !math.IsNaN(dir) {
		return Heading{X: math.Cos(dir), Y: math.Sin(dir)}, true
	}

	// Legacy sprite hint: flip -1 means the fish points along +x.
	if flip, ok := numField(entry, "flip"); ok {
		if flip < 0 {
			return Heading{X: 1}, true
		}
		return Heading{X: -1}, true
	}

	return Heading{}, false
}

func normalizeHeading(h Heading) (Heading, bool) {
	length := math.Sqrt(h.X*h.X + h.Y*h.Y + h.Z*h.Z)
	if length < dirEpsilon || math.IsNaN(length) || math.IsInf(length, 0) {
		return Heading{}, false
	}
	return Heading{X: h.X / length, Y: h.Y / length, Z: h.Z / length}, true
}

// numField extracts a finite numeric field; anything else reads as absent.
func numField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LiveFish returns the current snapshot's fish, positions interpolated
// between the last two known ticks so a 60Hz render loop does not step at
// the 20Hz feed rate.
func (r *Receiver) LiveFish(now time.Time) []Fish {
	r.mu.Lock()
	defer r.mu.Unlock()

	fish := make([]Fish, 0, len(r.order))
	for _, id := range r.order {
		rec, ok := r.records[id]
		if !ok {
			continue
		}
		alpha := 1.0
		if span := rec.at.Sub(rec.prevAt); span > 0 {
			alpha = clampRange(now.Sub(rec.prevAt).Seconds()/span.Seconds(), 0, 1)
		}
		fish = append(fish, Fish{
			ID:      rec.id,
			X:       rec.prevX + (rec.x-rec.prevX)*alpha,
			Y:       rec.prevY + (rec.y-rec.prevY)*alpha,
			Z:       rec.prevZ + (rec.z-rec.prevZ)*alpha,
			Heading: rec.heading,
			Scale:   rec.scale,
			Phase:   rec.phase,
		})
	}
	return fish
}

// LastValid reports when the most recent non-empty snapshot arrived and how
// many fish it carried.
func (r *Receiver) LastValid() (time.Time, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastValid, r.lastCount
}
