package aquarium

import (
	"sync/atomic"
	"time"
)

// telemetryCounters tracks broadcast volume and tick cost. All fields are
// atomics because broadcasts and diagnostics reads race.
type telemetryCounters struct {
	bytesSent          atomic.Uint64
	fishSent           atomic.Uint64
	broadcasts         atomic.Uint64
	tickDurationMillis atomic.Int64
	lastBroadcastBytes atomic.Uint64
	lastBroadcastFish  atomic.Uint64
}

type telemetrySnapshot struct {
	BytesSent          uint64 `json:"bytesSent"`
	FishSent           uint64 `json:"fishSent"`
	Broadcasts         uint64 `json:"broadcasts"`
	TickDuration       int64  `json:"tickDurationMillis"`
	LastBroadcastBytes uint64 `json:"lastBroadcastBytes"`
	LastBroadcastFish  uint64 `json:"lastBroadcastFish"`
}

func newTelemetryCounters() *telemetryCounters {
	return &telemetryCounters{}
}

func (t *telemetryCounters) RecordBroadcast(bytes, fish int) {
	if bytes < 0 {
		bytes = 0
	}
	if fish < 0 {
		fish = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.fishSent.Add(uint64(fish))
	t.broadcasts.Add(1)
	t.lastBroadcastBytes.Store(uint64(bytes))
	t.lastBroadcastFish.Store(uint64(fish))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		BytesSent:          t.bytesSent.Load(),
		FishSent:           t.fishSent.Load(),
		Broadcasts:         t.broadcasts.Load(),
		TickDuration:       t.tickDurationMillis.Load(),
		LastBroadcastBytes: t.lastBroadcastBytes.Load(),
		LastBroadcastFish:  t.lastBroadcastFish.Load(),
	}
}
