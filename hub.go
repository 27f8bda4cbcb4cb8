// Package aquarium runs the authoritative fish tank: a fixed-tick swimming
// simulation whose snapshots are fanned out to every connected websocket
// viewer.
package aquarium

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yusa0827/apuarium/internal/proto"
	"github.com/yusa0827/apuarium/internal/sim"
)

const writeWait = 10 * time.Second

// HubConfig tunes the broadcaster and the simulation it drives.
type HubConfig struct {
	// TickRate is the simulation and broadcast frequency in Hz.
	TickRate int
	// Sim tunes the fish school; the zero value takes the defaults.
	Sim sim.Config
	// Seed makes the school reproducible. Zero derives a seed from the clock.
	Seed int64
}

// DefaultHubConfig returns the production tank settings: 20 fish at 20Hz.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		TickRate: 20,
		Sim:      sim.DefaultConfig(),
	}
}

func (c HubConfig) normalized() HubConfig {
	if c.TickRate <= 0 {
		c.TickRate = 20
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// subscriber is one connected output channel. The mutex serializes writes
// because broadcasts and the initial snapshot race on the same conn.
type subscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// ID returns the channel identity assigned at subscribe time.
func (s *subscriber) ID() string {
	return s.id
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub owns the simulation engine and the set of connected subscribers.
// Subscribes and disconnects arrive on HTTP goroutines while the tick loop
// runs on its own, so the subscriber map sits behind a mutex.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber

	cfg       HubConfig
	engine    *sim.Engine
	telemetry *telemetryCounters
	log       zerolog.Logger
}

// NewHub builds a hub with a freshly spawned school.
func NewHub(cfg HubConfig, log zerolog.Logger) *Hub {
	cfg = cfg.normalized()
	return &Hub{
		subscribers: make(map[string]*subscriber),
		cfg:         cfg,
		engine:      sim.New(cfg.Sim, cfg.Seed),
		telemetry:   newTelemetryCounters(),
		log:         log.With().Str("component", "hub").Logger(),
	}
}

// TickRate returns the configured broadcast frequency.
func (h *Hub) TickRate() int {
	return h.cfg.TickRate
}

// Subscribe sends a connection the current snapshot and then registers it
// for broadcasts. The greeting snapshot is written before registration so a
// tick firing in between cannot overtake it on the same channel; a broadcast
// missed in that gap is not replayed. A failed greeting leaves the hub
// untouched.
func (h *Hub) Subscribe(conn *websocket.Conn) (*subscriber, error) {
	sub := &subscriber{id: uuid.NewString(), conn: conn}

	fish, tick, now := h.snapshot()
	data, err := proto.EncodeState(fish, tick, now)
	if err != nil {
		return nil, err
	}
	if err := sub.write(data); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	h.log.Info().Str("subscriber", sub.id).Int("subscribers", count).Msg("channel connected")
	return sub, nil
}

// Disconnect removes a subscriber and closes its connection. It is safe to
// call twice; the second call is a no-op.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.conn.Close()
	h.log.Info().Str("subscriber", id).Int("subscribers", count).Msg("channel disconnected")
}

// SubscriberCount reports the number of connected channels.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// snapshot captures the current school under the hub lock. The engine is
// only ever stepped by the tick goroutine, but snapshots are also taken on
// subscribe, so both paths serialize through the same mutex.
func (h *Hub) snapshot() ([]sim.Fish, uint64, time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.Snapshot(), h.engine.Tick(), time.Now()
}

// RunSimulation drives the fixed-rate tick loop until stop closes. Each
// tick advances the school once and broadcasts the resulting snapshot.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.TickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(h.cfg.TickRate)
			}
			last = now

			started := time.Now()
			h.mu.Lock()
			h.engine.Step(dt)
			fish := h.engine.Snapshot()
			tick := h.engine.Tick()
			h.mu.Unlock()

			h.broadcastState(fish, tick, now)
			h.telemetry.RecordTickDuration(time.Since(started))
		}
	}
}

// broadcastState serializes the snapshot once and attempts the identical
// payload on every subscriber. A failed write removes only that channel;
// broadcasting is best-effort and isolated per channel.
func (h *Hub) broadcastState(fish []sim.Fish, tick uint64, now time.Time) {
	data, err := proto.EncodeState(fish, tick, now)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal state message")
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.write(data); err != nil {
			h.log.Warn().Str("subscriber", sub.id).Err(err).Msg("dropping subscriber after failed send")
			h.Disconnect(sub.id)
		}
	}
	h.telemetry.RecordBroadcast(len(data)*len(subs), len(fish))
}

// DiagnosticsSnapshot exposes hub counters for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() DiagnosticsPayload {
	return DiagnosticsPayload{
		Status:      "ok",
		ServerTime:  time.Now().UnixMilli(),
		TickRate:    h.cfg.TickRate,
		Subscribers: h.SubscriberCount(),
		FishCount:   h.cfg.Sim.FishCount,
		Telemetry:   h.telemetry.Snapshot(),
	}
}
