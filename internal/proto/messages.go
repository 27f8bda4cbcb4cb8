// Package proto defines the websocket wire messages exchanged between the
// tank server and its viewers.
package proto

import (
	"encoding/json"
	"time"

	"github.com/yusa0827/apuarium/internal/sim"
)

// Message type identifiers.
const (
	// TypeState tags the server->client snapshot broadcast.
	TypeState = "state"
	// TypeHello tags the optional client handshake. The server never replies
	// to it and streams identically whether or not it arrives.
	TypeHello = "hello"
)

// StateMessage is one tick's snapshot as broadcast to every subscriber.
// Fish entries carry the full 3D shape; legacy 2D entries (x, y, dir, scale,
// flip) are accepted on the receiving side only.
type StateMessage struct {
	Type       string     `json:"type"`
	Fish       []sim.Fish `json:"fish"`
	Tick       uint64     `json:"t"`
	ServerTime int64      `json:"serverTime"`
}

// HelloMessage is the optional unsolicited handshake a client may send when
// its channel opens.
type HelloMessage struct {
	Type string `json:"type"`
}

// ClientMessage is the loose envelope used to inspect inbound client
// payloads. Anything beyond the type tag is ignored today.
type ClientMessage struct {
	Type string `json:"type"`
}

// EncodeState renders one snapshot broadcast payload.
func EncodeState(fish []sim.Fish, tick uint64, now time.Time) ([]byte, error) {
	if fish == nil {
		fish = []sim.Fish{}
	}
	return json.Marshal(StateMessage{
		Type:       TypeState,
		Fish:       fish,
		Tick:       tick,
		ServerTime: now.UnixMilli(),
	})
}

// EncodeHello renders the client handshake payload.
func EncodeHello() ([]byte, error) {
	return json.Marshal(HelloMessage{Type: TypeHello})
}
