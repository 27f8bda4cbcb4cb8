// Package app wires configuration, logging, the hub and the HTTP surface
// into a runnable tank server.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	aquarium "github.com/yusa0827/apuarium"
	"github.com/yusa0827/apuarium/internal/config"
	"github.com/yusa0827/apuarium/internal/proto"
	"github.com/yusa0827/apuarium/internal/sim"
)

const shutdownTimeout = 5 * time.Second

// Run loads configuration, starts the simulation loop and serves HTTP until
// ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.LogLevel)

	simCfg := sim.DefaultConfig()
	simCfg.FishCount = cfg.FishCount
	hub := aquarium.NewHub(aquarium.HubConfig{
		TickRate: cfg.TickRate,
		Sim:      simCfg,
		Seed:     cfg.Seed,
	}, logger)

	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	mux := http.NewServeMux()
	registerRoutes(mux, hub, logger)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Int("tickRate", cfg.TickRate).Int("fishCount", cfg.FishCount).Msg("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// NewLogger builds the process logger: console-friendly on a TTY, JSON
// otherwise.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stdout.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}

func registerRoutes(mux *http.ServeMux, hub *aquarium.Hub, logger zerolog.Logger) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		data, err := json.Marshal(hub.DiagnosticsSnapshot())
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/ws", NewWSHandler(hub, logger))

	if dir, err := aquarium.ResolveStaticAssetsDir(); err == nil {
		logger.Info().Str("dir", dir).Msg("serving static assets")
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	} else {
		logger.Debug().Err(err).Msg("no static assets mounted")
	}
}

// NewWSHandler upgrades a connection, subscribes it to the hub and drains
// inbound messages until the peer goes away. The read loop exists to notice
// closes and to swallow the optional hello handshake; nothing a client sends
// influences the stream.
func NewWSHandler(hub *aquarium.Hub, logger zerolog.Logger) http.HandlerFunc {
	log := logger.With().Str("component", "ws").Logger()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("upgrade failed")
			return
		}

		sub, err := hub.Subscribe(conn)
		if err != nil {
			log.Warn().Err(err).Msg("failed to send initial snapshot")
			conn.Close()
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(sub.ID())
				return
			}

			var msg proto.ClientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Debug().Str("subscriber", sub.ID()).Err(err).Msg("discarding malformed message")
				continue
			}

			switch msg.Type {
			case proto.TypeHello:
				// Optional handshake; no reply required.
				log.Debug().Str("subscriber", sub.ID()).Msg("client hello")
			default:
				log.Debug().Str("subscriber", sub.ID()).Str("type", msg.Type).Msg("ignoring unknown message type")
			}
		}
	}
}
