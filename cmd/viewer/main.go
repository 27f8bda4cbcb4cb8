// Command viewer renders the tank in a terminal. It dials the server's
// websocket feed, reconciles live snapshots against a local fallback school,
// and draws whichever list the arbiter trusts at ~30 frames per second.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yusa0827/apuarium/internal/client"
	"github.com/yusa0827/apuarium/internal/config"
	"github.com/yusa0827/apuarium/internal/proto"
)

const frameInterval = 33 * time.Millisecond

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "viewer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger := newViewerLogger()

	view := client.NewView(client.ViewConfig{
		StaleAfter:   cfg.StaleAfter,
		FallbackFish: cfg.FishCount,
	}, logger)

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connected := make(chan bool, 1)
	go streamLoop(ctx, cfg, view, logger, connected)

	events := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	online := false
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case state := <-connected:
			online = state
		case now := <-ticker.C:
			fish, mode := view.Frame(now)
			draw(screen, fish, mode, online)
		case <-ctx.Done():
			return nil
		}
	}
}

// streamLoop dials the feed and pushes every payload into the view,
// reconnecting on a fixed backoff forever. Losing the channel is not an
// error here: the arbiter degrades to the fallback school on its own.
func streamLoop(ctx context.Context, cfg config.Config, view *client.View, logger zerolog.Logger, connected chan<- bool) {
	log := logger.With().Str("component", "stream").Logger()
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.ServerURL, nil)
		if err != nil {
			log.Debug().Err(err).Str("url", cfg.ServerURL).Msg("dial failed")
			notify(connected, false)
			if !sleepCtx(ctx, cfg.ReconnectEvery) {
				return
			}
			continue
		}

		notify(connected, true)
		if hello, err := proto.EncodeHello(); err == nil {
			conn.WriteMessage(websocket.TextMessage, hello)
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("channel closed")
				break
			}
			view.HandleMessage(payload)
		}

		conn.Close()
		notify(connected, false)
		if !sleepCtx(ctx, cfg.ReconnectEvery) {
			return
		}
	}
}

func notify(ch chan<- bool, state bool) {
	select {
	case ch <- state:
	default:
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

var (
	waterStyle  = tcell.StyleDefault.Background(tcell.ColorDarkBlue)
	fishStyle   = tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorOrange)
	bigFish     = fishStyle.Bold(true)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

func draw(screen tcell.Screen, fish []client.Fish, mode client.Mode, online bool) {
	screen.Clear()
	width, height := screen.Size()
	if width < 2 || height < 3 {
		screen.Show()
		return
	}

	tankHeight := height - 1
	for row := 0; row < tankHeight; row++ {
		for col := 0; col < width; col++ {
			screen.SetContent(col, row, ' ', nil, waterStyle)
		}
	}

	for _, f := range fish {
		col := int(f.X * float64(width-1))
		row := int(f.Y * float64(tankHeight-1))
		style := fishStyle
		if f.Scale > 1.1 {
			style = bigFish
		}
		screen.SetContent(col, row, fishGlyph(f.Heading), nil, style)
	}

	status := fmt.Sprintf(" %s | fish: %d | connection: %s | q to quit", modeLabel(mode), len(fish), connLabel(online))
	for col := 0; col < width; col++ {
		r := ' '
		if col < len(status) {
			r = rune(status[col])
		}
		screen.SetContent(col, height-1, r, nil, statusStyle)
	}

	screen.Show()
}

// fishGlyph picks an arrow by the dominant planar heading component.
func fishGlyph(h client.Heading) rune {
	if abs(h.X) >= abs(h.Y) {
		if h.X >= 0 {
			return '>'
		}
		return '<'
	}
	if h.Y >= 0 {
		return 'v'
	}
	return '^'
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func modeLabel(mode client.Mode) string {
	if mode == client.ModeLive {
		return "streaming"
	}
	return "offline simulation"
}

func connLabel(online bool) string {
	if online {
		return "up"
	}
	return "down"
}

// newViewerLogger writes to a file when requested so logs never fight the
// terminal UI for the screen.
func newViewerLogger() zerolog.Logger {
	path := os.Getenv("AQUARIUM_VIEWER_LOG")
	if path == "" {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger()
}
