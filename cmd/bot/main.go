// Command bot is a soak client: it joins, acknowledges every window and keeps
// clicking random slots.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"windowcraft.ai/internal/protocol"
)

var clicks = []string{"LEFT", "RIGHT", "SHIFT_LEFT", "LEFT", "RIGHT"}

// bot holds what the server last told us. Payloads are passed back verbatim,
// so the bot never needs the codec.
type bot struct {
	mu     sync.Mutex
	window uint64
	size   int
	cursor string
}

func (b *bot) opened(id uint64, size int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.window, b.size = id, size
}

func (b *bot) closed(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.window == id {
		b.window, b.size = 0, 0
	}
}

func (b *bot) setCursor(p string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = p
}

// nextClick picks a click, or ok=false while no window is open.
func (b *bot) nextClick(r *rand.Rand) (protocol.ClickMsg, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.window == 0 || b.size == 0 {
		return protocol.ClickMsg{}, false
	}
	return protocol.ClickMsg{
		Type:     protocol.TypeClick,
		WindowID: b.window,
		Slot:     r.Intn(b.size),
		Click:    clicks[r.Intn(len(clicks))],
		Cursor:   b.cursor,
	}, true
}

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "viewer name")
		every = flag.Duration("every", 500*time.Millisecond, "click interval")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ViewerName:      *name,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 64},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	var (
		b   bot
		wmu sync.Mutex
	)
	write := func(v any) {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.WriteJSON(v)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	done := make(chan struct{})

	go func() {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		t := time.NewTicker(*every)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if c, ok := b.nextClick(r); ok {
					write(c)
				}
			}
		}
	}()

	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			handle(&b, logger, write, msg)
		}
	}()

	select {
	case <-stop:
	case <-done:
	}
}

func handle(b *bot, logger *log.Logger, write func(any), msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return
		}
		logger.Printf("WELCOME viewer_id=%s codec=%s tick_rate=%d", w.ViewerID, w.Codec, w.TickRateHz)

	case protocol.TypeOpenWindow:
		var m protocol.OpenWindowMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		b.opened(m.WindowID, m.Frame.Size)
		write(protocol.OpenedMsg{Type: protocol.TypeOpened, WindowID: m.WindowID})
		logger.Printf("OPEN_WINDOW id=%d title=%q size=%d", m.WindowID, m.Title, m.Frame.Size)

	case protocol.TypeCloseWindow:
		var m protocol.CloseWindowMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		b.closed(m.WindowID)

	case protocol.TypeSetCursor:
		var m protocol.SetCursorMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		b.setCursor(m.Item)

	case protocol.TypeError:
		var m protocol.ErrorMsg
		if err := json.Unmarshal(msg, &m); err == nil {
			logger.Printf("ERROR %s %s", m.Code, m.Message)
		}
	}
}
