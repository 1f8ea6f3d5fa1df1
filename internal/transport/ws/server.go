// Package ws is the websocket host surface: it turns viewer connections into
// window events on the scheduler goroutine and window output into messages.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"windowcraft.ai/internal/adapter"
	"windowcraft.ai/internal/eventlog"
	"windowcraft.ai/internal/protocol"
	"windowcraft.ai/internal/ui/item"
	"windowcraft.ai/internal/ui/window"
)

// Loop is the scheduler capability the server needs.
type Loop interface {
	Submit(fn func())
	CurrentTick() uint64
}

// Recorder receives one entry per inbound viewer event.
type Recorder interface {
	Record(e eventlog.Entry) error
}

type Options struct {
	Codec      adapter.Codec
	Compressed bool
	TickRateHz int
	// MaxQueue caps buffered outgoing messages per viewer.
	MaxQueue  int
	ReadLimit int64
	// RateLimit caps inbound messages per viewer per second.
	RateLimit int
	Trace     Recorder
	// OnJoin runs on the loop goroutine once a viewer is welcomed.
	OnJoin func(viewer uuid.UUID, name string)
}

type Server struct {
	loop Loop
	mgr  *window.Manager
	log  *log.Logger
	opts Options

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	// Owned by the loop goroutine. cursors is what each viewer was last told
	// it holds.
	surfaces map[uint64]*Surface
	cursors  map[uuid.UUID]*item.Stack
}

func NewServer(loop Loop, mgr *window.Manager, logger *log.Logger, opts Options) *Server {
	if opts.Codec == nil {
		opts.Codec = adapter.Current()
	}
	if opts.MaxQueue <= 0 {
		opts.MaxQueue = 256
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 200
	}
	return &Server{
		loop: loop,
		mgr:  mgr,
		log:  logger,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		sessions: map[uuid.UUID]*session{},
		surfaces: map[uint64]*Surface{},
		cursors:  map[uuid.UUID]*item.Stack{},
	}
}

// Online reports whether viewer has a live connection. Safe from any goroutine.
func (s *Server) Online(viewer uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[viewer]
	return ok
}

// Viewers lists connected viewers.
func (s *Server) Viewers() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return out
}

func (s *Server) session(viewer uuid.UUID) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[viewer]
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(s.opts.ReadLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess := s.handshake(conn, cancel)
		if sess == nil {
			return
		}

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()
		go func() {
			<-ctx.Done()
			_ = conn.Close()
		}()

		s.loop.Submit(func() {
			if s.opts.OnJoin != nil {
				s.opts.OnJoin(sess.id, sess.name)
			}
		})

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if !sess.allow(time.Now(), s.opts.RateLimit) {
				sess.sendError(protocol.ErrRateLimit, "too many messages")
				continue
			}
			if err := s.handleMessage(sess, msg); err != nil {
				sess.sendError(protocol.ErrProtoBadRequest, err.Error())
			}
		}

		// Cleanup.
		cancel()
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		s.loop.Submit(func() { s.terminate(sess.id) })
	}
}

func (s *Server) handshake(conn *websocket.Conn, cancel context.CancelFunc) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = writeJSON(conn, protocol.ErrorMsg{Type: protocol.TypeError, Code: protocol.ErrUnsupportedVersion, Message: hello.ProtocolVersion})
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	if codecs := hello.Capabilities.Codecs; len(codecs) > 0 && !slices.Contains(codecs, s.opts.Codec.Name()) {
		_ = writeJSON(conn, protocol.ErrorMsg{Type: protocol.TypeError, Code: protocol.ErrUnsupportedVersion, Message: "codec " + s.opts.Codec.Name()})
		return nil
	}
	if hello.ViewerName == "" {
		hello.ViewerName = "viewer"
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 || maxQ > s.opts.MaxQueue {
		maxQ = s.opts.MaxQueue
	}
	sess := &session{
		id:     uuid.New(),
		name:   hello.ViewerName,
		out:    make(chan []byte, maxQ),
		cancel: cancel,
		log:    s.log,
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ViewerID:        sess.id.String(),
		Codec:           s.opts.Codec.Name(),
		Compressed:      s.opts.Compressed,
		TickRateHz:      s.opts.TickRateHz,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.logf("viewer %s joined as %q", sess.id, sess.name)
	return sess
}

// terminate runs on the loop goroutine after a connection is gone.
func (s *Server) terminate(viewer uuid.UUID) {
	for _, surf := range s.surfaces {
		if surf.viewer == viewer {
			surf.open = false
		}
	}
	delete(s.cursors, viewer)
	s.mgr.Terminate(viewer)
	// Viewer ids are per connection, so nothing can show these windows again.
	for _, w := range s.mgr.ForViewer(viewer) {
		w.Close(false)
	}
	for id, surf := range s.surfaces {
		if surf.viewer == viewer {
			delete(s.surfaces, id)
		}
	}
	s.logf("viewer %s left", viewer)
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	}
	return nil
}
