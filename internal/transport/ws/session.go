package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"windowcraft.ai/internal/protocol"
)

type session struct {
	id     uuid.UUID
	name   string
	out    chan []byte
	cancel context.CancelFunc
	log    *log.Logger

	dropped atomic.Bool

	// Inbound rate window; reader goroutine only.
	windowStart time.Time
	received    int
}

// allow counts one inbound message against a per-second budget.
func (s *session) allow(now time.Time, perSecond int) bool {
	if perSecond <= 0 {
		return true
	}
	if now.Sub(s.windowStart) >= time.Second {
		s.windowStart, s.received = now, 0
	}
	s.received++
	return s.received <= perSecond
}

// send queues v for the writer goroutine. A viewer that cannot keep up is
// disconnected rather than shown a partial screen.
func (s *session) send(v any) {
	if s.dropped.Load() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		if s.log != nil {
			s.log.Printf("viewer %s: marshal %T: %v", s.id, v, err)
		}
		return
	}
	select {
	case s.out <- b:
	default:
		if s.dropped.CompareAndSwap(false, true) {
			if s.log != nil {
				s.log.Printf("viewer %s: send queue full, disconnecting", s.id)
			}
			s.cancel()
		}
	}
}

func (s *session) sendError(code, msg string) {
	s.send(protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: msg})
}
