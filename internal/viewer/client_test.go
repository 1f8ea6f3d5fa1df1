package viewer

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"windowcraft.ai/internal/adapter"
	"windowcraft.ai/internal/sched"
	"windowcraft.ai/internal/transport/ws"
	"windowcraft.ai/internal/ui/gui"
	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
	"windowcraft.ai/internal/ui/window"
)

func nextEvent(t *testing.T, c *Client) any {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatalf("events closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for an event")
	}
	return nil
}

func TestClientAgainstServer(t *testing.T) {
	loop := sched.New(50, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	chest := inventory.New(uuid.New(), 2)
	_, _ = chest.SetStack(inventory.UpdateReason{}, 0, item.NewStack("EMERALD", 6))
	codec, _ := adapter.Lookup(adapter.BinaryName)

	var srv *ws.Server
	srv = ws.NewServer(loop, window.NewManager(nil), nil, ws.Options{
		Codec:      codec,
		Compressed: true,
		OnJoin: func(viewer uuid.UUID, name string) {
			g := gui.New(2, 1)
			_ = g.SetInventorySlot(0, chest, 0, nil)
			_ = g.SetInventorySlot(1, chest, 1, nil)
			if _, err := srv.OpenWindow(window.Config{Viewer: viewer, Title: name, GUIs: []*gui.GUI{g}, Scheduler: loop}); err != nil {
				t.Errorf("OpenWindow: %v", err)
			}
		},
	})
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dcancel()
	c, err := Dial(dctx, "ws"+strings.TrimPrefix(hs.URL, "http"), "bob")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	if c.Codec() != adapter.BinaryName {
		t.Fatalf("codec = %s", c.Codec())
	}

	open, ok := nextEvent(t, c).(windowOpenMsg)
	if !ok {
		t.Fatalf("first event is not a window open")
	}
	if open.title != "bob" || open.width != 2 || !open.slots[0].Equal(item.NewStack("EMERALD", 6)) {
		t.Fatalf("open = %+v", open)
	}
	if err := c.Opened(open.id); err != nil {
		t.Fatalf("Opened: %v", err)
	}
	if err := c.Click(open.id, 0, item.ClickLeft, nil); err != nil {
		t.Fatalf("Click: %v", err)
	}

	var gotSlot, gotCursor bool
	for !gotSlot || !gotCursor {
		switch ev := nextEvent(t, c).(type) {
		case slotMsg:
			if ev.slot != 0 || ev.stack != nil {
				t.Fatalf("slot = %+v", ev)
			}
			gotSlot = true
		case cursorMsg:
			if !ev.stack.Equal(item.NewStack("EMERALD", 6)) {
				t.Fatalf("cursor = %v", ev.stack)
			}
			gotCursor = true
		}
	}
}
