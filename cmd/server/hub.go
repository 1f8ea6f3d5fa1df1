package main

import (
	"embed"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"windowcraft.ai/internal/layout"
	"windowcraft.ai/internal/sched"
	"windowcraft.ai/internal/transport/ws"
	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
	"windowcraft.ai/internal/ui/window"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

func builtinLayouts() (map[string]*layout.Layout, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	out := map[string]*layout.Layout{}
	for _, e := range entries {
		raw, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			return nil, err
		}
		l, err := layout.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out[l.Name] = l
	}
	return out, nil
}

// hub owns the shared leaves every viewer's screens are built from.
// All methods run on the loop goroutine.
type hub struct {
	loop    *sched.Scheduler
	srv     *ws.Server
	mgr     *window.Manager
	log     *log.Logger
	layouts map[string]*layout.Layout
	env     layout.Env

	clicks int
}

var artworkTypes = []string{
	"PAINTING", "MAP", "BANNER", "BOOK", "COMPASS", "CLOCK", "SPYGLASS",
	"AMETHYST", "EMERALD", "DIAMOND", "GOLD_INGOT", "IRON_INGOT", "COPPER_INGOT",
	"LAPIS", "QUARTZ", "PRISMARINE", "SHULKER_SHELL", "NAUTILUS_SHELL",
}

func newHub(loop *sched.Scheduler, mgr *window.Manager, layouts map[string]*layout.Layout, logger *log.Logger) (*hub, error) {
	h := &hub{loop: loop, mgr: mgr, log: logger, layouts: layouts}

	chest := inventory.New(uuid.New(), 27)
	seed := []*item.Stack{
		item.NewStack("DIAMOND", 16),
		item.NewStack("EMERALD", 32),
		item.NewStack("GOLD_INGOT", 64),
	}
	for i, st := range seed {
		applied, err := chest.SetStack(inventory.UpdateReason{}, i, st)
		if err != nil {
			return nil, fmt.Errorf("seed chest slot %d: %w", i, err)
		}
		if !applied {
			return nil, fmt.Errorf("seed chest slot %d: refused", i)
		}
	}

	clock, _ := item.AutoUpdate(loop, loop.TickRateHz(), func() item.Provider {
		s := item.NewStack("CLOCK", 1)
		s.Name = time.Now().Format("15:04:05")
		return item.Static(s)
	})

	counter := item.New(item.ProviderFunc(func(uuid.UUID) *item.Stack {
		s := item.NewStack("LEVER", 1)
		s.Name = fmt.Sprintf("Clicked %d times", h.clicks)
		return s
	}), item.OnClick(func(it *item.Item, c item.Click) {
		h.clicks++
		it.NotifyWindows()
	}))

	artworks := make([]*item.Item, 0, len(artworkTypes))
	for i, typ := range artworkTypes {
		s := item.NewStack(typ, 1)
		s.Name = fmt.Sprintf("Artwork #%d", i+1)
		artworks = append(artworks, item.New(item.Static(s)))
	}

	h.env = layout.Env{
		Inventories: map[string]*inventory.Inventory{"chest": chest},
		Items: map[string]*item.Item{
			"clock":        clock,
			"counter":      counter,
			"open_chest":   h.link("chest", "CHEST", "Shared chest"),
			"open_gallery": h.link("gallery", "PAINTING", "Gallery"),
			"open_menu":    h.link("menu", "BARRIER", "Back to menu"),
		},
		ItemLists: map[string][]*item.Item{"artworks": artworks},
	}
	return h, nil
}

// link is a button that swaps the viewer's screen for another layout.
func (h *hub) link(target, typ, name string) *item.Item {
	s := item.NewStack(typ, 1)
	s.Name = name
	return item.New(item.Static(s), item.OnClick(func(_ *item.Item, c item.Click) {
		// The clicked window is still handling the click; swap on the next step.
		h.loop.RunTask(func() {
			if err := h.open(c.Viewer, target); err != nil {
				h.log.Printf("open %s for %s: %v", target, c.Viewer, err)
			}
		})
	}))
}

func (h *hub) open(viewer uuid.UUID, name string) error {
	l, ok := h.layouts[name]
	if !ok {
		return fmt.Errorf("%w: layout %q", layout.ErrUnknownRef, name)
	}
	screen, err := layout.Build(l, h.env)
	if err != nil {
		return err
	}
	// Screens are rebuilt on every open, so the old ones are done for good.
	for _, w := range h.mgr.ForViewer(viewer) {
		w.Close(true)
	}
	_, err = h.srv.OpenWindow(screen.WindowConfig(window.Config{Viewer: viewer, Scheduler: h.loop}))
	return err
}
