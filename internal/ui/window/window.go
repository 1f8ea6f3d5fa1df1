// Package window is the synchronization engine between the composition graph
// and a viewer's rendering surface. A Window flattens an ordered list of GUIs
// into raw slots, keeps a cache of the holding element shown at every slot and
// registers itself with exactly the leaves that cache references.
package window

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"windowcraft.ai/internal/sched"
	"windowcraft.ai/internal/ui/gui"
	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
)

var (
	ErrWindowClosed  = errors.New("window: closed")
	ErrViewerOffline = errors.New("window: viewer offline")
	ErrUnknownWindow = errors.New("window: unknown window")
	ErrNoGUI         = errors.New("window: no GUI to show")
	ErrNoSurface     = errors.New("window: no surface")
	ErrLowerGUISize  = errors.New("window: lower GUI must be 9x4")
)

// SlotMetaKey is stamped on every rendered item stack with the raw slot, so
// identical items in two slots never merge on the viewer side.
const SlotMetaKey = "slot"

// Surface is the native rendering surface behind one window.
type Surface interface {
	SetSlot(index int, s *item.Stack)
	SetCursor(viewer uuid.UUID, s *item.Stack)
	SetTitle(title string)
	// Open shows the surface to viewer. The host reports the result back as an OpenEvent.
	Open(viewer uuid.UUID, title string) error
	Close(viewer uuid.UUID)
	// Viewers lists who currently has the surface open.
	Viewers() []uuid.UUID
}

// Players answers whether a viewer is reachable.
type Players interface {
	Online(viewer uuid.UUID) bool
}

// Deferrer runs work on the next cooperative step.
type Deferrer interface {
	RunTask(fn func()) *sched.Task
}

type Config struct {
	Viewer uuid.UUID
	Title  string
	GUIs   []*gui.GUI
	// Modal windows cannot be dismissed by the viewer; a close is answered by
	// re-opening the surface on the next step.
	Modal bool
	// RemoveOnClose fully closes the window when the viewer closes it.
	RemoveOnClose bool

	Surface   Surface
	Players   Players
	Scheduler Deferrer
	Manager   *Manager
	Logger    *log.Logger
}

type section struct {
	gui    *gui.GUI
	offset int
}

var lastID atomic.Uint64

type closeHandler struct {
	id int
	fn func()
}

type Window struct {
	id     uint64
	viewer uuid.UUID
	title  string

	sections  []section
	displayed []gui.Holding
	// dragging holds the raw slots of the drag being applied, if any.
	dragging map[int]bool

	surface Surface
	players Players
	sched   Deferrer
	mgr     *Manager
	log     *log.Logger

	closeable     bool
	removeOnClose bool
	closed        bool

	handlers      []closeHandler
	nextHandlerID int
}

// New composes cfg.GUIs in order, registers the window with its manager and
// paints every slot.
func New(cfg Config) (*Window, error) {
	if len(cfg.GUIs) == 0 {
		return nil, ErrNoGUI
	}
	if cfg.Surface == nil {
		return nil, ErrNoSurface
	}
	w := &Window{
		id:            lastID.Add(1),
		viewer:        cfg.Viewer,
		title:         cfg.Title,
		surface:       cfg.Surface,
		players:       cfg.Players,
		sched:         cfg.Scheduler,
		mgr:           cfg.Manager,
		log:           cfg.Logger,
		closeable:     !cfg.Modal,
		removeOnClose: cfg.RemoveOnClose,
	}
	if w.log == nil && w.mgr != nil {
		w.log = w.mgr.log
	}
	size := 0
	for _, g := range cfg.GUIs {
		if g == nil {
			return nil, fmt.Errorf("%w: nil GUI", ErrNoGUI)
		}
		w.sections = append(w.sections, section{gui: g, offset: size})
		size += g.Size()
	}
	w.displayed = make([]gui.Holding, size)
	for _, s := range w.sections {
		s.gui.AddParent(w)
	}
	if w.mgr != nil {
		w.mgr.Add(w)
	}
	for i := 0; i < size; i++ {
		w.redrawSlot(i, true)
	}
	return w, nil
}

// NewSplit shows upper above a 9x4 lower GUI that covers the viewer's own
// inventory. See LowerIndex for how viewer inventory slots map onto lower.
func NewSplit(cfg Config, upper, lower *gui.GUI) (*Window, error) {
	if lower == nil || lower.Width() != 9 || lower.Height() != 4 {
		return nil, ErrLowerGUISize
	}
	cfg.GUIs = []*gui.GUI{upper, lower}
	return New(cfg)
}

// LowerIndex maps a viewer inventory slot (0-8 hotbar, 9-35 storage) to the
// lower GUI of a split window, where the hotbar is the bottom row.
func LowerIndex(playerSlot int) int {
	switch {
	case playerSlot < 0 || playerSlot >= 36:
		return -1
	case playerSlot < 9:
		return 27 + playerSlot
	default:
		return playerSlot - 9
	}
}

func (w *Window) ID() uint64         { return w.id }
func (w *Window) ListenerID() uint64 { return w.id }
func (w *Window) Size() int          { return len(w.displayed) }
func (w *Window) Title() string      { return w.title }
func (w *Window) IsClosed() bool     { return w.closed }
func (w *Window) IsCloseable() bool  { return w.closeable }

func (w *Window) GUIs() []*gui.GUI {
	out := make([]*gui.GUI, len(w.sections))
	for i, s := range w.sections {
		out[i] = s.gui
	}
	return out
}

// Displayed returns the holding element cached for a raw slot.
func (w *Window) Displayed(index int) gui.Holding {
	if index < 0 || index >= len(w.displayed) {
		return nil
	}
	return w.displayed[index]
}

func (w *Window) logf(format string, args ...any) {
	if w.log != nil {
		w.log.Printf("window %d: "+format, append([]any{w.id}, args...)...)
	}
}

// guiAt finds the GUI owning a raw slot and the local index inside it.
func (w *Window) guiAt(raw int) (*gui.GUI, int, bool) {
	for _, s := range w.sections {
		if raw >= s.offset && raw < s.offset+s.gui.Size() {
			return s.gui, raw - s.offset, true
		}
	}
	return nil, 0, false
}

func (w *Window) redrawSlot(index int, updateCache bool) {
	g, local, ok := w.guiAt(index)
	if !ok {
		return
	}
	h := gui.Resolve(g.SlotElement(local))

	var s *item.Stack
	if h != nil {
		s = h.StackFor(w.viewer)
	}
	if s.IsEmpty() {
		s = g.Representation(local, w.viewer)
	} else if _, isItem := h.(gui.ItemElement); isItem {
		s = stampSlot(s, index)
	}
	w.surface.SetSlot(index, s)

	if !updateCache {
		return
	}
	prev := w.displayed[index]
	w.displayed[index] = h
	if prev != nil && !w.references(prev.Leaf()) {
		w.deregister(prev.Leaf())
	}
	if h != nil {
		w.register(h.Leaf())
	}
}

func stampSlot(s *item.Stack, index int) *item.Stack {
	c := s.Clone()
	if c.Meta == nil {
		c.Meta = map[string]string{}
	}
	c.Meta[SlotMetaKey] = strconv.Itoa(index)
	return c
}

func unstamp(s *item.Stack) *item.Stack {
	if s == nil || s.Meta[SlotMetaKey] == "" {
		return s
	}
	c := s.Clone()
	delete(c.Meta, SlotMetaKey)
	if len(c.Meta) == 0 {
		c.Meta = nil
	}
	return c
}

func (w *Window) references(leaf any) bool {
	for _, h := range w.displayed {
		if h != nil && h.Leaf() == leaf {
			return true
		}
	}
	return false
}

func (w *Window) register(leaf any) {
	switch l := leaf.(type) {
	case *item.Item:
		l.AddWindow(w)
	case *inventory.Inventory:
		l.AddWindow(w)
	}
}

func (w *Window) deregister(leaf any) {
	switch l := leaf.(type) {
	case *item.Item:
		l.RemoveWindow(w)
	case *inventory.Inventory:
		l.RemoveWindow(w)
	}
}

// HandleSlotElementUpdate redraws the raw slots showing child's cell.
func (w *Window) HandleSlotElementUpdate(child *gui.GUI, index int) {
	if w.closed {
		return
	}
	for _, s := range w.sections {
		if s.gui == child {
			w.redrawSlot(s.offset+index, true)
		}
	}
}

func (w *Window) HandleItemUpdate(it *item.Item) {
	w.redrawLeaf(it)
}

// HandleInventoryUpdate redraws the slots showing inv, except the raw slots
// of a drag in progress through this window, whose surface mirrors them.
func (w *Window) HandleInventoryUpdate(inv *inventory.Inventory, reason inventory.UpdateReason) {
	if w.closed {
		return
	}
	mirrored := reason.Window == w.id && reason.Mirrored
	for i, h := range w.displayed {
		if h == nil || h.Leaf() != inv {
			continue
		}
		// Raw slots being dragged already show the new stack; other raw
		// slots bound to the same inventory slot do not.
		if mirrored && w.dragging[i] {
			continue
		}
		w.redrawSlot(i, false)
	}
}

func (w *Window) redrawLeaf(leaf any) {
	if w.closed {
		return
	}
	for i, h := range w.displayed {
		if h != nil && h.Leaf() == leaf {
			w.redrawSlot(i, false)
		}
	}
}

// Show opens the surface for the designated viewer.
func (w *Window) Show() error {
	if w.closed {
		return ErrWindowClosed
	}
	if w.players == nil || !w.players.Online(w.viewer) {
		return fmt.Errorf("%w: %s", ErrViewerOffline, w.viewer)
	}
	if err := w.surface.Open(w.viewer, w.title); err != nil {
		return fmt.Errorf("open surface: %w", err)
	}
	return nil
}

// Close moves the window to CLOSED: it leaves the manager, every leaf and
// every GUI. With closeSurface the viewer's surface is closed too; the window
// is already gone by then, so close handlers do not run. A second call does
// nothing.
func (w *Window) Close(closeSurface bool) {
	if w.closed {
		return
	}
	w.closed = true
	if w.mgr != nil {
		w.mgr.Remove(w)
	}
	for i, h := range w.displayed {
		if h != nil {
			w.deregister(h.Leaf())
		}
		w.displayed[i] = nil
	}
	for _, s := range w.sections {
		s.gui.RemoveParent(w)
	}
	if !closeSurface {
		return
	}
	if viewer, ok := w.CurrentViewer(); ok {
		w.surface.Close(viewer)
	}
}

// CloseForViewer hides the surface and makes the window closeable. The close
// is handled like one the viewer made, so close handlers run and a
// remove-on-close window is fully closed; otherwise it stays OPEN and may be
// shown again.
func (w *Window) CloseForViewer() {
	w.closeable = true
	viewer, ok := w.CurrentViewer()
	if !ok {
		return
	}
	w.surface.Close(viewer)
	w.HandleClose(viewer)
}

// HandleOpen accepts an open only for the designated viewer.
func (w *Window) HandleOpen(viewer uuid.UUID) bool {
	return !w.closed && viewer == w.viewer
}

// HandleClose reacts to the viewer closing the surface.
func (w *Window) HandleClose(viewer uuid.UUID) {
	if w.closeable {
		if w.removeOnClose {
			w.Close(false)
		}
		for _, h := range slices.Clone(w.handlers) {
			h.fn()
		}
		return
	}
	if viewer != w.viewer || w.sched == nil {
		return
	}
	w.sched.RunTask(func() {
		if w.closed {
			return
		}
		if err := w.Show(); err != nil {
			w.logf("re-show: %v", err)
		}
	})
}

// HandleViewerTerminated treats a lost viewer as a forced close: even a
// modal window runs its close handlers since it cannot be shown again.
func (w *Window) HandleViewerTerminated(viewer uuid.UUID) {
	if viewer != w.viewer {
		return
	}
	w.closeable = true
	w.HandleClose(viewer)
}

// HandleClick forwards a permitted click to the leaf under the slot and
// returns the viewer's cursor afterwards.
func (w *Window) HandleClick(ev ClickEvent) Result {
	res := Result{Cancelled: true, Cursor: ev.Cursor}
	if w.closed {
		return res
	}
	g, local, ok := w.guiAt(ev.Slot)
	if !ok {
		return res
	}
	reason := inventory.UpdateReason{Viewer: ev.Viewer, Window: w.id}
	c := item.Click{Kind: ev.Kind, Viewer: ev.Viewer, Slot: local, Hotbar: ev.Hotbar, Cursor: ev.Cursor}
	if !g.QueryClick(reason, local, c) {
		return res
	}

	switch h := gui.Resolve(g.SlotElement(local)).(type) {
	case gui.ItemElement:
		h.Item.HandleClick(c)
	case gui.InventoryElement:
		if ev.Kind.IsShift() {
			return res
		}
		current := h.Inventory.Stack(h.Slot)
		limit := h.Inventory.MaxStackAt(h.Slot, firstNonEmpty(ev.Cursor, current))
		slot, cursor, changed := inventory.ApplyClick(ev.Kind, current, ev.Cursor, limit)
		if !changed {
			return res
		}
		applied, err := h.Inventory.SetStack(reason, h.Slot, slot)
		if err != nil {
			w.logf("click slot %d: %v", ev.Slot, err)
			return res
		}
		if !applied {
			return res
		}
		res.Cursor = cursor
		w.surface.SetCursor(ev.Viewer, cursor)
	}
	res.Cancelled = false
	return res
}

// HandleDrag settles a drag the surface already painted. The cursor left
// afterwards is derived from OldCursor, not taken from the event. A drag
// whose proposed stacks could not have come out of OldCursor is refused as a
// whole. Otherwise accepted inventory slots take the proposed stack and
// every rejected slot refunds proposed-previous to the cursor. All touched
// slots are redrawn from the model on the next step. It returns the
// corrected cursor.
func (w *Window) HandleDrag(ev DragEvent) *item.Stack {
	old := unstamp(ev.OldCursor)
	raws := make([]int, 0, len(ev.NewStacks))
	for raw := range ev.NewStacks {
		raws = append(raws, raw)
	}
	slices.Sort(raws)

	type cell struct {
		raw, local        int
		g                 *gui.GUI
		h                 gui.Holding
		current, proposed *item.Stack
	}
	cells := make([]cell, 0, len(raws))
	spent, valid := 0, true
	for _, raw := range raws {
		g, local, ok := w.guiAt(raw)
		if !ok {
			continue
		}
		c := cell{raw: raw, local: local, g: g, h: gui.Resolve(g.SlotElement(local)), proposed: unstamp(ev.NewStacks[raw])}
		if c.h != nil {
			c.current = unstamp(c.h.StackFor(ev.Viewer))
		}
		inc, ok := dragIncrease(old, c.current, c.proposed)
		spent += inc
		valid = valid && ok
		cells = append(cells, c)
	}
	valid = valid && spent <= item.AmountOf(old)

	left := item.AmountOf(old)
	if valid && !w.closed {
		left -= spent
		w.dragging = make(map[int]bool, len(cells))
		for _, c := range cells {
			w.dragging[c.raw] = true
		}
		reason := inventory.UpdateReason{Viewer: ev.Viewer, Window: w.id, Mirrored: true}
		for _, c := range cells {
			accepted := c.g.QueryDrag(reason, c.local, c.current, c.proposed)
			if ie, isInv := c.h.(gui.InventoryElement); accepted && isInv {
				applied, err := ie.Inventory.SetStack(reason, ie.Slot, c.proposed)
				if err != nil {
					w.logf("drag slot %d: %v", c.raw, err)
				}
				accepted = err == nil && applied
			} else {
				accepted = false
			}
			if !accepted {
				left += item.AmountOf(c.proposed) - item.AmountOf(c.current)
			}
		}
		w.dragging = nil
	} else if !valid {
		w.logf("drag from %s refused: proposes %d from a cursor of %d", ev.Viewer, spent, item.AmountOf(old))
	}

	if w.sched != nil {
		w.sched.RunTask(func() {
			if w.closed {
				return
			}
			for _, raw := range raws {
				if _, _, ok := w.guiAt(raw); ok {
					w.redrawSlot(raw, false)
				}
			}
		})
	}

	cursor := old.WithAmount(left)
	w.surface.SetCursor(ev.Viewer, cursor)
	return cursor
}

// dragIncrease is how much of old a proposed stack takes on top of current.
// It reports false when proposed is not a plausible result of dragging old.
func dragIncrease(old, current, proposed *item.Stack) (int, bool) {
	if proposed.IsEmpty() {
		return 0, current.IsEmpty()
	}
	if !proposed.Similar(old) || (!current.IsEmpty() && !current.Similar(proposed)) {
		return 0, false
	}
	inc := proposed.Amount - item.AmountOf(current)
	return inc, inc >= 0
}

// HandleItemShift moves a stack from the viewer's own inventory into the
// window's inventory slots: similar stacks first, then empty slots, each
// slot subject to the owning GUI's drag policy. It returns what did not fit.
func (w *Window) HandleItemShift(ev ItemShiftEvent) *item.Stack {
	s := ev.Stack
	if w.closed || s.IsEmpty() {
		return s
	}
	left := s.Amount
	reason := inventory.UpdateReason{Viewer: ev.Viewer, Window: w.id}
	for pass := 0; pass < 2 && left > 0; pass++ {
		for raw := range w.displayed {
			if left == 0 {
				break
			}
			g, local, _ := w.guiAt(raw)
			ie, ok := w.displayed[raw].(gui.InventoryElement)
			if !ok {
				continue
			}
			current := ie.Inventory.Stack(ie.Slot)
			if pass == 0 && !current.Similar(s) || pass == 1 && !current.IsEmpty() {
				continue
			}
			have := item.AmountOf(current)
			n := min(ie.Inventory.MaxStackAt(ie.Slot, s)-have, left)
			if n <= 0 {
				continue
			}
			proposed := s.WithAmount(have + n)
			if !g.QueryDrag(reason, local, current, proposed) {
				continue
			}
			if applied, err := ie.Inventory.SetStack(reason, ie.Slot, proposed); err == nil && applied {
				left -= n
			}
		}
	}
	return s.WithAmount(left)
}

// HandleCursorCollect gathers stacks similar to the cursor from the window's
// inventory slots. It is refused when the window shows a similar stack that
// is not backed by an inventory, so GUI items can never be collected.
func (w *Window) HandleCursorCollect(ev CursorCollectEvent) Result {
	res := Result{Cancelled: true, Cursor: ev.Cursor}
	cursor := unstamp(ev.Cursor)
	if w.closed || cursor.IsEmpty() {
		return res
	}
	for _, h := range w.displayed {
		if ie, ok := h.(gui.ItemElement); ok && ie.StackFor(ev.Viewer).Similar(cursor) {
			return res
		}
	}

	reason := inventory.UpdateReason{Viewer: ev.Viewer, Window: w.id}
	amount := cursor.Amount
	for raw, h := range w.displayed {
		if amount >= cursor.Max() {
			break
		}
		ie, ok := h.(gui.InventoryElement)
		if !ok {
			continue
		}
		current := ie.Inventory.Stack(ie.Slot)
		if !current.Similar(cursor) {
			continue
		}
		g, local, _ := w.guiAt(raw)
		n := min(cursor.Max()-amount, current.Amount)
		rest := current.WithAmount(current.Amount - n)
		if !g.QueryDrag(reason, local, current, rest) {
			continue
		}
		if applied, err := ie.Inventory.SetStack(reason, ie.Slot, rest); err == nil && applied {
			amount += n
		}
	}
	res.Cancelled = false
	res.Cursor = cursor.WithAmount(amount)
	w.surface.SetCursor(ev.Viewer, res.Cursor)
	return res
}

func (w *Window) ChangeTitle(title string) error {
	if w.closed {
		return ErrWindowClosed
	}
	w.title = title
	if _, ok := w.CurrentViewer(); ok {
		w.surface.SetTitle(title)
	}
	return nil
}

func (w *Window) SetCloseable(closeable bool) {
	if !w.closed {
		w.closeable = closeable
	}
}

// AddCloseHandler registers fn to run whenever the viewer closes the window.
// The returned func removes it.
func (w *Window) AddCloseHandler(fn func()) (remove func()) {
	w.nextHandlerID++
	id := w.nextHandlerID
	w.handlers = append(w.handlers, closeHandler{id: id, fn: fn})
	return func() {
		w.handlers = slices.DeleteFunc(w.handlers, func(h closeHandler) bool { return h.id == id })
	}
}

// CurrentViewer returns the viewer only while the surface is open for them.
func (w *Window) CurrentViewer() (uuid.UUID, bool) {
	for _, v := range w.surface.Viewers() {
		if v == w.viewer {
			return v, true
		}
	}
	return uuid.Nil, false
}

// DesignatedViewer returns the viewer fixed at construction, ok only while online.
func (w *Window) DesignatedViewer() (uuid.UUID, bool) {
	if w.players == nil || !w.players.Online(w.viewer) {
		return w.viewer, false
	}
	return w.viewer, true
}

// ViewerID is the designated viewer regardless of presence.
func (w *Window) ViewerID() uuid.UUID { return w.viewer }

func firstNonEmpty(stacks ...*item.Stack) *item.Stack {
	for _, s := range stacks {
		if !s.IsEmpty() {
			return s
		}
	}
	return nil
}
