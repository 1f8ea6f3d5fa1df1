package gui

import (
	"fmt"

	"github.com/google/uuid"

	"windowcraft.ai/internal/ui/item"
)

// PageSource supplies the elements shown on each page.
type PageSource interface {
	PageCount(slotsPerPage int) int
	PageElements(page, slotsPerPage int) []SlotElement
}

// ItemPages pages through a flat list of items.
type ItemPages struct {
	Items []*item.Item
}

func (p ItemPages) PageCount(per int) int {
	if per <= 0 {
		return 0
	}
	return (len(p.Items) + per - 1) / per
}

func (p ItemPages) PageElements(page, per int) []SlotElement {
	if page < 0 || per <= 0 {
		return nil
	}
	start := page * per
	if start >= len(p.Items) {
		return nil
	}
	end := min(start+per, len(p.Items))
	out := make([]SlotElement, 0, end-start)
	for _, it := range p.Items[start:end] {
		out = append(out, ItemElement{Item: it})
	}
	return out
}

// NestedPages shows one GUI per page, linked cell by cell.
type NestedPages struct {
	GUIs []*GUI
}

func (p NestedPages) PageCount(int) int { return len(p.GUIs) }

func (p NestedPages) PageElements(page, per int) []SlotElement {
	if page < 0 || page >= len(p.GUIs) {
		return nil
	}
	g := p.GUIs[page]
	n := min(per, g.Size())
	out := make([]SlotElement, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, LinkTo(g, i))
	}
	return out
}

// Paged is a GUI whose content slots show one page of a PageSource.
type Paged struct {
	*GUI

	infinite     bool
	contentSlots []int
	current      int
	source       PageSource
	controls     []*item.Item
	onChange     []func(previous, now int)
}

// NewPaged validates the content slots and renders page 0.
func NewPaged(width, height int, infinite bool, contentSlots []int, src PageSource) (*Paged, error) {
	g := New(width, height)
	for _, s := range contentSlots {
		if s < 0 || s >= g.Size() {
			return nil, fmt.Errorf("%w: content slot %d", ErrIndexOutOfRange, s)
		}
	}
	p := &Paged{
		GUI:          g,
		infinite:     infinite,
		contentSlots: append([]int(nil), contentSlots...),
		source:       src,
	}
	p.update()
	return p, nil
}

func (p *Paged) CurrentPage() int    { return p.current }
func (p *Paged) Infinite() bool      { return p.infinite }
func (p *Paged) ContentSlots() []int { return append([]int(nil), p.contentSlots...) }

func (p *Paged) PageCount() int {
	if p.source == nil {
		return 0
	}
	return p.source.PageCount(len(p.contentSlots))
}

// SetSource swaps the page content and re-clamps the current page.
func (p *Paged) SetSource(src PageSource) {
	p.source = src
	p.SetPage(p.current)
}

// OnPageChange registers a hook run after the clamped page changed.
func (p *Paged) OnPageChange(fn func(previous, now int)) {
	p.onChange = append(p.onChange, fn)
}

// AddControl registers an item redrawn on every page update.
func (p *Paged) AddControl(it *item.Item) { p.controls = append(p.controls, it) }

func (p *Paged) SetPage(page int) {
	previous := p.current
	p.current = page
	p.update()
	if previous != p.current {
		for _, fn := range p.onChange {
			fn(previous, p.current)
		}
	}
}

func (p *Paged) HasNextPage() bool { return p.infinite || p.current < p.PageCount()-1 }
func (p *Paged) HasPageBefore() bool { return p.current > 0 }

func (p *Paged) GoForward() {
	if p.HasNextPage() {
		p.SetPage(p.current + 1)
	}
}

func (p *Paged) GoBack() {
	if p.HasPageBefore() {
		p.SetPage(p.current - 1)
	}
}

func (p *Paged) update() {
	p.correctPage()
	for _, it := range p.controls {
		it.NotifyWindows()
	}
	p.updateContent()
}

func (p *Paged) correctPage() {
	if p.current < 0 {
		p.current = 0
	}
	if p.infinite || p.current == 0 {
		return
	}
	count := p.PageCount()
	switch {
	case count <= 0:
		p.current = 0
	case p.current >= count:
		p.current = count - 1
	}
}

func (p *Paged) updateContent() {
	var elems []SlotElement
	if p.source != nil {
		elems = p.source.PageElements(p.current, len(p.contentSlots))
	}
	for i, slot := range p.contentSlots {
		if i < len(elems) {
			_ = p.SetSlotElement(slot, elems[i])
		} else {
			_ = p.Remove(slot)
		}
	}
}

// PageControl builds a forward or back button for p. look renders the button
// from the current paging state; a left click turns the page.
func PageControl(p *Paged, forward bool, look func(p *Paged) *item.Stack) *item.Item {
	it := item.New(item.ProviderFunc(func(uuid.UUID) *item.Stack { return look(p) }),
		item.OnClick(func(_ *item.Item, c item.Click) {
			if c.Kind != item.ClickLeft {
				return
			}
			if forward {
				p.GoForward()
			} else {
				p.GoBack()
			}
		}))
	p.AddControl(it)
	return it
}
