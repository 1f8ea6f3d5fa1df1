package gui

import (
	"errors"
	"fmt"
	"strings"

	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
)

var ErrNoStructure = errors.New("gui: no structure set")

// ContentMarker marks the cells a Paged GUI fills with page content.
var ContentMarker = Marker{Name: "content"}

// Structure is a parsed layout: one rune per cell, row-major.
type Structure struct {
	width, height int
	keys          []rune
}

// ParseStructure reads rows of ingredient keys. Spaces are ignored so rows
// can be written "# . . #".
func ParseStructure(rows ...string) (*Structure, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("structure: no rows")
	}
	s := &Structure{height: len(rows)}
	for y, row := range rows {
		keys := []rune(strings.ReplaceAll(row, " ", ""))
		if y == 0 {
			s.width = len(keys)
		}
		if len(keys) == 0 || len(keys) != s.width {
			return nil, fmt.Errorf("structure: row %d has width %d, want %d", y, len(keys), s.width)
		}
		s.keys = append(s.keys, keys...)
	}
	return s, nil
}

func (s *Structure) Width() int  { return s.width }
func (s *Structure) Height() int { return s.height }

// Slots returns every index holding key, in row-major order.
func (s *Structure) Slots(key rune) []int {
	var out []int
	for i, k := range s.keys {
		if k == key {
			out = append(out, i)
		}
	}
	return out
}

// Builder assembles a GUI from a Structure and per-key ingredients.
// Keys without an ingredient stay empty.
type Builder struct {
	structure   *Structure
	err         error
	ingredients map[rune]func() SlotElement
	background  item.Provider
}

func NewBuilder() *Builder {
	return &Builder{ingredients: map[rune]func() SlotElement{}}
}

func (b *Builder) Structure(rows ...string) *Builder {
	b.structure, b.err = ParseStructure(rows...)
	return b
}

// Ingredient places the same element in every cell with key.
func (b *Builder) Ingredient(key rune, e SlotElement) *Builder {
	b.ingredients[key] = func() SlotElement { return e }
	return b
}

// IngredientFunc calls fn once per cell with key.
func (b *Builder) IngredientFunc(key rune, fn func() SlotElement) *Builder {
	b.ingredients[key] = fn
	return b
}

// Item places a static, non-interactive stack.
func (b *Builder) Item(key rune, s *item.Stack) *Builder {
	return b.IngredientFunc(key, func() SlotElement { return ItemElement{Item: item.New(item.Static(s))} })
}

// Inventory consumes consecutive inventory slots across the cells with key.
func (b *Builder) Inventory(key rune, inv *inventory.Inventory, background item.Provider) *Builder {
	next := 0
	return b.IngredientFunc(key, func() SlotElement {
		if next >= inv.Size() {
			return nil
		}
		e := InventoryElement{Inventory: inv, Slot: next, Background: background}
		next++
		return e
	})
}

func (b *Builder) Background(p item.Provider) *Builder {
	b.background = p
	return b
}

func (b *Builder) Build() (*GUI, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	g := New(b.structure.width, b.structure.height)
	if err := b.fill(g); err != nil {
		return nil, err
	}
	return g, nil
}

// BuildPaged uses the cells marked with contentKey as content slots.
func (b *Builder) BuildPaged(contentKey rune, infinite bool, src PageSource) (*Paged, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	content := b.structure.Slots(contentKey)
	p, err := NewPaged(b.structure.width, b.structure.height, infinite, content, nil)
	if err != nil {
		return nil, err
	}
	if err := b.fill(p.GUI); err != nil {
		return nil, err
	}
	for _, s := range content {
		_ = p.SetSlotElement(s, ContentMarker)
	}
	p.SetSource(src)
	return p, nil
}

func (b *Builder) check() error {
	if b.err != nil {
		return b.err
	}
	if b.structure == nil {
		return ErrNoStructure
	}
	return nil
}

func (b *Builder) fill(g *GUI) error {
	g.background = b.background
	for i, k := range b.structure.keys {
		fn, ok := b.ingredients[k]
		if !ok {
			continue
		}
		if err := g.SetSlotElement(i, fn()); err != nil {
			return fmt.Errorf("structure key %q: %w", k, err)
		}
	}
	return nil
}
