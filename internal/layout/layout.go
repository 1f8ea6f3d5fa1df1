// Package layout loads screen layouts from YAML. A layout is validated
// against an embedded JSON Schema and then built with gui.Builder.
package layout

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"windowcraft.ai/internal/ui/gui"
	"windowcraft.ai/internal/ui/inventory"
	"windowcraft.ai/internal/ui/item"
	"windowcraft.ai/internal/ui/window"
)

//go:embed layout.schema.json
var schemaSrc string

var schema = jsonschema.MustCompileString("layout.schema.json", schemaSrc)

var ErrUnknownRef = errors.New("layout: unknown reference")

type Stack struct {
	Type     string   `yaml:"type"`
	Amount   int      `yaml:"amount"`
	Name     string   `yaml:"name"`
	Lore     []string `yaml:"lore"`
	MaxStack int      `yaml:"max_stack"`
}

func (s *Stack) stack() *item.Stack {
	if s == nil {
		return nil
	}
	amount := s.Amount
	if amount == 0 {
		amount = 1
	}
	st := item.NewStack(s.Type, amount)
	if st == nil {
		return nil
	}
	st.Name = s.Name
	st.Lore = s.Lore
	st.MaxStack = s.MaxStack
	return st
}

func (s *Stack) provider() item.Provider {
	if s == nil {
		return nil
	}
	return item.Static(s.stack())
}

type Ingredient struct {
	Stack      *Stack `yaml:"stack"`
	Inactive   *Stack `yaml:"inactive"`
	Item       string `yaml:"item"`
	Inventory  string `yaml:"inventory"`
	Background *Stack `yaml:"background"`
	Control    string `yaml:"control"`
	Marker     string `yaml:"marker"`
}

type Paged struct {
	Content  string `yaml:"content"`
	Items    string `yaml:"items"`
	Infinite bool   `yaml:"infinite"`
}

type Layout struct {
	Name          string                `yaml:"name"`
	Title         string                `yaml:"title"`
	Closeable     *bool                 `yaml:"closeable"`
	RemoveOnClose bool                  `yaml:"remove_on_close"`
	Structure     []string              `yaml:"structure"`
	Background    *Stack                `yaml:"background"`
	Ingredients   map[string]Ingredient `yaml:"ingredients"`
	Paged         *Paged                `yaml:"paged"`
}

// Parse validates raw YAML and decodes it.
func Parse(raw []byte) (*Layout, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	// The validator expects encoding/json values.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("layout is not JSON compatible: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if _, err := gui.ParseStructure(l.Structure...); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadDir reads every *.yaml and *.yml file in dir, keyed by layout name.
func LoadDir(dir string) (map[string]*Layout, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := map[string]*Layout{}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		l, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if _, dup := out[l.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate layout %q", e.Name(), l.Name)
		}
		out[l.Name] = l
	}
	return out, nil
}

// Names returns the layout names sorted.
func Names(ls map[string]*Layout) []string {
	out := make([]string, 0, len(ls))
	for n := range ls {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Env resolves the named things a layout refers to.
type Env struct {
	Inventories map[string]*inventory.Inventory
	Items       map[string]*item.Item
	ItemLists   map[string][]*item.Item
}

// Screen is a built layout ready to be put into a window.
type Screen struct {
	Name  string
	GUI   *gui.GUI
	Paged *gui.Paged

	title         string
	modal         bool
	removeOnClose bool
}

// WindowConfig fills the layout-owned parts of a window config.
func (s *Screen) WindowConfig(cfg window.Config) window.Config {
	cfg.Title = s.title
	cfg.GUIs = []*gui.GUI{s.GUI}
	cfg.Modal = s.modal
	cfg.RemoveOnClose = s.removeOnClose
	return cfg
}

// Build creates a fresh GUI for l. Every call yields independent page state.
func Build(l *Layout, env Env) (*Screen, error) {
	b := gui.NewBuilder().Structure(l.Structure...).Background(l.Background.provider())

	var controls []rune
	keys := make([]string, 0, len(l.Ingredients))
	for k := range l.Ingredients {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ing := l.Ingredients[k]
		key := []rune(k)[0]
		switch {
		case ing.Control != "":
			if l.Paged == nil {
				return nil, fmt.Errorf("key %q: control without paged section", k)
			}
			controls = append(controls, key)
		case ing.Stack != nil:
			b.Item(key, ing.Stack.stack())
		case ing.Item != "":
			it, ok := env.Items[ing.Item]
			if !ok {
				return nil, fmt.Errorf("%w: item %q", ErrUnknownRef, ing.Item)
			}
			b.Ingredient(key, gui.ItemElement{Item: it})
		case ing.Inventory != "":
			inv, ok := env.Inventories[ing.Inventory]
			if !ok {
				return nil, fmt.Errorf("%w: inventory %q", ErrUnknownRef, ing.Inventory)
			}
			b.Inventory(key, inv, ing.Background.provider())
		case ing.Marker != "":
			b.Ingredient(key, gui.Marker{Name: ing.Marker})
		}
	}

	screen := &Screen{
		Name:          l.Name,
		title:         l.Title,
		modal:         l.Closeable != nil && !*l.Closeable,
		removeOnClose: l.RemoveOnClose,
	}
	if l.Paged == nil {
		g, err := b.Build()
		if err != nil {
			return nil, err
		}
		screen.GUI = g
		return screen, nil
	}

	list, ok := env.ItemLists[l.Paged.Items]
	if !ok {
		return nil, fmt.Errorf("%w: item list %q", ErrUnknownRef, l.Paged.Items)
	}
	p, err := b.BuildPaged([]rune(l.Paged.Content)[0], l.Paged.Infinite, gui.ItemPages{Items: list})
	if err != nil {
		return nil, err
	}
	structure, _ := gui.ParseStructure(l.Structure...)
	for _, key := range controls {
		ing := l.Ingredients[string(key)]
		forward := ing.Control == "forward"
		look := controlLook(forward, ing.Stack.stack(), ing.Inactive.stack())
		for _, slot := range structure.Slots(key) {
			if err := p.SetItem(slot, gui.PageControl(p, forward, look)); err != nil {
				return nil, err
			}
		}
	}
	screen.GUI = p.GUI
	screen.Paged = p
	return screen, nil
}

// controlLook shows active while the page can turn, inactive otherwise.
// The active stack's name gets the target page number appended.
func controlLook(forward bool, active, inactive *item.Stack) func(*gui.Paged) *item.Stack {
	return func(p *gui.Paged) *item.Stack {
		can, target := p.HasPageBefore(), p.CurrentPage()
		if forward {
			can, target = p.HasNextPage(), p.CurrentPage()+2
		}
		if !can || active == nil {
			return inactive.Clone()
		}
		s := active.Clone()
		if s.Name != "" {
			s.Name = strings.TrimSpace(s.Name) + " (" + strconv.Itoa(target) + ")"
		}
		return s
	}
}
