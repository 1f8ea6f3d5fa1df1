package item

import (
	"slices"
	"strconv"
	"strings"
)

// DefaultMaxStack bounds merges when a stack does not carry its own limit.
const DefaultMaxStack = 64

// Stack is the visual and logical representation of one slot. A nil *Stack is
// an empty slot; every helper here accepts nil.
type Stack struct {
	Type     string            `json:"type"`
	Amount   int               `json:"amount"`
	Name     string            `json:"name,omitempty"`
	Lore     []string          `json:"lore,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
	MaxStack int               `json:"max_stack,omitempty"`
}

func NewStack(typ string, amount int) *Stack {
	if typ == "" || amount <= 0 {
		return nil
	}
	return &Stack{Type: typ, Amount: amount}
}

// IsEmpty treats nil, typeless and non-positive stacks as empty.
func (s *Stack) IsEmpty() bool {
	return s == nil || s.Type == "" || s.Amount <= 0
}

func (s *Stack) Clone() *Stack {
	if s == nil {
		return nil
	}
	c := *s
	if s.Lore != nil {
		c.Lore = slices.Clone(s.Lore)
	}
	if s.Meta != nil {
		c.Meta = make(map[string]string, len(s.Meta))
		for k, v := range s.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}

// WithAmount returns a copy holding n items, or nil when n <= 0.
func (s *Stack) WithAmount(n int) *Stack {
	if s.IsEmpty() || n <= 0 {
		return nil
	}
	c := s.Clone()
	c.Amount = n
	return c
}

// Max is the per-stack limit.
func (s *Stack) Max() int {
	if s == nil || s.MaxStack <= 0 {
		return DefaultMaxStack
	}
	return s.MaxStack
}

// Similar reports whether two stacks could merge: everything but Amount matches.
func (s *Stack) Similar(o *Stack) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return false
	}
	if s.Type != o.Type || s.Name != o.Name || s.Max() != o.Max() {
		return false
	}
	if !slices.Equal(s.Lore, o.Lore) || len(s.Meta) != len(o.Meta) {
		return false
	}
	for k, v := range s.Meta {
		if ov, ok := o.Meta[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Equal is Similar plus matching amounts; two empty stacks are equal.
func (s *Stack) Equal(o *Stack) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return s.IsEmpty() == o.IsEmpty()
	}
	return s.Amount == o.Amount && s.Similar(o)
}

// AmountOf returns the item count, 0 for empty stacks.
func AmountOf(s *Stack) int {
	if s.IsEmpty() {
		return 0
	}
	return s.Amount
}

func (s *Stack) String() string {
	if s.IsEmpty() {
		return "<empty>"
	}
	var b strings.Builder
	b.WriteString(s.Type)
	b.WriteString(" x")
	b.WriteString(strconv.Itoa(s.Amount))
	if s.Name != "" {
		b.WriteString(" \"")
		b.WriteString(s.Name)
		b.WriteString("\"")
	}
	return b.String()
}
