package item

import "github.com/google/uuid"

// Provider produces the stack a given viewer should see.
type Provider interface {
	For(viewer uuid.UUID) *Stack
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(viewer uuid.UUID) *Stack

func (f ProviderFunc) For(viewer uuid.UUID) *Stack { return f(viewer) }

type staticProvider struct{ s *Stack }

func (p staticProvider) For(uuid.UUID) *Stack { return p.s.Clone() }

// Static returns a Provider that shows the same stack to everyone.
func Static(s *Stack) Provider { return staticProvider{s: s.Clone()} }
