package policy

import (
	"context"
	"sync"
)

// Membership answers whether an actor belongs to an audience, e.g. the
// members of a review channel.
type Membership interface {
	IsMember(ctx context.Context, audience, actor string) (bool, error)
}

// MembershipFunc adapts a function to Membership.
type MembershipFunc func(ctx context.Context, audience, actor string) (bool, error)

// IsMember calls fn.
func (fn MembershipFunc) IsMember(ctx context.Context, audience, actor string) (bool, error) {
	return fn(ctx, audience, actor)
}

// StaticMembership is an in-memory Membership; it can be changed at runtime.
type StaticMembership struct {
	mux     sync.RWMutex
	members map[string]map[string]bool
}

// IsMember reports whether actor was added to audience.
func (m *StaticMembership) IsMember(_ context.Context, audience, actor string) (bool, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.members[audience][actor], nil
}

// Add registers actors as members of audience.
func (m *StaticMembership) Add(audience string, actors ...string) {
	m.mux.Lock()
	defer m.mux.Unlock()
	set, ok := m.members[audience]
	if !ok {
		set = map[string]bool{}
		m.members[audience] = set
	}
	for _, actor := range actors {
		set[actor] = true
	}
}

// Remove drops actor from audience.
func (m *StaticMembership) Remove(audience, actor string) {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.members[audience], actor)
}

// NewStaticMembership creates an empty membership.
func NewStaticMembership() *StaticMembership {
	return &StaticMembership{members: map[string]map[string]bool{}}
}
