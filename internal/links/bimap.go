package links

import (
	"fmt"
	"slices"

	"github.com/vk/nodegraph/internal/socket"
)

// RoleResolver tells the index which end of a pair is the input. The graph
// implements it by looking up the owning node; an unknown node surfaces as
// an error from the resolver.
type RoleResolver interface {
	IsInput(s socket.Socket) (bool, error)
}

// Bimap is the link index. The ordered list of directed links is
// authoritative; the from and to maps are lookups derived from it and are
// rewritten together with it on every mutation.
//
// A Bimap is not safe for concurrent use. The engine owns it on a single
// goroutine.
type Bimap struct {
	links []socket.Directed
	from  map[socket.Socket][]socket.Socket
	to    map[socket.Socket][]socket.Socket
}

// New returns an empty index.
func New() *Bimap {
	return &Bimap{
		from: make(map[socket.Socket][]socket.Socket),
		to:   make(map[socket.Socket][]socket.Socket),
	}
}

// Orient turns an unordered pair into (output, input) using r.
func Orient(r RoleResolver, a, b socket.Socket) (socket.Directed, error) {
	if a == b {
		return socket.Directed{}, fmt.Errorf("%w: %s", socket.ErrSelfLink, a)
	}
	aIn, err := r.IsInput(a)
	if err != nil {
		return socket.Directed{}, err
	}
	bIn, err := r.IsInput(b)
	if err != nil {
		return socket.Directed{}, err
	}
	if aIn == bIn {
		role := "output"
		if aIn {
			role = "input"
		}
		return socket.Directed{}, fmt.Errorf("cannot link %s and %s: both are %ss", a, b, role)
	}
	if aIn {
		return socket.Directed{From: b, To: a}, nil
	}
	return socket.Directed{From: a, To: b}, nil
}

// Add records the link between a and b. It returns false without changing
// anything when the link already exists.
func (m *Bimap) Add(r RoleResolver, a, b socket.Socket) (bool, error) {
	d, err := Orient(r, a, b)
	if err != nil {
		return false, err
	}
	return m.AddDirected(d), nil
}

// AddDirected inserts an already oriented link. It is idempotent.
func (m *Bimap) AddDirected(d socket.Directed) bool {
	if m.containsDirected(d) {
		return false
	}
	m.links = append(m.links, d)
	m.from[d.From] = append(m.from[d.From], d.To)
	m.to[d.To] = append(m.to[d.To], d.From)
	return true
}

// Remove deletes the link between a and b and reports whether it existed.
func (m *Bimap) Remove(r RoleResolver, a, b socket.Socket) (bool, error) {
	d, err := Orient(r, a, b)
	if err != nil {
		return false, err
	}
	idx := slices.Index(m.links, d)
	if idx < 0 {
		return false, nil
	}
	m.links = slices.Delete(m.links, idx, idx+1)
	m.from[d.From] = deleteFirst(m.from[d.From], d.To)
	if len(m.from[d.From]) == 0 {
		delete(m.from, d.From)
	}
	m.to[d.To] = deleteFirst(m.to[d.To], d.From)
	if len(m.to[d.To]) == 0 {
		delete(m.to, d.To)
	}
	return true, nil
}

// RemoveAllWithSocket drops every link touching s and returns how many went.
func (m *Bimap) RemoveAllWithSocket(s socket.Socket) int {
	return m.removeWhere(func(d socket.Directed) bool {
		return d.From == s || d.To == s
	})
}

// RemoveAllWithNode drops every link touching any socket of node id.
func (m *Bimap) RemoveAllWithNode(id int) int {
	return m.removeWhere(func(d socket.Directed) bool {
		return d.From.NodeID == id || d.To.NodeID == id
	})
}

// Contains reports whether the pair is linked in either order.
func (m *Bimap) Contains(r RoleResolver, a, b socket.Socket) (bool, error) {
	d, err := Orient(r, a, b)
	if err != nil {
		return false, err
	}
	return m.containsDirected(d), nil
}

// HasSocketAsSource returns the destinations fed by output s, in insertion
// order. The result is never nil and is safe to keep across mutations.
func (m *Bimap) HasSocketAsSource(s socket.Socket) []socket.Socket {
	return cloneOrEmpty(m.from[s])
}

// HasSocketAsDestination returns the sources feeding input s, in insertion
// order. The result is never nil and is safe to keep across mutations.
func (m *Bimap) HasSocketAsDestination(s socket.Socket) []socket.Socket {
	return cloneOrEmpty(m.to[s])
}

// IsSocketLinkedTo reports whether output s has at least one destination.
func (m *Bimap) IsSocketLinkedTo(s socket.Socket) bool {
	return len(m.from[s]) > 0
}

// IsSocketLinkedFrom reports whether input s has at least one source.
func (m *Bimap) IsSocketLinkedFrom(s socket.Socket) bool {
	return len(m.to[s]) > 0
}

// Links returns a copy of the authoritative link list.
func (m *Bimap) Links() []socket.Directed {
	return slices.Clone(m.links)
}

// Len returns the number of links.
func (m *Bimap) Len() int {
	return len(m.links)
}

// Verify rebuilds both lookup maps from the list and reports the first
// divergence. A healthy index always returns nil.
func (m *Bimap) Verify() error {
	from := make(map[socket.Socket][]socket.Socket)
	to := make(map[socket.Socket][]socket.Socket)
	for _, d := range m.links {
		from[d.From] = append(from[d.From], d.To)
		to[d.To] = append(to[d.To], d.From)
	}
	if err := sameIndex("from", from, m.from); err != nil {
		return err
	}
	return sameIndex("to", to, m.to)
}

func (m *Bimap) containsDirected(d socket.Directed) bool {
	return slices.Contains(m.from[d.From], d.To)
}

func (m *Bimap) removeWhere(match func(socket.Directed) bool) int {
	kept := m.links[:0]
	removed := 0
	for _, d := range m.links {
		if match(d) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	if removed == 0 {
		return 0
	}
	clear(m.links[len(kept):])
	m.links = kept
	m.rebuild()
	return removed
}

func (m *Bimap) rebuild() {
	m.from = make(map[socket.Socket][]socket.Socket, len(m.from))
	m.to = make(map[socket.Socket][]socket.Socket, len(m.to))
	for _, d := range m.links {
		m.from[d.From] = append(m.from[d.From], d.To)
		m.to[d.To] = append(m.to[d.To], d.From)
	}
}

func deleteFirst(list []socket.Socket, s socket.Socket) []socket.Socket {
	if idx := slices.Index(list, s); idx >= 0 {
		return slices.Delete(list, idx, idx+1)
	}
	return list
}

func cloneOrEmpty(list []socket.Socket) []socket.Socket {
	if len(list) == 0 {
		return []socket.Socket{}
	}
	return slices.Clone(list)
}

func sameIndex(name string, want, got map[socket.Socket][]socket.Socket) error {
	if len(want) != len(got) {
		return fmt.Errorf("%s index has %d keys, link list implies %d", name, len(got), len(want))
	}
	for k, w := range want {
		if !slices.Equal(w, got[k]) {
			return fmt.Errorf("%s index for %s is %v, link list implies %v", name, k, got[k], w)
		}
	}
	return nil
}
