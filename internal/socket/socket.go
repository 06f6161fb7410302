package socket

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSelfLink is returned when both ends of a link name the same socket.
var ErrSelfLink = errors.New("a socket cannot be linked to itself")

// Socket addresses one named port on one node. It is a plain value: two
// sockets are the same socket exactly when both fields are equal, which
// makes it usable as a map key.
type Socket struct {
	NodeID int
	Field  string
}

// New is a small convenience constructor.
func New(nodeID int, field string) Socket {
	return Socket{NodeID: nodeID, Field: field}
}

// String renders the socket as "<node_id>.<field>".
func (s Socket) String() string {
	return fmt.Sprintf("%d.%s", s.NodeID, s.Field)
}

// IsZero reports whether the socket is the zero value.
func (s Socket) IsZero() bool {
	return s.NodeID == 0 && s.Field == ""
}

// Flags are per-socket policy bits consulted by graph editing.
type Flags uint8

const (
	// AllowMultipleLinks lets a socket keep more than one link. Without it,
	// connecting the socket evicts its existing links first.
	AllowMultipleLinks Flags = 1 << iota
	// Editable marks a socket whose value may be set by the graph author.
	Editable
)

// Has reports whether every bit of want is set.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(AllowMultipleLinks) {
		parts = append(parts, "allow_multiple_links")
	}
	if f.Has(Editable) {
		parts = append(parts, "editable")
	}
	return strings.Join(parts, "|")
}

// Link is an unordered pair of sockets as supplied by an editor. The link
// index orients it into (source output, destination input) on insertion.
type Link struct {
	A Socket
	B Socket
}

// NewLink builds a link and rejects a socket linked to itself.
func NewLink(a, b Socket) (Link, error) {
	if a == b {
		return Link{}, fmt.Errorf("%w: %s", ErrSelfLink, a)
	}
	return Link{A: a, B: b}, nil
}

func (l Link) String() string {
	return fmt.Sprintf("%s <-> %s", l.A, l.B)
}

// Directed is a link oriented from an output socket to an input socket.
type Directed struct {
	From Socket
	To   Socket
}

func (d Directed) String() string {
	return fmt.Sprintf("%s -> %s", d.From, d.To)
}
