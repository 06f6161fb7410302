package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vk/nodegraph/internal/links"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/vk/nodegraph/internal/vars"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ErrNodeNotFound is returned when an id does not resolve to a node.
var ErrNodeNotFound = errors.New("node does not exist")

// Graph is a node list with its link index, id counter and variables.
// It is not safe for concurrent use; the player that runs it owns it.
type Graph struct {
	Name  string
	Links *links.Bimap
	Vars  *vars.Table

	nodes   []node.Node
	index   map[int]node.Node
	nextID  int
	version uint64
}

// New returns an empty graph whose first assigned id is 1.
func New(name string) *Graph {
	return &Graph{
		Name:   name,
		Links:  links.New(),
		Vars:   vars.New(),
		index:  make(map[int]node.Node),
		nextID: 1,
	}
}

// Add assigns the next id to n and appends it.
func (g *Graph) Add(n node.Node) (int, error) {
	if n == nil {
		return 0, errors.New("cannot add a nil node")
	}
	id := g.nextID
	g.nextID++
	n.SetID(id)
	g.nodes = append(g.nodes, n)
	g.index[id] = n
	g.version++
	return id, nil
}

// Insert appends n keeping the id it already carries. The id counter moves
// past it so later Adds never collide.
func (g *Graph) Insert(n node.Node) error {
	if n == nil {
		return errors.New("cannot insert a nil node")
	}
	id := n.ID()
	if id <= 0 {
		return fmt.Errorf("node %s: id must be positive, got %d", n.Kind(), id)
	}
	if _, exists := g.index[id]; exists {
		return fmt.Errorf("node id %d is already in use", id)
	}
	g.nodes = append(g.nodes, n)
	g.index[id] = n
	if id >= g.nextID {
		g.nextID = id + 1
	}
	g.version++
	return nil
}

// Remove deletes node id and every link touching it. It returns the number
// of links removed.
func (g *Graph) Remove(id int) (int, error) {
	if _, ok := g.index[id]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	delete(g.index, id)
	g.nodes = slices.DeleteFunc(g.nodes, func(n node.Node) bool { return n.ID() == id })
	removed := g.Links.RemoveAllWithNode(id)
	g.version++
	return removed, nil
}

// Node resolves an id.
func (g *Graph) Node(id int) (node.Node, error) {
	n, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return n, nil
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []node.Node {
	return slices.Clone(g.nodes)
}

// Len returns the node count.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NextNodeID is the id the next Add will assign.
func (g *Graph) NextNodeID() int {
	return g.nextID
}

// SetNextNodeID restores a persisted counter. It never moves the counter
// backwards.
func (g *Graph) SetNextNodeID(id int) {
	if id > g.nextID {
		g.nextID = id
	}
}

// Version changes whenever the node set, the links or a socket value edited
// through the graph changes. The player rebuilds its entry index on change.
func (g *Graph) Version() uint64 {
	return g.version
}

// Touch bumps Version after an edit made directly on a node or on Links.
func (g *Graph) Touch() {
	g.version++
}

// IsInput resolves the role of s through its owning node.
func (g *Graph) IsInput(s socket.Socket) (bool, error) {
	n, err := g.Node(s.NodeID)
	if err != nil {
		return false, err
	}
	return n.IsInput(s.Field)
}

// Connect links a and b in either order. Endpoints that do not allow
// multiple links lose their existing links first. It reports false when the
// link already existed.
func (g *Graph) Connect(a, b socket.Socket) (bool, error) {
	d, err := links.Orient(g, a, b)
	if err != nil {
		return false, err
	}
	fromDef, err := g.def(d.From)
	if err != nil {
		return false, err
	}
	toDef, err := g.def(d.To)
	if err != nil {
		return false, err
	}
	if err := compatible(fromDef.Type, toDef.Type); err != nil {
		return false, fmt.Errorf("cannot link %s: %w", d, err)
	}
	if slices.Contains(g.Links.HasSocketAsSource(d.From), d.To) {
		return false, nil
	}
	if !fromDef.Flags.Has(socket.AllowMultipleLinks) {
		g.Links.RemoveAllWithSocket(d.From)
	}
	if !toDef.Flags.Has(socket.AllowMultipleLinks) {
		g.Links.RemoveAllWithSocket(d.To)
	}
	added := g.Links.AddDirected(d)
	g.version++
	return added, nil
}

// Disconnect removes the link between a and b.
func (g *Graph) Disconnect(a, b socket.Socket) (bool, error) {
	removed, err := g.Links.Remove(g, a, b)
	if removed {
		g.version++
	}
	return removed, err
}

// SetSocketValue assigns a socket value through the graph so the change is
// versioned.
func (g *Graph) SetSocketValue(s socket.Socket, v cty.Value) error {
	n, err := g.Node(s.NodeID)
	if err != nil {
		return err
	}
	if err := n.SetValue(s.Field, v); err != nil {
		return err
	}
	g.version++
	return nil
}

// Validate reports every structural problem at once: links whose endpoints
// no longer resolve, and data inputs fed by more than one source without
// allowing it.
func (g *Graph) Validate() error {
	var errs []error
	for _, d := range g.Links.Links() {
		for _, s := range []socket.Socket{d.From, d.To} {
			if _, err := g.def(s); err != nil {
				errs = append(errs, fmt.Errorf("link %s: %w", d, err))
			}
		}
	}
	for _, n := range g.nodes {
		for _, def := range n.Defs() {
			if !def.Input || def.IsExec() || def.Flags.Has(socket.AllowMultipleLinks) {
				continue
			}
			s := socket.New(n.ID(), def.Name)
			if srcs := g.Links.HasSocketAsDestination(s); len(srcs) > 1 {
				errs = append(errs, fmt.Errorf("input %s (%s) has %d sources %v, expected at most one", s, n.Kind(), len(srcs), srcs))
			}
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) def(s socket.Socket) (node.Def, error) {
	n, err := g.Node(s.NodeID)
	if err != nil {
		return node.Def{}, err
	}
	return n.Def(s.Field)
}

func compatible(from, to cty.Type) error {
	fromExec, toExec := trigger.IsExec(from), trigger.IsExec(to)
	switch {
	case fromExec && toExec:
		return nil
	case fromExec != toExec:
		return errors.New("exec sockets can only link to exec sockets")
	}
	if from.Equals(to) {
		return nil
	}
	// A nil conversion means the types are unrelated; identical types were
	// handled above since they need no conversion at all.
	if convert.GetConversionUnsafe(from, to) == nil {
		return fmt.Errorf("%s does not convert to %s", from.FriendlyName(), to.FriendlyName())
	}
	return nil
}
