package config

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific graph loader.
type Loader interface {
	// Load reads every graph file under paths and merges them into one
	// format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model is the unified, format-agnostic representation of one graph.
type Model struct {
	Name      string
	Variables []*Variable
	Nodes     []*Node
	Links     []*Link
	// NextNodeID, when positive, is the first id handed to nodes added
	// after loading.
	NextNodeID int
}

// Variable declares one graph variable.
type Variable struct {
	Name        string
	Type        cty.Type
	Default     cty.Value
	Description string
}

// Node places one node of a registered kind.
type Node struct {
	Name string
	Kind string
	// ID is the persisted node id. Zero means "assign one".
	ID     int
	Params map[string]cty.Value
	Values map[string]cty.Value
}

// SocketRef names a socket by node name and field.
type SocketRef struct {
	Node  string
	Field string
}

func (r SocketRef) String() string {
	return fmt.Sprintf("node.%s.%s", r.Node, r.Field)
}

// Link connects two sockets. From and To are as written; the builder orients
// them by role.
type Link struct {
	From SocketRef
	To   SocketRef
}

// Node returns the node named name.
func (m *Model) Node(name string) (*Node, bool) {
	for _, n := range m.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}
