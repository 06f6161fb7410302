// Package exec provides the control-flow nodes: trigger entry points,
// branches, gates, loops and waits.
package exec

import (
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers every control-flow kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(fixed(EntryKind, "Starts execution when the selected trigger fires.", func() node.Node { return NewEntry() }))
	r.RegisterKind(fixed(IfKind, "Continues through true or false depending on the condition.", func() node.Node { return NewIf() }))
	r.RegisterKind(fixed(GateKind, "Lets the signal through only while the gate is open.", func() node.Node { return NewGate() }))
	r.RegisterKind(fixed(WhileKind, "Repeats its body while the condition holds.", func() node.Node { return NewWhile() }))
	r.RegisterKind(fixed(WaitForSecondsKind, "Waits before continuing.", func() node.Node { return NewWaitForSeconds() }))
	r.RegisterKind(fixed(NextTickKind, "Continues on the next tick.", func() node.Node { return NewNextTick() }))
}

func fixed(path, desc string, fn func() node.Node) registry.Kind {
	return registry.Kind{
		Path:        path,
		Description: desc,
		New:         func(registry.Params) (node.Node, error) { return fn(), nil },
	}
}
