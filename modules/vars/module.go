// Package vars provides getter and setter nodes for graph variables. Both
// kinds are dynamic: the variable name is a build parameter and becomes the
// name of the data socket.
//
// Setters write to the trace's variable snapshot, so a write is visible to
// the rest of that trace and its clones but never to other traces.
package vars

import (
	"context"
	"fmt"

	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/zclconf/go-cty/cty"
)

const (
	GetKind = "var/get"
	SetKind = "var/set"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the getter and setter kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(registry.Kind{
		Path:        GetKind,
		Description: "Reads a graph variable.",
		Dynamic:     true,
		New: func(p registry.Params) (node.Node, error) {
			name, err := p.String("name")
			if err != nil {
				return nil, err
			}
			return NewGetter(name)
		},
	})
	r.RegisterKind(registry.Kind{
		Path:        SetKind,
		Description: "Writes a graph variable and continues.",
		Dynamic:     true,
		New: func(p registry.Params) (node.Node, error) {
			name, err := p.String("name")
			if err != nil {
				return nil, err
			}
			return NewSetter(name)
		},
	})
}

// NewGetter returns a node whose output named after the variable holds its
// current value.
func NewGetter(name string) (*node.Dynamic, error) {
	d := node.NewDynamic(GetKind)
	err := d.AddSocket(node.Out(name, cty.DynamicPseudoType).
		WithFlags(socket.AllowMultipleLinks).
		Describe(fmt.Sprintf("The value of %s.", name)))
	if err != nil {
		return nil, err
	}
	d.OnEval(func(ctx context.Context, d *node.Dynamic, sc *scope.Scope) error {
		v, err := sc.Vars.Get(name)
		if err != nil {
			return err
		}
		return d.SetValue(name, v)
	})
	return d, nil
}

// NewSetter returns a node that assigns its input named after the variable
// when exec_in is reached.
func NewSetter(name string) (*node.Dynamic, error) {
	if name == "exec_in" || name == "exec_out" {
		return nil, fmt.Errorf("variable name %q collides with an exec socket", name)
	}
	d := node.NewDynamic(SetKind)
	for _, def := range []node.Def{
		node.ExecIn("exec_in"),
		node.In(name, cty.DynamicPseudoType).WithFlags(socket.Editable).Describe(fmt.Sprintf("The new value of %s.", name)),
		node.ExecOut("exec_out"),
	} {
		if err := d.AddSocket(def); err != nil {
			return nil, err
		}
	}
	err := d.OnExec("exec_in", "exec_out", func(ctx context.Context, d *node.Dynamic, sc *scope.Scope) error {
		v, err := d.Value(name)
		if err != nil {
			return err
		}
		return sc.Vars.Set(name, v)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
