package node

import (
	"github.com/vk/nodegraph/internal/socket"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/zclconf/go-cty/cty"
)

// Def declares one socket of a node.
type Def struct {
	Name        string
	Description string
	Type        cty.Type
	Input       bool
	Flags       socket.Flags
	// Default is the initial value. cty.NilVal means null of Type.
	Default cty.Value
}

// In declares an input socket.
func In(name string, ty cty.Type) Def {
	return Def{Name: name, Type: ty, Input: true}
}

// Out declares an output socket.
func Out(name string, ty cty.Type) Def {
	return Def{Name: name, Type: ty}
}

// ExecIn declares an exec input. Control flow may merge into it from
// several outputs.
func ExecIn(name string) Def {
	return In(name, trigger.Type).WithFlags(socket.AllowMultipleLinks)
}

// ExecOut declares an exec output. Exec outputs fan out, so they allow
// multiple links.
func ExecOut(name string) Def {
	return Out(name, trigger.Type).WithFlags(socket.AllowMultipleLinks)
}

// WithFlags returns a copy of d with f added.
func (d Def) WithFlags(f socket.Flags) Def {
	d.Flags |= f
	return d
}

// WithDefault returns a copy of d with a default value.
func (d Def) WithDefault(v cty.Value) Def {
	d.Default = v
	return d
}

// Describe returns a copy of d with a description.
func (d Def) Describe(s string) Def {
	d.Description = s
	return d
}

// IsExec reports whether d is an exec socket.
func (d Def) IsExec() bool {
	return trigger.IsExec(d.Type)
}
