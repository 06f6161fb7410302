// Package vars holds a graph's named, typed variables.
//
// The graph owns one Table. Every execution trace works on a Snapshot of it,
// so writes made by a trace stay inside that trace.
package vars

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ErrUnknownVariable is returned for a name that was never declared.
var ErrUnknownVariable = errors.New("unknown variable")

// Variable is one named slot. Value always conforms to Type.
type Variable struct {
	Name        string
	Type        cty.Type
	Value       cty.Value
	Description string
}

// Table is an ordered set of variables keyed by name.
type Table struct {
	order []string
	vars  map[string]*Variable
}

// New returns an empty table.
func New() *Table {
	return &Table{vars: make(map[string]*Variable)}
}

// Declare adds a variable. A nil-valued value (cty.NilVal) starts as null of
// the declared type; any other value is converted to the declared type.
func (t *Table) Declare(name string, ty cty.Type, value cty.Value, description string) error {
	if name == "" {
		return errors.New("variable name cannot be empty")
	}
	if _, exists := t.vars[name]; exists {
		return fmt.Errorf("variable %q declared more than once", name)
	}
	if ty == cty.NilType {
		ty = cty.DynamicPseudoType
	}
	v, err := conform(name, ty, value)
	if err != nil {
		return err
	}
	t.order = append(t.order, name)
	t.vars[name] = &Variable{Name: name, Type: ty, Value: v, Description: description}
	return nil
}

// Get returns the current value of name.
func (t *Table) Get(name string) (cty.Value, error) {
	v, ok := t.vars[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return v.Value, nil
}

// Lookup returns the variable record for name.
func (t *Table) Lookup(name string) (Variable, bool) {
	v, ok := t.vars[name]
	if !ok {
		return Variable{}, false
	}
	return *v, true
}

// Set converts value to the declared type and stores it.
func (t *Table) Set(name string, value cty.Value) error {
	v, ok := t.vars[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	conv, err := conform(name, v.Type, value)
	if err != nil {
		return err
	}
	v.Value = conv
	return nil
}

// Names returns variable names in declaration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of declared variables.
func (t *Table) Len() int {
	return len(t.order)
}

// Snapshot returns an independent copy. cty values are immutable, so copying
// the records is a full deep copy.
func (t *Table) Snapshot() *Table {
	out := &Table{
		order: make([]string, len(t.order)),
		vars:  make(map[string]*Variable, len(t.vars)),
	}
	copy(out.order, t.order)
	for name, v := range t.vars {
		cp := *v
		out.vars[name] = &cp
	}
	return out
}

// Object renders the table as a cty object, used as `var.<name>` when
// evaluating graph files.
func (t *Table) Object() cty.Value {
	if len(t.vars) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(t.vars))
	for name, v := range t.vars {
		attrs[name] = v.Value
	}
	return cty.ObjectVal(attrs)
}

func conform(name string, ty cty.Type, value cty.Value) (cty.Value, error) {
	if value == cty.NilVal {
		return cty.NullVal(ty), nil
	}
	conv, err := convert.Convert(value, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("variable %q expects %s: %w", name, ty.FriendlyName(), err)
	}
	return conv, nil
}
