package env_vars

import (
	"context"
	"os"

	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/registry"
	"github.com/vk/nodegraph/internal/scope"
	"github.com/vk/nodegraph/internal/socket"
	"github.com/zclconf/go-cty/cty"
)

const Kind = "env/lookup"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Lookup reads one environment variable of the host process.
type Lookup struct {
	node.Base
	lookup func(string) (string, bool)
}

func New() *Lookup {
	return &Lookup{
		Base: node.NewBase(Kind,
			node.In("key", cty.String).WithFlags(socket.Editable).Describe("The variable name."),
			node.Out("value", cty.String).WithFlags(socket.AllowMultipleLinks).Describe("Its value, empty when unset."),
			node.Out("found", cty.Bool).WithFlags(socket.AllowMultipleLinks).Describe("True if the variable is set."),
		),
		lookup: os.LookupEnv,
	}
}

func (l *Lookup) Eval(ctx context.Context, sc *scope.Scope) error {
	key, err := l.Text("key")
	if err != nil {
		return err
	}
	val, found := "", false
	if key != "" {
		val, found = l.lookup(key)
	}
	if err := l.Set("value", val); err != nil {
		return err
	}
	return l.Set("found", found)
}

// Register registers the env/lookup kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(registry.Kind{
		Path:        Kind,
		Description: "Reads an environment variable.",
		New:         func(registry.Params) (node.Node, error) { return New(), nil },
	})
}
