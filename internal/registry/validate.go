package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/node"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/zclconf/go-cty/cty"
)

// ValidateRegistry instantiates every parameterless kind once and checks
// that its sockets are well formed: exec sockets are typed as exec, data
// sockets have a known type, and default values match their socket type.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, path := range r.Paths() {
		k := r.kinds[path]
		if k.Dynamic {
			logger.Debug("Skipping dynamic node kind during validation.", "path", path)
			continue
		}

		n, err := r.tryCreate(path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("kind '%s': %v", path, err))
			continue
		}

		for _, def := range n.Defs() {
			switch {
			case def.Type == cty.NilType:
				errs = append(errs, fmt.Sprintf("kind '%s', socket '%s': no type", path, def.Name))
			case def.Type.IsCapsuleType() && !trigger.IsExec(def.Type):
				errs = append(errs, fmt.Sprintf("kind '%s', socket '%s': capsule type %s is not the exec type", path, def.Name, def.Type.FriendlyName()))
			case def.Type.Equals(cty.DynamicPseudoType):
				logger.Debug("Node kind has a socket with 'type = any', which disables link type checking.", "path", path, "socket", def.Name)
			}

			v, err := n.Value(def.Name)
			if err != nil {
				errs = append(errs, fmt.Sprintf("kind '%s', socket '%s': %v", path, def.Name, err))
				continue
			}
			if !def.Type.Equals(cty.DynamicPseudoType) && !v.Type().Equals(def.Type) {
				errs = append(errs, fmt.Sprintf("kind '%s', socket '%s': value of type '%s' does not match declared '%s'",
					path, def.Name, v.Type().FriendlyName(), def.Type.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// tryCreate is Create with constructor panics, such as a duplicate socket
// name, turned into errors.
func (r *Registry) tryCreate(path string) (n node.Node, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("constructor panicked: %v", rec)
		}
	}()
	return r.Create(path, nil)
}
