package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. Omitted optional attributes decode to zero-width placeholder
// expressions, so a nil check is not enough; a real attribute occupies bytes
// in the file.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}

// evalObject evaluates expr, which must produce an object or map, into a map
// keyed by attribute name. An omitted expression yields nil.
func evalObject(ctx context.Context, expr hcl.Expression, attrName string, evalCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return nil, nil
	}
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", attrName, diags)
	}
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("%s at %s must be an object, got %s", attrName, expr.Range(), ty.FriendlyName())
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("%s at %s must be known at load time", attrName, expr.Range())
	}
	out := make(map[string]cty.Value, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		k, val := it.Element()
		out[k.AsString()] = val
	}
	return out, nil
}

// socketRef decodes a traversal of the form node.<name>.<socket>.
func socketRef(expr hcl.Expression, attrName string) (config.SocketRef, error) {
	trav, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return config.SocketRef{}, fmt.Errorf("%s must be a reference like node.<name>.<socket>: %w", attrName, diags)
	}
	if trav.RootName() != "node" || len(trav) != 3 {
		return config.SocketRef{}, fmt.Errorf("%s at %s must have the form node.<name>.<socket>", attrName, expr.Range())
	}
	var parts [2]string
	for i, step := range trav[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			return config.SocketRef{}, fmt.Errorf("%s at %s must use attribute access, not an index", attrName, expr.Range())
		}
		parts[i] = attr.Name
	}
	return config.SocketRef{Node: parts[0], Field: parts[1]}, nil
}
