package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/fsutil"
	"github.com/vk/nodegraph/internal/trigger"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL graph loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// decoded keeps the raw blocks of every file until variables are known, so
// values may refer to any variable regardless of file order.
type decoded struct {
	file string
	root fileRoot
}

// Load parses every .hcl file under paths, in lexical order, and merges
// them into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl graph files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var all []decoded
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		all = append(all, decoded{file: file, root: root})
	}
	return l.translate(ctx, all)
}

func (l *Loader) translate(ctx context.Context, all []decoded) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &config.Model{}

	seenVars := make(map[string]string)
	for _, d := range all {
		if g := d.root.Graph; g != nil {
			if g.Name != "" {
				if model.Name != "" && model.Name != g.Name {
					return nil, fmt.Errorf("%s: graph name %q conflicts with %q", d.file, g.Name, model.Name)
				}
				model.Name = g.Name
			}
			if g.NextNodeID != nil {
				model.NextNodeID = *g.NextNodeID
			}
		}
		for _, vb := range d.root.Variables {
			if prev, dup := seenVars[vb.Name]; dup {
				return nil, fmt.Errorf("%s: variable %q already declared in %s", d.file, vb.Name, prev)
			}
			seenVars[vb.Name] = d.file
			v, err := translateVariable(ctx, vb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", d.file, err)
			}
			model.Variables = append(model.Variables, v)
		}
	}

	evalCtx := evalContext(model.Variables)

	seenNodes := make(map[string]string)
	for _, d := range all {
		for _, nb := range d.root.Nodes {
			if prev, dup := seenNodes[nb.Name]; dup {
				return nil, fmt.Errorf("%s: node %q already declared in %s", d.file, nb.Name, prev)
			}
			seenNodes[nb.Name] = d.file
			n, err := translateNode(ctx, nb, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", d.file, err)
			}
			model.Nodes = append(model.Nodes, n)
		}
	}

	for _, d := range all {
		for _, lb := range d.root.Links {
			from, err := socketRef(lb.From, "from")
			if err != nil {
				return nil, fmt.Errorf("%s: link: %w", d.file, err)
			}
			to, err := socketRef(lb.To, "to")
			if err != nil {
				return nil, fmt.Errorf("%s: link: %w", d.file, err)
			}
			model.Links = append(model.Links, &config.Link{From: from, To: to})
		}
	}

	logger.Debug("HCL loading complete.", "graph", model.Name, "variables", len(model.Variables), "nodes", len(model.Nodes), "links", len(model.Links))
	return model, nil
}

func translateVariable(ctx context.Context, vb *variableBlock) (*config.Variable, error) {
	ty, err := typeExprToCtyType(ctx, vb.Type)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
	}
	def := cty.NullVal(ty)
	if isExprDefined(ctx, vb.Default, "default") {
		v, diags := vb.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for variable %q: %w", vb.Name, diags)
		}
		def = v
	}
	return &config.Variable{Name: vb.Name, Type: ty, Default: def, Description: vb.Description}, nil
}

func translateNode(ctx context.Context, nb *nodeBlock, evalCtx *hcl.EvalContext) (*config.Node, error) {
	n := &config.Node{Name: nb.Name, Kind: nb.Kind}
	if nb.ID != nil {
		if *nb.ID <= 0 {
			return nil, fmt.Errorf("node %q: id must be positive, got %d", nb.Name, *nb.ID)
		}
		n.ID = *nb.ID
	}
	var err error
	if n.Params, err = evalObject(ctx, nb.Params, "params", evalCtx); err != nil {
		return nil, fmt.Errorf("node %q: %w", nb.Name, err)
	}
	if n.Values, err = evalObject(ctx, nb.Values, "values", evalCtx); err != nil {
		return nil, fmt.Errorf("node %q: %w", nb.Name, err)
	}
	return n, nil
}

// evalContext exposes var.<name> (each variable's default) and
// trigger.<kind>.
func evalContext(vars []*config.Variable) *hcl.EvalContext {
	attrs := make(map[string]cty.Value, len(vars))
	for _, v := range vars {
		attrs[v.Name] = v.Default
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var":     cty.ObjectVal(attrs),
			"trigger": trigger.Object(),
		},
	}
}
