package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Graph     *graphBlock      `hcl:"graph,block"`
	Variables []*variableBlock `hcl:"variable,block"`
	Nodes     []*nodeBlock     `hcl:"node,block"`
	Links     []*linkBlock     `hcl:"link,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type graphBlock struct {
	Name       string `hcl:"name,optional"`
	NextNodeID *int   `hcl:"next_node_id,optional"`
}

type variableBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

type nodeBlock struct {
	Name   string         `hcl:"name,label"`
	Kind   string         `hcl:"kind"`
	ID     *int           `hcl:"id,optional"`
	Params hcl.Expression `hcl:"params,optional"`
	Values hcl.Expression `hcl:"values,optional"`
}

type linkBlock struct {
	From hcl.Expression `hcl:"from"`
	To   hcl.Expression `hcl:"to"`
}
