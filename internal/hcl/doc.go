// Package hcl loads graph files written in HCL into the format-agnostic
// config.Model.
//
// A graph file holds four kinds of top-level blocks:
//
//   - **graph:** optional name and next_node_id.
//   - **variable "name":** a typed graph variable with an optional default.
//   - **node "name":** a node of a registered kind, with optional id, build
//     params and initial socket values.
//   - **link:** from and to, each a traversal of the form
//     node.<name>.<socket>.
//
// Socket values and params are evaluated with two objects in scope: var,
// holding every variable's default, and trigger, holding the trigger kinds
// (trigger.on_update) used to select entry points.
package hcl
