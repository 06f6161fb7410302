/*
Package builder turns a format-agnostic config.Model into a runnable
graph.Graph, using the registry to instantiate node kinds.

Construction runs in phases, and every phase reports errors against the
names used in the graph file:

 1. Variables: each declaration is added to the graph's variable table, with
    its default converted to the declared type.

 2. Nodes: ids are assigned first (persisted ids are kept, the rest are
    numbered after the highest one, in declaration order), then every node is
    created through the registry and its initial socket values are applied.

 3. Links: each link is resolved to sockets and connected. A data input that
    does not allow multiple links may only be linked once; a second source is
    an error rather than a silent replacement.

 4. Validation: the finished graph is checked with graph.Validate.
*/
package builder
