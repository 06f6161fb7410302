// Package node defines the contract between the engine and node
// implementations, and the two reusable variants nodes are built from.
//
// A node exposes named sockets. Each socket has a role (input or output), a
// cty type, policy flags and a current value. Exec sockets use the capsule
// type from the trigger package and carry no data; everything else is a data
// socket.
//
//   - **Base:** fixed shape. Sockets are declared once in the constructor and
//     the embedding type supplies Eval and Exec.
//   - **Dynamic:** shape and behavior assembled at build time from socket
//     definitions and Invoke bindings, used for nodes generated per graph
//     variable.
//
// Nodes never hold references to the graph or to other nodes. Everything
// they learn about their neighbors arrives through their input values and
// the scope.
package node
