// Package config defines the format-agnostic model of a graph file and the
// Loader interface that format-specific packages implement.
//
// The Model only names things: node kinds by registry path, nodes by their
// file-local name, sockets by field. Turning it into a runnable graph is the
// builder's job.
package config
