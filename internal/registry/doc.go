// Package registry is the glue between graph files and Go code.
//
// Modules register node kinds under a path such as "math/add". A kind holds a
// constructor that builds a fresh node from its parameters. Graph loaders
// only ever see paths; they ask the registry to Create nodes and never
// reflect over Go types themselves.
//
// A registry is built once at startup, populated by every module's Register
// method, and then checked with ValidateRegistry so that a broken constructor
// is caught before any graph is loaded.
package registry
