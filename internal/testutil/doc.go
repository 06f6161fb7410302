// Package testutil holds shared test helpers: a concurrency-safe log
// buffer, a logger-carrying context and a harness that loads HCL graphs
// from a temp dir.
package testutil
