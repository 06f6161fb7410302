// Package integration_tests runs whole graphs, loaded from HCL with the
// stock node modules, through the player.
package integration_tests
