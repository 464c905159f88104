// Package app wires the tracker's dependencies for the server and the
// maintenance CLI.
//
// It opens the database and cache, builds the repositories, clients and
// application services from config.Config, and exposes them through the
// Wire struct so both binaries share one dependency graph.
package app
