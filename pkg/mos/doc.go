// Package mos defines the device-level value types of the placement
// engine: transistor row specifications, row geometry reported by a
// process technology, extension and edge records exchanged between
// abutting rows, and the Tech oracle interface that a process plug-in
// implements. SimTech is a self-consistent reference implementation
// used by tests and the CLI demo configuration.
package mos
