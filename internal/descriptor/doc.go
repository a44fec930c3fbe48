// Package descriptor holds the ahead-of-time description of a mirrored API.
//
// A generation step introspects the target API once and emits a tree of
// Specs (CUE or YAML). Build flattens that tree into a Table: an arena of
// Entries addressed by Ref. Mirror nodes hold Refs, never live objects, so
// one Table can be shared read-only by any number of trees and goroutines.
//
// Entry 0 is the global scope. Its members are the library roots.
package descriptor
