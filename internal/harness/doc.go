// Package harness runs mirror scenarios described in YAML.
//
// A scenario names a descriptor file and a destination address, mirrors
// paths, issues calls and then asserts on the journaled message trace.
// Every run is deterministic:
//   - identities come from a sequence allocator, so the first identity is
//     00000000-0000-0000-0000-000000000001
//   - deliveries are stamped by a fresh logical clock
//   - messages are journaled in an in-memory SQLite store and read back in
//     sequence order
//
// Deterministic traces can be compared against golden files with
// RunWithGolden.
//
// Results of earlier calls are referenced in later arguments as "$name".
// A call marked pending is not dispatched; its "$name" stands for the
// pending call, which is dispatched when first consumed.
package harness
