// Package store journals delivered messages in SQLite.
//
// The journal is append-only:
//   - messages: one row per delivered message, keyed by message identity,
//     holding the canonical envelope produced by action.Encode
//   - message_args: one row per argument pointer consumed by a RunAction
//
// Ordering uses the delivery sequence number, never wall time. Every query
// orders by seq ASC, id COLLATE BINARY ASC so results are identical across
// reads. Writes are idempotent: redelivering a message is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
