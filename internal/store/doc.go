// Package store keeps the history of graphparity runs in SQLite.
//
// Every recorded run keeps its totals, its digest, one row per fixture and
// the ordered failure list. Runs are append-only: recording the same run ID
// twice is a no-op.
//
// # Ordering
//
// Runs are listed newest first by (generated_at, id). Run IDs are UUIDv7, so
// the id tiebreak also follows creation order.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: fixture and failure rows are removed with their run
package store
