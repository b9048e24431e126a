// Package store provides SQLite-backed durable storage for dtable sessions.
//
// The store keeps two things:
//   - Locators: the application state (locator name → field → value) that
//     commands write and tables read
//   - Episodes: an append-only log of every public session operation with
//     its request, outcome, resulting state hash and evaluation trace
//
// # Critical Patterns
//
// Logical Identity and Time
//   - Episodes are ordered by seq INTEGER (logical clock), NEVER timestamps
//   - Enables deterministic replay regardless of wall time
//
// Deterministic Query Results
//   - Queries that return lists include ORDER BY seq ASC, id ASC COLLATE BINARY
//   - Ensures identical results across replays
//
// Idempotent Episode Writes
//   - INSERT ... ON CONFLICT(id) DO NOTHING
//   - Re-writing an episode with the same ID is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Request and outcome maps are stored as RFC 8785 canonical JSON produced by
// internal/ir.
package store
