// Package store provides SQLite-backed durable storage for the ticket ledger.
//
// The store holds two things:
//   - ledger_config: the single construction config row
//   - transitions: the append-only log of applied commands, committed and
//     rejected alike
//
// The ledger itself is never stored. It is rebuilt by replaying transitions
// in seq order (see engine.Replay).
//
// # Ordering
//
// seq is the primary key of transitions and every read orders by
// seq ASC. Wall-clock time is never recorded, so a log replays the same way
// regardless of when it runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single connection, which also makes ":memory:" usable in tests
package store
