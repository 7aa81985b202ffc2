// Package ir defines the transition records shared by the engine, the store
// and the harness.
//
// ir imports nothing internal. Amounts are carried as int64 and addresses
// as plain strings so the record format does not depend on the ledger.
//
// Constraints on every record:
//   - no float types; numbers are int64
//   - JSON tags use snake_case
//   - ordering comes from the logical seq, never wall-clock time
package ir
