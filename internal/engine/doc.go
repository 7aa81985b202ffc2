// Package engine serializes ledger transitions and records them.
//
// # Single-Writer Loop
//
// Submit may be called from any goroutine. Commands are placed on a FIFO
// queue and applied one at a time by the goroutine running Run:
//
//  1. stamp the command with seq = clock.Next()
//  2. apply it to the ledger (committed or rejected)
//  3. append the resulting ir.Transition through the Recorder
//  4. reply to the waiting submitter
//
// The log order therefore equals the apply order, and replaying the log
// against a fresh ledger reproduces the same state (see Replay).
//
// # Failure Model
//
// Ledger rejections are ordinary outcomes: they are recorded and returned
// to the submitter as *ledger.Rejection. A Recorder failure is not: the
// ledger has applied a transition the log does not contain, so the engine
// halts and every later Submit fails with ErrHalted. Restarting from the
// log (Replay) discards the unrecorded transition.
//
// Ordering uses the logical seq only. Wall-clock time is read for metrics
// and never stored.
package engine
