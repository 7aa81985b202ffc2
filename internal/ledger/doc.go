// Package ledger implements the ticket-sale ledger state machine.
//
// A Ledger holds a fixed pool of numbered tickets, the swap offers owners have
// made on them and the append-only sequence of resale listings. It exposes
// five mutating operations and a set of read-only queries:
//
//   - BuyTicket: primary sale of an unsold ticket at the base price
//   - OfferSwap / AcceptSwap: a direct exchange of two owned tickets
//   - ResaleTicket (or ListTicket) / AcceptResale: secondary sale at an ask price
//
// # Atomicity
//
// Every mutating operation runs under a single ledger-wide lock. All
// preconditions are checked before the first write, so a rejected call leaves
// the state exactly as it was and a committed call is visible to every later
// read. Two concurrent BuyTicket calls on the same unsold ticket therefore
// always produce one success and one ErrAlreadySold.
//
// # Rejections
//
// Precondition failures are returned as *Rejection values carrying a
// RejectionCode. Use errors.Is against the exported sentinels:
//
//	if errors.Is(err, ledger.ErrAlreadySold) {
//	    // pick another ticket
//	}
//
// The ledger has no notion of signing, fees or consensus. Callers are opaque
// Address values supplied by the submission layer.
package ledger
