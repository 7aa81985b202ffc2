// Package harness runs YAML ledger scenarios end to end.
//
// Each scenario gets a fresh in-memory store, a ledger built from the
// scenario's ledger block, and a real engine with a resettable sequencer and
// sequential request ids. Steps are submitted one at a time through
// engine.Submit, so the recorded trace is exactly what production would
// record. After the last step the log is replayed from the store and the
// rebuilt ledger must equal the live one.
//
// A scenario file looks like:
//
//	name: swap
//	description: A offers ticket 1, B accepts with ticket 2
//	ledger:
//	  total_tickets: 10
//	  base_ticket_price: 0.1ether
//	steps:
//	  - {op: buyTicket, caller: alice, ticket: 1, payment: 0.1ether}
//	  - {op: buyTicket, caller: bob, ticket: 2, payment: 0.1ether}
//	  - {op: offerSwap, caller: alice, ticket: 1}
//	  - {op: acceptSwap, caller: bob, ticket: 1, counter_ticket: 2}
//	assertions:
//	  - {type: owner, ticket: 1, expect: bob}
//	  - {type: owner, ticket: 2, expect: alice}
//
// Steps without an expect block must commit. Golden traces for
// RunWithGolden live in testdata/golden/<name>.golden; regenerate with
//
//	go test ./internal/harness -update
package harness
