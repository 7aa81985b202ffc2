// Package api exposes the ledger over HTTP.
//
// Mutating routes submit through the engine, so HTTP callers share the log
// and the seq order with every other submitter. Read routes query the ledger
// directly. The caller identity comes from the X-Caller header and is not
// verified here.
package api
