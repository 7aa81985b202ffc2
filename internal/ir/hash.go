package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix allows
// the algorithm to change without colliding with old IDs.
const (
	DomainTransition = "boxoffice/transition/v1"
	DomainConfig     = "boxoffice/config/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TransitionID computes the content-addressed ID of a transition from its
// inputs. The outcome is excluded: a replay that reaches a different outcome
// produces the same ID and is caught by outcome comparison instead.
func TransitionID(seq int64, requestID string, op Op, caller string, args Values) (string, error) {
	if args == nil {
		args = Values{}
	}
	obj := map[string]any{
		"seq":        seq,
		"request_id": requestID,
		"op":         op,
		"caller":     caller,
		"args":       args,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TransitionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTransition, canonical), nil
}

// MustTransitionID is like TransitionID but panics on error.
func MustTransitionID(seq int64, requestID string, op Op, caller string, args Values) string {
	id, err := TransitionID(seq, requestID, op, caller, args)
	if err != nil {
		panic(err)
	}
	return id
}

// ConfigHash identifies a ledger configuration. The store keeps it next to
// the config row so a log is never replayed against a different ledger.
func ConfigHash(totalTickets int, baseTicketPrice int64, organizer string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"total_tickets":     totalTickets,
		"base_ticket_price": baseTicketPrice,
		"organizer":         organizer,
	})
	if err != nil {
		return "", fmt.Errorf("ConfigHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}
