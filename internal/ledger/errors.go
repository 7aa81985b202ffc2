package ledger

import (
	"errors"
	"fmt"
)

// RejectionCode categorizes why a transition was rejected.
type RejectionCode string

const (
	// CodeOutOfRange indicates a ticket id outside [1, TotalTickets].
	CodeOutOfRange RejectionCode = "OUT_OF_RANGE"

	// CodeAlreadySold indicates the ticket already has an owner.
	CodeAlreadySold RejectionCode = "ALREADY_SOLD"

	// CodeNotOwner indicates the caller does not own the ticket it acts on.
	CodeNotOwner RejectionCode = "NOT_OWNER"

	// CodePaymentMismatch indicates the attached payment differs from the price.
	CodePaymentMismatch RejectionCode = "PAYMENT_MISMATCH"

	// CodeNoActiveOffer indicates acceptSwap on a ticket without a standing offer.
	CodeNoActiveOffer RejectionCode = "NO_ACTIVE_OFFER"

	// CodeInvalidAcceptor indicates the acceptor cannot take the other side.
	CodeInvalidAcceptor RejectionCode = "INVALID_ACCEPTOR"

	// CodeListingNotFound indicates an unknown listing index.
	CodeListingNotFound RejectionCode = "LISTING_NOT_FOUND"

	// CodeListingAlreadyFulfilled indicates a second acceptance of a listing.
	CodeListingAlreadyFulfilled RejectionCode = "LISTING_ALREADY_FULFILLED"

	// CodeInvalidPrice indicates a non-positive ask price.
	CodeInvalidPrice RejectionCode = "INVALID_PRICE"

	// CodeInvalidCaller indicates an empty caller address.
	CodeInvalidCaller RejectionCode = "INVALID_CALLER"
)

// Rejection is returned when a transition's preconditions do not hold.
// The ledger state is unchanged whenever a Rejection is returned.
type Rejection struct {
	// Code identifies the rejection category.
	Code RejectionCode

	// Message is a human-readable description.
	Message string

	// TicketID is the ticket involved, if any.
	TicketID int

	// ListingIndex is the listing involved, or -1.
	ListingIndex int
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	switch {
	case r.ListingIndex >= 0:
		return fmt.Sprintf("%s: %s (listing=%d)", r.Code, r.Message, r.ListingIndex)
	case r.TicketID > 0:
		return fmt.Sprintf("%s: %s (ticket=%d)", r.Code, r.Message, r.TicketID)
	default:
		return fmt.Sprintf("%s: %s", r.Code, r.Message)
	}
}

// Is matches any Rejection with the same Code, so errors.Is works against
// the exported sentinels regardless of ticket or listing details.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	if !ok {
		return false
	}
	return t.Code == r.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrOutOfRange              = &Rejection{Code: CodeOutOfRange, Message: "ticket id out of range", ListingIndex: -1}
	ErrAlreadySold             = &Rejection{Code: CodeAlreadySold, Message: "ticket already sold", ListingIndex: -1}
	ErrNotOwner                = &Rejection{Code: CodeNotOwner, Message: "caller does not own ticket", ListingIndex: -1}
	ErrPaymentMismatch         = &Rejection{Code: CodePaymentMismatch, Message: "payment does not match price", ListingIndex: -1}
	ErrNoActiveOffer           = &Rejection{Code: CodeNoActiveOffer, Message: "no active swap offer", ListingIndex: -1}
	ErrInvalidAcceptor         = &Rejection{Code: CodeInvalidAcceptor, Message: "acceptor is not eligible", ListingIndex: -1}
	ErrListingNotFound         = &Rejection{Code: CodeListingNotFound, Message: "listing not found", ListingIndex: -1}
	ErrListingAlreadyFulfilled = &Rejection{Code: CodeListingAlreadyFulfilled, Message: "listing already fulfilled", ListingIndex: -1}
	ErrInvalidPrice            = &Rejection{Code: CodeInvalidPrice, Message: "ask price must be positive", ListingIndex: -1}
	ErrInvalidCaller           = &Rejection{Code: CodeInvalidCaller, Message: "caller address is empty", ListingIndex: -1}
)

func rejectTicket(code RejectionCode, ticketID int, format string, args ...any) *Rejection {
	return &Rejection{
		Code:         code,
		Message:      fmt.Sprintf(format, args...),
		TicketID:     ticketID,
		ListingIndex: -1,
	}
}

func rejectListing(code RejectionCode, index int, format string, args ...any) *Rejection {
	return &Rejection{
		Code:         code,
		Message:      fmt.Sprintf(format, args...),
		ListingIndex: index,
	}
}

// CodeOf returns the RejectionCode carried by err, or "" if err is not a
// Rejection. Uses errors.As to handle wrapped errors.
func CodeOf(err error) RejectionCode {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Code
	}
	return ""
}

// IsRejection reports whether err is a ledger precondition failure.
func IsRejection(err error) bool {
	return CodeOf(err) != ""
}
