package ledger

import (
	"errors"
	"fmt"
)

// Address identifies a principal (buyer, seller, offeror, acceptor).
// The ledger treats it as opaque; the empty Address means "no owner".
type Address string

// Amount is a payment or price in the smallest currency unit.
type Amount int64

// DefaultOrganizer receives primary-sale proceeds when Config.Organizer is empty.
const DefaultOrganizer Address = "organizer"

// Config is the construction-time configuration of a Ledger.
type Config struct {
	TotalTickets    int     `json:"total_tickets"`
	BaseTicketPrice Amount  `json:"base_ticket_price"`
	Organizer       Address `json:"organizer"`
}

// ErrInvalidConfig is returned by New and Config.Validate for unusable configs.
var ErrInvalidConfig = errors.New("invalid ledger config")

// Validate checks that the config describes a usable ledger.
func (c Config) Validate() error {
	if c.TotalTickets <= 0 {
		return fmt.Errorf("%w: total tickets must be positive, got %d", ErrInvalidConfig, c.TotalTickets)
	}
	if c.BaseTicketPrice <= 0 {
		return fmt.Errorf("%w: base ticket price must be positive, got %d", ErrInvalidConfig, c.BaseTicketPrice)
	}
	return nil
}

// withDefaults fills optional fields.
func (c Config) withDefaults() Config {
	if c.Organizer == "" {
		c.Organizer = DefaultOrganizer
	}
	return c
}

// Ticket is a numbered seat in the pool.
type Ticket struct {
	ID    int     `json:"id"`
	Owner Address `json:"owner,omitempty"`
	Price Amount  `json:"price"`
}

// Sold reports whether the ticket has an owner.
func (t Ticket) Sold() bool {
	return t.Owner != ""
}

// SwapOffer is a standing proposal by a ticket's owner to exchange it.
type SwapOffer struct {
	TicketID int     `json:"ticket_id"`
	Offeror  Address `json:"offeror,omitempty"`
	Active   bool    `json:"active"`
}

// ResaleListing is an entry in the append-only resale sequence.
type ResaleListing struct {
	Index     int     `json:"index"`
	Seller    Address `json:"seller,omitempty"`
	TicketID  int     `json:"ticket_id"`
	AskPrice  Amount  `json:"ask_price"`
	Fulfilled bool    `json:"fulfilled"`
	Buyer     Address `json:"buyer,omitempty"`
}

// Exists reports whether the listing refers to a real entry.
// Queries return the zero listing for unknown indexes.
func (l ResaleListing) Exists() bool {
	return l.Seller != ""
}
