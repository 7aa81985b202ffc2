package ledger

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Ledger is the ticket-sale state machine.
//
// All mutating methods take the write lock for their whole check-then-write
// sequence. Queries take the read lock and never observe a half-applied
// transition.
type Ledger struct {
	mu sync.RWMutex

	cfg Config

	// owners holds sold tickets only; unsold ids have no entry.
	owners map[int]Address

	offers   map[int]SwapOffer
	listings []ResaleListing

	// openListing maps a ticket to the index of its unfulfilled listing by
	// the current owner. Entries are removed when the ticket changes hands.
	openListing map[int]int

	proceeds map[Address]Amount
	sold     int
}

// New creates a ledger with every ticket unsold.
func New(cfg Config) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	return &Ledger{
		cfg:         cfg,
		owners:      make(map[int]Address),
		offers:      make(map[int]SwapOffer),
		openListing: make(map[int]int),
		proceeds:    make(map[Address]Amount),
	}, nil
}

// Config returns the construction config (with defaults applied).
func (l *Ledger) Config() Config {
	return l.cfg
}

// TotalTickets returns the fixed supply.
func (l *Ledger) TotalTickets() int {
	return l.cfg.TotalTickets
}

// BaseTicketPrice returns the primary-sale price shared by all tickets.
func (l *Ledger) BaseTicketPrice() Amount {
	return l.cfg.BaseTicketPrice
}

// BuyTicket sells an unsold ticket to buyer at the base price.
func (l *Ledger) BuyTicket(ticketID int, payment Amount, buyer Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if buyer == "" {
		return ErrInvalidCaller
	}
	if err := l.checkRange(ticketID); err != nil {
		return err
	}
	if owner := l.owners[ticketID]; owner != "" {
		return rejectTicket(CodeAlreadySold, ticketID, "ticket already owned by %s", owner)
	}
	if payment != l.cfg.BaseTicketPrice {
		return rejectTicket(CodePaymentMismatch, ticketID, "payment %d does not match price %d", payment, l.cfg.BaseTicketPrice)
	}

	l.owners[ticketID] = buyer
	l.sold++
	l.proceeds[l.cfg.Organizer] += payment
	return nil
}

// TicketOwner returns the owner of a ticket, or "" when unsold or out of range.
func (l *Ledger) TicketOwner(ticketID int) Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.inRange(ticketID) {
		return ""
	}
	return l.owners[ticketID]
}

// Ticket returns the full ticket record. Out-of-range ids yield a zero Ticket
// carrying only the requested id.
func (l *Ledger) Ticket(ticketID int) Ticket {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.inRange(ticketID) {
		return Ticket{ID: ticketID}
	}
	return Ticket{ID: ticketID, Owner: l.owners[ticketID], Price: l.cfg.BaseTicketPrice}
}

// Sold returns the number of tickets with an owner.
func (l *Ledger) Sold() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sold
}

// Proceeds returns the total payments credited to addr.
func (l *Ledger) Proceeds(addr Address) Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.proceeds[addr]
}

// TicketsOwnedBy returns the ids held by addr in ascending order.
func (l *Ledger) TicketsOwnedBy(addr Address) []int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var ids []int
	if addr == "" {
		return ids
	}
	for _, id := range slices.Sorted(maps.Keys(l.owners)) {
		if l.owners[id] == addr {
			ids = append(ids, id)
		}
	}
	return ids
}

func (l *Ledger) inRange(ticketID int) bool {
	return ticketID >= 1 && ticketID <= l.cfg.TotalTickets
}

func (l *Ledger) checkRange(ticketID int) error {
	if !l.inRange(ticketID) {
		return rejectTicket(CodeOutOfRange, ticketID, "ticket %d outside [1, %d]", ticketID, l.cfg.TotalTickets)
	}
	return nil
}

// transfer moves a ticket to a new owner and retires the offer and open
// listing tied to the previous owner. Caller must hold the write lock.
func (l *Ledger) transfer(ticketID int, to Address) {
	l.owners[ticketID] = to
	delete(l.offers, ticketID)
	delete(l.openListing, ticketID)
}

// String summarizes the ledger for logs.
func (l *Ledger) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fmt.Sprintf("ledger(total=%d sold=%d listings=%d offers=%d)",
		l.cfg.TotalTickets, l.sold, len(l.listings), len(l.offers))
}
