package ledger

import (
	"maps"
	"slices"
)

// ResaleTicket lists the seller's lowest-numbered ticket that has no open
// listing and returns the new listing index.
func (l *Ledger) ResaleTicket(askPrice Amount, seller Address) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seller == "" {
		return -1, ErrInvalidCaller
	}
	if askPrice <= 0 {
		return -1, rejectTicket(CodeInvalidPrice, 0, "ask price %d must be positive", askPrice)
	}

	for _, id := range slices.Sorted(maps.Keys(l.owners)) {
		if l.owners[id] != seller {
			continue
		}
		if _, listed := l.openListing[id]; listed {
			continue
		}
		return l.appendListing(id, askPrice, seller), nil
	}
	return -1, rejectTicket(CodeNotOwner, 0, "%s owns no ticket eligible for resale", seller)
}

// ListTicket lists a specific ticket for resale and returns the listing index.
func (l *Ledger) ListTicket(ticketID int, askPrice Amount, seller Address) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seller == "" {
		return -1, ErrInvalidCaller
	}
	if err := l.checkRange(ticketID); err != nil {
		return -1, err
	}
	if askPrice <= 0 {
		return -1, rejectTicket(CodeInvalidPrice, ticketID, "ask price %d must be positive", askPrice)
	}
	if l.owners[ticketID] != seller {
		return -1, rejectTicket(CodeNotOwner, ticketID, "%s does not own ticket %d", seller, ticketID)
	}
	if idx, listed := l.openListing[ticketID]; listed {
		return -1, rejectTicket(CodeNotOwner, ticketID, "ticket %d already listed at index %d", ticketID, idx)
	}
	return l.appendListing(ticketID, askPrice, seller), nil
}

func (l *Ledger) appendListing(ticketID int, askPrice Amount, seller Address) int {
	idx := len(l.listings)
	l.listings = append(l.listings, ResaleListing{
		Index:    idx,
		Seller:   seller,
		TicketID: ticketID,
		AskPrice: askPrice,
	})
	l.openListing[ticketID] = idx
	return idx
}

// AcceptResale buys a listed ticket at its ask price. A listing can be
// fulfilled once; later attempts return ErrListingAlreadyFulfilled.
func (l *Ledger) AcceptResale(listingIndex int, payment Amount, buyer Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if buyer == "" {
		return ErrInvalidCaller
	}
	if listingIndex < 0 || listingIndex >= len(l.listings) {
		return rejectListing(CodeListingNotFound, listingIndex, "no listing at index %d", listingIndex)
	}
	listing := l.listings[listingIndex]
	if listing.Fulfilled {
		return rejectListing(CodeListingAlreadyFulfilled, listingIndex, "listing already bought by %s", listing.Buyer)
	}
	if open, ok := l.openListing[listing.TicketID]; !ok || open != listingIndex || l.owners[listing.TicketID] != listing.Seller {
		return rejectListing(CodeNotOwner, listingIndex, "%s no longer holds ticket %d", listing.Seller, listing.TicketID)
	}
	if buyer == listing.Seller {
		return rejectListing(CodeInvalidAcceptor, listingIndex, "%s cannot buy own listing", buyer)
	}
	if payment != listing.AskPrice {
		return rejectListing(CodePaymentMismatch, listingIndex, "payment %d does not match ask price %d", payment, listing.AskPrice)
	}

	l.transfer(listing.TicketID, buyer)
	listing.Fulfilled = true
	listing.Buyer = buyer
	l.listings[listingIndex] = listing
	l.proceeds[listing.Seller] += payment
	return nil
}

// ResaleListing returns the listing at index, or the zero listing (with
// Index set) when none exists.
func (l *Ledger) ResaleListing(index int) ResaleListing {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.listings) {
		return ResaleListing{Index: index}
	}
	return l.listings[index]
}

// ListingCount returns the length of the listing sequence.
func (l *Ledger) ListingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.listings)
}
