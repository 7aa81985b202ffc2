package ledger

// OfferSwap records a standing offer by the ticket's owner to exchange it.
// A new offer replaces any unconsumed offer on the same ticket.
func (l *Ledger) OfferSwap(ticketID int, offeror Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if offeror == "" {
		return ErrInvalidCaller
	}
	if err := l.checkRange(ticketID); err != nil {
		return err
	}
	if l.owners[ticketID] != offeror {
		return rejectTicket(CodeNotOwner, ticketID, "%s does not own ticket %d", offeror, ticketID)
	}

	l.offers[ticketID] = SwapOffer{TicketID: ticketID, Offeror: offeror, Active: true}
	return nil
}

// AcceptSwap exchanges the offered ticket with the acceptor's counter ticket.
// Both ownership writes happen under the same lock; the offer is consumed.
func (l *Ledger) AcceptSwap(ticketID, counterTicketID int, acceptor Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if acceptor == "" {
		return ErrInvalidCaller
	}
	if err := l.checkRange(ticketID); err != nil {
		return err
	}
	offer, ok := l.offers[ticketID]
	if !ok || !offer.Active || l.owners[ticketID] != offer.Offeror {
		return rejectTicket(CodeNoActiveOffer, ticketID, "no active swap offer on ticket %d", ticketID)
	}
	if err := l.checkRange(counterTicketID); err != nil {
		return err
	}
	if acceptor == offer.Offeror {
		return rejectTicket(CodeInvalidAcceptor, ticketID, "%s cannot accept own offer", acceptor)
	}
	if counterTicketID == ticketID {
		return rejectTicket(CodeInvalidAcceptor, ticketID, "counter ticket must differ from offered ticket")
	}
	if l.owners[counterTicketID] != acceptor {
		return rejectTicket(CodeInvalidAcceptor, counterTicketID, "%s does not own counter ticket %d", acceptor, counterTicketID)
	}

	l.transfer(ticketID, acceptor)
	l.transfer(counterTicketID, offer.Offeror)
	return nil
}

// SwapOffer returns the offer on a ticket. Tickets without an offer yield an
// inactive SwapOffer carrying only the ticket id.
func (l *Ledger) SwapOffer(ticketID int) SwapOffer {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if offer, ok := l.offers[ticketID]; ok {
		return offer
	}
	return SwapOffer{TicketID: ticketID}
}
