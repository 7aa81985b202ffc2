package ledger

import (
	"maps"
	"slices"
)

// State is a deep copy of everything the ledger holds.
// Two ledgers that applied the same transitions have equal States.
type State struct {
	Config       Config             `json:"config"`
	Owners       map[int]Address    `json:"owners"`
	Offers       []SwapOffer        `json:"offers"`
	Listings     []ResaleListing    `json:"listings"`
	OpenListings map[int]int        `json:"open_listings"`
	Proceeds     map[Address]Amount `json:"proceeds"`
	Sold         int                `json:"sold"`
}

// Snapshot returns the current State. Unsold tickets are omitted from Owners
// and offers are ordered by ticket id.
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	offers := make([]SwapOffer, 0, len(l.offers))
	for _, id := range slices.Sorted(maps.Keys(l.offers)) {
		offers = append(offers, l.offers[id])
	}

	return State{
		Config:       l.cfg,
		Owners:       maps.Clone(l.owners),
		Offers:       offers,
		Listings:     slices.Clone(l.listings),
		OpenListings: maps.Clone(l.openListing),
		Proceeds:     maps.Clone(l.proceeds),
		Sold:         l.sold,
	}
}

// Equal reports whether two States describe the same ledger.
// Nil and empty collections compare equal.
func (s State) Equal(o State) bool {
	return s.Config == o.Config &&
		s.Sold == o.Sold &&
		maps.Equal(s.Owners, o.Owners) &&
		slices.Equal(s.Offers, o.Offers) &&
		slices.Equal(s.Listings, o.Listings) &&
		maps.Equal(s.OpenListings, o.OpenListings) &&
		maps.Equal(s.Proceeds, o.Proceeds)
}
