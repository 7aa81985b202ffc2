package ledger

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const price Amount = 100_000_000_000_000_000 // 0.1 ether

func newTestLedger(t *testing.T, total int) *Ledger {
	t.Helper()
	l, err := New(Config{TotalTickets: total, BaseTicketPrice: price})
	require.NoError(t, err)
	return l
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero tickets", Config{TotalTickets: 0, BaseTicketPrice: 1}},
		{"negative tickets", Config{TotalTickets: -3, BaseTicketPrice: 1}},
		{"zero price", Config{TotalTickets: 10, BaseTicketPrice: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			assert.Nil(t, l)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNew_MaxSupply(t *testing.T) {
	l, err := New(Config{TotalTickets: math.MaxInt, BaseTicketPrice: 1})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, l.TotalTickets())

	require.NoError(t, l.BuyTicket(math.MaxInt, 1, "alice"))
	require.NoError(t, l.BuyTicket(7, 1, "alice"))
	assert.Equal(t, Address("alice"), l.TicketOwner(math.MaxInt))
	assert.Equal(t, Address(""), l.TicketOwner(8))
	assert.Equal(t, []int{7, math.MaxInt}, l.TicketsOwnedBy("alice"))

	idx, err := l.ResaleTicket(5, "alice")
	require.NoError(t, err)
	assert.Equal(t, 7, l.ResaleListing(idx).TicketID)

	snap := l.Snapshot()
	assert.Equal(t, map[int]Address{7: "alice", math.MaxInt: "alice"}, snap.Owners)
	assert.Equal(t, 2, snap.Sold)
}

func TestNew_DefaultsOrganizer(t *testing.T) {
	l := newTestLedger(t, 10)
	assert.Equal(t, DefaultOrganizer, l.Config().Organizer)
	assert.Equal(t, 10, l.TotalTickets())
	assert.Equal(t, price, l.BaseTicketPrice())
	assert.Equal(t, 0, l.Sold())
}

func TestBuyTicket_Success(t *testing.T) {
	l := newTestLedger(t, 10)

	require.NoError(t, l.BuyTicket(1, price, "alice"))

	assert.Equal(t, Address("alice"), l.TicketOwner(1))
	assert.Equal(t, 1, l.Sold())
	assert.Equal(t, price, l.Proceeds(DefaultOrganizer))
	assert.True(t, l.Ticket(1).Sold())
}

func TestBuyTicket_AlreadySold(t *testing.T) {
	l := newTestLedger(t, 10)
	require.NoError(t, l.BuyTicket(1, price, "alice"))

	err := l.BuyTicket(1, price, "bob")
	assert.ErrorIs(t, err, ErrAlreadySold)
	assert.Equal(t, Address("alice"), l.TicketOwner(1), "owner unchanged")
	assert.Equal(t, 1, l.Sold())
}

func TestBuyTicket_OutOfRange(t *testing.T) {
	l := newTestLedger(t, 10)

	for _, id := range []int{0, -1, 11, 1000} {
		err := l.BuyTicket(id, price, "alice")
		assert.ErrorIs(t, err, ErrOutOfRange, "ticket %d", id)
	}
	assert.Equal(t, 0, l.Sold())
}

func TestBuyTicket_PaymentMismatch(t *testing.T) {
	l := newTestLedger(t, 10)

	for _, payment := range []Amount{0, price - 1, price + 1, 2 * price} {
		err := l.BuyTicket(1, payment, "alice")
		assert.ErrorIs(t, err, ErrPaymentMismatch, "payment %d", payment)
	}
	assert.Equal(t, Address(""), l.TicketOwner(1))
	assert.Equal(t, Amount(0), l.Proceeds(DefaultOrganizer))
}

func TestBuyTicket_EmptyCaller(t *testing.T) {
	l := newTestLedger(t, 10)
	assert.ErrorIs(t, l.BuyTicket(1, price, ""), ErrInvalidCaller)
}

func TestBuyTicket_SellsEntirePool(t *testing.T) {
	l := newTestLedger(t, 3)
	for id := 1; id <= 3; id++ {
		require.NoError(t, l.BuyTicket(id, price, "alice"))
	}
	assert.Equal(t, 3, l.Sold())
	assert.Equal(t, []int{1, 2, 3}, l.TicketsOwnedBy("alice"))
	assert.ErrorIs(t, l.BuyTicket(4, price, "alice"), ErrOutOfRange)
}

func TestBuyTicket_ConcurrentSameTicket(t *testing.T) {
	l := newTestLedger(t, 10)
	const buyers = 64

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	start := make(chan struct{})

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = l.BuyTicket(1, price, Address(fmt.Sprintf("buyer-%d", i)))
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadySold)
	}
	assert.Equal(t, 1, successes, "exactly one buyer wins")
	assert.Equal(t, 1, l.Sold())
	assert.Equal(t, price, l.Proceeds(DefaultOrganizer))
}

func TestBuyTicket_ConcurrentDistinctTickets(t *testing.T) {
	l := newTestLedger(t, 50)

	var wg sync.WaitGroup
	for id := 1; id <= 50; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, l.BuyTicket(id, price, "alice"))
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 50, l.Sold())
	assert.Equal(t, 50*price, l.Proceeds(DefaultOrganizer))
}

func TestQueries_NeverFail(t *testing.T) {
	l := newTestLedger(t, 10)

	assert.Equal(t, Address(""), l.TicketOwner(0))
	assert.Equal(t, Address(""), l.TicketOwner(99))
	assert.Equal(t, Ticket{ID: 99}, l.Ticket(99))
	assert.Equal(t, SwapOffer{TicketID: 5}, l.SwapOffer(5))
	assert.Equal(t, ResaleListing{Index: 3}, l.ResaleListing(3))
	assert.False(t, l.ResaleListing(-1).Exists())
	assert.Empty(t, l.TicketsOwnedBy(""))
}

func TestRejection_ErrorFormat(t *testing.T) {
	l := newTestLedger(t, 10)

	err := l.BuyTicket(42, price, "alice")
	var r *Rejection
	require.True(t, errors.As(err, &r))
	assert.Equal(t, CodeOutOfRange, r.Code)
	assert.Equal(t, 42, r.TicketID)
	assert.Equal(t, "OUT_OF_RANGE: ticket 42 outside [1, 10] (ticket=42)", err.Error())

	err = l.AcceptResale(7, price, "bob")
	assert.Equal(t, "LISTING_NOT_FOUND: no listing at index 7 (listing=7)", err.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeAlreadySold, CodeOf(ErrAlreadySold))
	assert.Equal(t, CodeNotOwner, CodeOf(fmtWrap(ErrNotOwner)))
	assert.Equal(t, RejectionCode(""), CodeOf(errors.New("disk full")))
	assert.False(t, IsRejection(nil))
	assert.True(t, IsRejection(ErrInvalidPrice))
}

func fmtWrap(err error) error {
	return errors.Join(errors.New("submit"), err)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	l := newTestLedger(t, 10)
	require.NoError(t, l.BuyTicket(1, price, "alice"))
	require.NoError(t, l.OfferSwap(1, "alice"))
	_, err := l.ResaleTicket(2*price, "alice")
	require.NoError(t, err)

	snap := l.Snapshot()
	snap.Owners[1] = "mallory"
	snap.Listings[0].Fulfilled = true
	snap.Proceeds[DefaultOrganizer] = 0

	assert.Equal(t, Address("alice"), l.TicketOwner(1))
	assert.False(t, l.ResaleListing(0).Fulfilled)
	assert.Equal(t, price, l.Proceeds(DefaultOrganizer))
}

func TestSnapshot_EqualAfterSameHistory(t *testing.T) {
	apply := func(l *Ledger) {
		require.NoError(t, l.BuyTicket(1, price, "alice"))
		require.NoError(t, l.BuyTicket(2, price, "bob"))
		require.NoError(t, l.OfferSwap(1, "alice"))
		require.NoError(t, l.AcceptSwap(1, 2, "bob"))
	}

	a, b := newTestLedger(t, 10), newTestLedger(t, 10)
	apply(a)
	apply(b)
	assert.True(t, a.Snapshot().Equal(b.Snapshot()))

	require.NoError(t, b.BuyTicket(3, price, "carol"))
	assert.False(t, a.Snapshot().Equal(b.Snapshot()))
}

func TestSnapshot_EmptyCollectionsEqual(t *testing.T) {
	s := newTestLedger(t, 1).Snapshot()
	s2 := s
	s2.Owners = nil
	s2.Offers = nil
	assert.True(t, s.Equal(s2))
}
