package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boxoffice/internal/ir"
)

func runReceipt(t *testing.T, args ...string) ReceiptResult {
	t.Helper()
	out, err := execute(t, append(args, "--format", "json")...)
	require.NoError(t, err, "output: %s", out)
	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	return decodeData[ReceiptResult](t, resp)
}

func TestBuy(t *testing.T) {
	db := initDB(t)

	r := runReceipt(t, "buy", "3", "--db", db, "--caller", "alice")
	assert.Equal(t, int64(1), r.Seq)
	assert.Equal(t, ir.OpBuyTicket, r.Op)
	assert.Equal(t, ir.OutcomeCommitted, r.Outcome)
	assert.Equal(t, "alice", r.Caller)
	assert.Len(t, r.TransitionID, 64)
	assert.NotEmpty(t, r.RequestID)

	out, err := execute(t, "owner", "3", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Ticket 3: alice (price 0.1ether)\n", out)
}

func TestBuy_Rejected(t *testing.T) {
	db := initDB(t)
	runReceipt(t, "buy", "3", "--db", db, "--caller", "alice")

	out, err := execute(t, "buy", "3", "--db", db, "--caller", "bob", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_SOLD", resp.Error.Code)
	assert.Equal(t, "ticket already owned by alice", resp.Error.Message)

	// The rejection is logged and consumes a seq.
	r := runReceipt(t, "buy", "4", "--db", db, "--caller", "bob")
	assert.Equal(t, int64(3), r.Seq)
}

func TestBuy_WrongPayment(t *testing.T) {
	db := initDB(t)

	out, err := execute(t, "buy", "1", "--db", db, "--caller", "alice", "--payment", "0.05ether")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [PAYMENT_MISMATCH]")
}

func TestBuy_BadArguments(t *testing.T) {
	db := initDB(t)

	_, err := execute(t, "buy", "three", "--db", db, "--caller", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "buy", "1", "--db", db, "--caller", "alice", "--payment", "a lot")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "buy", "1", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestBuy_RequestID(t *testing.T) {
	db := initDB(t)

	r := runReceipt(t, "buy", "1", "--db", db, "--caller", "alice", "--request-id", "order-42")
	assert.Equal(t, "order-42", r.RequestID)
}

func TestSwap(t *testing.T) {
	db := initDB(t)
	runReceipt(t, "buy", "1", "--db", db, "--caller", "alice")
	runReceipt(t, "buy", "2", "--db", db, "--caller", "bob")

	runReceipt(t, "offer-swap", "1", "--db", db, "--caller", "alice")

	out, err := execute(t, "offer", "1", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Ticket 1: offered by alice\n", out)

	r := runReceipt(t, "accept-swap", "1", "2", "--db", db, "--caller", "bob")
	assert.Equal(t, ir.OutcomeCommitted, r.Outcome)

	out, err = execute(t, "owner", "1", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "bob")
	out, err = execute(t, "owner", "2", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "alice")

	out, err = execute(t, "offer", "1", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Ticket 1: no active offer\n", out)
}

func TestSwap_NoActiveOffer(t *testing.T) {
	db := initDB(t)
	runReceipt(t, "buy", "1", "--db", db, "--caller", "alice")
	runReceipt(t, "buy", "2", "--db", db, "--caller", "bob")

	out, err := execute(t, "accept-swap", "1", "2", "--db", db, "--caller", "bob")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "NO_ACTIVE_OFFER")
}

func TestResale(t *testing.T) {
	db := initDB(t)
	runReceipt(t, "buy", "1", "--db", db, "--caller", "alice")
	runReceipt(t, "buy", "2", "--db", db, "--caller", "alice")

	r := runReceipt(t, "resell", "--db", db, "--caller", "alice", "--ask", "0.15ether")
	assert.Equal(t, ir.Values{ir.KeyListing: 0, ir.KeyTicket: 1}, r.Result)

	r = runReceipt(t, "resell", "--db", db, "--caller", "alice", "--ask", "0.2ether", "--ticket", "2")
	assert.Equal(t, ir.Values{ir.KeyListing: 1, ir.KeyTicket: 2}, r.Result)

	r = runReceipt(t, "accept-resale", "0", "--db", db, "--caller", "bob")
	assert.Equal(t, ir.Values{ir.KeyTicket: 1}, r.Result)

	out, err := execute(t, "listing", "0", "--db", db, "--format", "json")
	require.NoError(t, err)
	listing := decodeData[ListingResult](t, decodeResponse(t, out))
	assert.Equal(t, ListingResult{
		Index:     0,
		TicketID:  1,
		Seller:    "alice",
		AskPrice:  "0.15ether",
		Fulfilled: true,
		Buyer:     "bob",
	}, listing)

	out, err = execute(t, "tickets", "alice", "--db", db, "--format", "json")
	require.NoError(t, err)
	holdings := decodeData[HoldingsResult](t, decodeResponse(t, out))
	assert.Equal(t, []int{2}, holdings.Tickets)
	assert.Equal(t, "0.15ether", holdings.Proceeds)

	out, err = execute(t, "accept-resale", "0", "--db", db, "--caller", "carol")
	require.Error(t, err)
	assert.Contains(t, out, "LISTING_ALREADY_FULFILLED")
}

func TestResale_Rejections(t *testing.T) {
	db := initDB(t)

	out, err := execute(t, "resell", "--db", db, "--caller", "alice", "--ask", "0.15ether")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "NOT_OWNER")

	out, err = execute(t, "accept-resale", "7", "--db", db, "--caller", "bob")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "LISTING_NOT_FOUND")
}
