package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boxoffice/internal/amount"
	"github.com/roach88/boxoffice/internal/engine"
	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type testEnv struct {
	handler http.Handler
	ledger  *ledger.Ledger
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	l, err := ledger.New(ledger.Config{TotalTickets: 10, BaseTicketPrice: amount.MustParse("0.1ether")})
	require.NoError(t, err)

	e := engine.New(l, engine.WithLogger(discard))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	opts = append([]Option{WithLogger(discard)}, opts...)
	return &testEnv{handler: NewServer(e, l, opts...).Handler(), ledger: l}
}

func (env *testEnv) do(t *testing.T, method, path, caller, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const pay = `{"payment":"0.1ether"}`

func TestBuy(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/tickets/1/buy", "alice", pay)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	receipt := decode[ir.Receipt](t, rec)
	assert.Equal(t, ir.OpBuyTicket, receipt.Op)
	assert.Equal(t, ir.OutcomeCommitted, receipt.Outcome)
	assert.Equal(t, int64(1), receipt.Seq)
	assert.NotEmpty(t, receipt.TransitionID)
	assert.Equal(t, ledger.Address("alice"), env.ledger.TicketOwner(1))
}

func TestBuy_Rejections(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/tickets/1/buy", "alice", pay).Code)

	tests := []struct {
		name       string
		path       string
		caller     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"already sold", "/tickets/1/buy", "bob", pay, http.StatusConflict, "ALREADY_SOLD"},
		{"underpaid", "/tickets/2/buy", "bob", `{"payment":"0.05ether"}`, http.StatusBadRequest, "PAYMENT_MISMATCH"},
		{"overpaid", "/tickets/2/buy", "bob", `{"payment":"1ether"}`, http.StatusBadRequest, "PAYMENT_MISMATCH"},
		{"out of range", "/tickets/11/buy", "bob", pay, http.StatusBadRequest, "OUT_OF_RANGE"},
		{"no caller", "/tickets/2/buy", "", pay, http.StatusBadRequest, "INVALID_CALLER"},
		{"bad id", "/tickets/two/buy", "bob", pay, http.StatusBadRequest, codeInvalidID},
		{"bad json", "/tickets/2/buy", "bob", `{"payment":`, http.StatusBadRequest, codeInvalidRequestBody},
		{"unknown field", "/tickets/2/buy", "bob", `{"payment":"0.1ether","tip":"1"}`, http.StatusBadRequest, codeInvalidRequestBody},
		{"missing payment", "/tickets/2/buy", "bob", `{}`, http.StatusBadRequest, codeInvalidRequestBody},
		{"bad amount", "/tickets/2/buy", "bob", `{"payment":"lots"}`, http.StatusBadRequest, codeInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			resp := decode[errorResponse](t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}

	assert.Equal(t, 1, env.ledger.Sold())
}

func TestBuy_RejectionCarriesSeq(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tickets/1/buy", "alice", pay)

	rec := env.do(t, http.MethodPost, "/tickets/1/buy", "bob", pay)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, int64(2), resp.Seq)
	assert.Equal(t, "ticket already owned by alice", resp.Error)
}

func TestSwap(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tickets/1/buy", "alice", pay)
	env.do(t, http.MethodPost, "/tickets/2/buy", "bob", pay)

	rec := env.do(t, http.MethodPost, "/tickets/1/swap-accept", "bob", `{"counter_ticket_id":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_ACTIVE_OFFER", decode[errorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/tickets/1/swap-offer", "bob", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NOT_OWNER", decode[errorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/tickets/1/swap-offer", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ticket := decode[ticketResponse](t, env.do(t, http.MethodGet, "/tickets/1", "", ""))
	require.NotNil(t, ticket.Offer)
	assert.Equal(t, "alice", ticket.Offer.Offeror)

	rec = env.do(t, http.MethodPost, "/tickets/1/swap-accept", "alice", `{"counter_ticket_id":2}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INVALID_ACCEPTOR", decode[errorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/tickets/1/swap-accept", "bob", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/tickets/1/swap-accept", "bob", `{"counter_ticket_id":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ticket = decode[ticketResponse](t, env.do(t, http.MethodGet, "/tickets/1", "", ""))
	assert.Equal(t, "bob", ticket.Owner)
	assert.Nil(t, ticket.Offer)
	assert.Equal(t, "0.1ether", ticket.Price)
	assert.Equal(t, ledger.Address("alice"), env.ledger.TicketOwner(2))
}

func TestResale(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/tickets/1/buy", "alice", pay)
	env.do(t, http.MethodPost, "/tickets/2/buy", "alice", pay)

	rec := env.do(t, http.MethodPost, "/listings", "alice", `{"ask_price":"0.15ether","ticket_id":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[ir.Receipt](t, rec)
	assert.Equal(t, ir.Values{"listing": 0, "ticket": 2}, receipt.Result)

	rec = env.do(t, http.MethodPost, "/listings", "alice", `{"ask_price":"0.2ether"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, ir.Values{"listing": 1, "ticket": 1}, decode[ir.Receipt](t, rec).Result)

	rec = env.do(t, http.MethodPost, "/listings", "bob", `{"ask_price":"0.2ether"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/listings", "alice", `{"ask_price":"0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PRICE", decode[errorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/listings/0/accept", "alice", `{"payment":"0.15ether"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/listings/0/accept", "bob", `{"payment":"0.15ether"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ir.Values{"ticket": 2}, decode[ir.Receipt](t, rec).Result)

	rec = env.do(t, http.MethodPost, "/listings/0/accept", "carol", `{"payment":"0.15ether"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "LISTING_ALREADY_FULFILLED", decode[errorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/listings/9/accept", "carol", `{"payment":"0.15ether"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "LISTING_NOT_FOUND", decode[errorResponse](t, rec).Code)

	listing := decode[listingResponse](t, env.do(t, http.MethodGet, "/listings/0", "", ""))
	assert.Equal(t, listingResponse{
		Index:     0,
		TicketID:  2,
		Seller:    "alice",
		AskPrice:  "0.15ether",
		Fulfilled: true,
		Buyer:     "bob",
	}, listing)
}

func TestGetTicket_Unsold(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/tickets/3", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3,"price":"0.1ether"}`, rec.Body.String())
}

func TestGetTicket_OutOfRange(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/tickets/0", "/tickets/11", "/tickets/-1"} {
		rec := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "OUT_OF_RANGE", decode[errorResponse](t, rec).Code)
	}
}

func TestGetListing_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/listings/0", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "LISTING_NOT_FOUND", decode[errorResponse](t, rec).Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found","code":"not_found"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	env := newTestEnv(t, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	withoutMetrics := newTestEnv(t)
	rec = withoutMetrics.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stoppedSubmitter struct{}

func (stoppedSubmitter) Submit(context.Context, ir.Command) (ir.Receipt, error) {
	return ir.Receipt{}, engine.ErrStopped
}

func TestSubmit_EngineUnavailable(t *testing.T) {
	l, err := ledger.New(ledger.Config{TotalTickets: 1, BaseTicketPrice: 1})
	require.NoError(t, err)
	h := NewServer(stoppedSubmitter{}, l, WithLogger(discard)).Handler()

	req := httptest.NewRequest(http.MethodPost, "/tickets/1/buy", strings.NewReader(`{"payment":"1"}`))
	req.Header.Set(CallerHeader, "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, codeUnavailable, decode[errorResponse](t, rec).Code)
}

func TestStatusForRejection(t *testing.T) {
	tests := map[ledger.RejectionCode]int{
		ledger.CodeOutOfRange:              http.StatusBadRequest,
		ledger.CodePaymentMismatch:         http.StatusBadRequest,
		ledger.CodeInvalidPrice:            http.StatusBadRequest,
		ledger.CodeInvalidCaller:           http.StatusBadRequest,
		ledger.CodeNotOwner:                http.StatusForbidden,
		ledger.CodeInvalidAcceptor:         http.StatusForbidden,
		ledger.CodeListingNotFound:         http.StatusNotFound,
		ledger.CodeAlreadySold:             http.StatusConflict,
		ledger.CodeListingAlreadyFulfilled: http.StatusConflict,
		ledger.CodeNoActiveOffer:           http.StatusConflict,
		"SOMETHING_ELSE":                   http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusForRejection(code), code)
	}
}
