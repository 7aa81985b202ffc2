package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/roach88/boxoffice/internal/amount"
	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

type paymentRequest struct {
	Payment string `json:"payment"`
}

type swapAcceptRequest struct {
	CounterTicketID int `json:"counter_ticket_id"`
}

type listingRequest struct {
	AskPrice string `json:"ask_price"`
	TicketID int    `json:"ticket_id,omitempty"`
}

type ticketResponse struct {
	ID    int            `json:"id"`
	Owner string         `json:"owner,omitempty"`
	Price string         `json:"price"`
	Offer *offerResponse `json:"offer,omitempty"`
}

type offerResponse struct {
	Offeror string `json:"offeror"`
	Active  bool   `json:"active"`
}

type listingResponse struct {
	Index     int    `json:"index"`
	TicketID  int    `json:"ticket_id"`
	Seller    string `json:"seller"`
	AskPrice  string `json:"ask_price"`
	Fulfilled bool   `json:"fulfilled"`
	Buyer     string `json:"buyer,omitempty"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := s.callerAndInt(w, r, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	payment, ok := parseAmount(w, "payment", req.Payment)
	if !ok {
		return
	}

	s.submit(w, r, http.StatusOK, ir.Command{
		Op:       ir.OpBuyTicket,
		Caller:   caller,
		TicketID: id,
		Payment:  int64(payment),
	})
}

func (s *Server) handleOfferSwap(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := s.callerAndInt(w, r, "id")
	if !ok {
		return
	}
	s.submit(w, r, http.StatusOK, ir.Command{
		Op:       ir.OpOfferSwap,
		Caller:   caller,
		TicketID: id,
	})
}

func (s *Server) handleAcceptSwap(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := s.callerAndInt(w, r, "id")
	if !ok {
		return
	}
	var req swapAcceptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CounterTicketID == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "counter_ticket_id is required")
		return
	}

	s.submit(w, r, http.StatusOK, ir.Command{
		Op:              ir.OpAcceptSwap,
		Caller:          caller,
		TicketID:        id,
		CounterTicketID: req.CounterTicketID,
	})
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req listingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ask, ok := parseAmount(w, "ask_price", req.AskPrice)
	if !ok {
		return
	}

	s.submit(w, r, http.StatusCreated, ir.Command{
		Op:       ir.OpResaleTicket,
		Caller:   caller,
		TicketID: req.TicketID,
		AskPrice: int64(ask),
	})
}

func (s *Server) handleAcceptListing(w http.ResponseWriter, r *http.Request) {
	caller, index, ok := s.callerAndInt(w, r, "index")
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	payment, ok := parseAmount(w, "payment", req.Payment)
	if !ok {
		return
	}

	s.submit(w, r, http.StatusOK, ir.Command{
		Op:           ir.OpAcceptResale,
		Caller:       caller,
		ListingIndex: index,
		Payment:      int64(payment),
	})
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if id < 1 || id > s.ledger.TotalTickets() {
		writeError(w, StatusForRejection(ledger.CodeOutOfRange), string(ledger.CodeOutOfRange),
			fmt.Sprintf("ticket %d outside [1, %d]", id, s.ledger.TotalTickets()))
		return
	}

	t := s.ledger.Ticket(id)
	resp := ticketResponse{
		ID:    t.ID,
		Owner: string(t.Owner),
		Price: amount.Format(t.Price),
	}
	if offer := s.ledger.SwapOffer(id); offer.Active {
		resp.Offer = &offerResponse{Offeror: string(offer.Offeror), Active: true}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}
	l := s.ledger.ResaleListing(index)
	if !l.Exists() {
		writeError(w, StatusForRejection(ledger.CodeListingNotFound), string(ledger.CodeListingNotFound),
			fmt.Sprintf("no listing at index %d", index))
		return
	}
	writeJSON(w, http.StatusOK, listingResponse{
		Index:     l.Index,
		TicketID:  l.TicketID,
		Seller:    string(l.Seller),
		AskPrice:  amount.Format(l.AskPrice),
		Fulfilled: l.Fulfilled,
		Buyer:     string(l.Buyer),
	})
}

// submit sends cmd through the engine and writes the receipt or error.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, status int, cmd ir.Command) {
	receipt, err := s.submitter.Submit(r.Context(), cmd)
	if err != nil {
		if !ledger.IsRejection(err) {
			s.logger.Error("submit failed", "op", cmd.Op, "caller", cmd.Caller, "error", err)
		}
		writeSubmitError(w, receipt.Seq, err)
		return
	}
	writeJSON(w, status, receipt)
}

func callerFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get(CallerHeader)
	if caller == "" {
		writeError(w, http.StatusBadRequest, string(ledger.CodeInvalidCaller), CallerHeader+" header is required")
		return "", false
	}
	return caller, true
}

func (s *Server) callerAndInt(w http.ResponseWriter, r *http.Request, name string) (string, int, bool) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return "", 0, false
	}
	n, ok := pathInt(w, r, name)
	return caller, n, ok
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidID, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return n, true
}

// decodeBody decodes a JSON body into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

func parseAmount(w http.ResponseWriter, field, s string) (ledger.Amount, bool) {
	if s == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, field+" is required")
		return 0, false
	}
	a, err := amount.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidAmount, fmt.Sprintf("%s: %v", field, err))
		return 0, false
	}
	return a, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
