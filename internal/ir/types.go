package ir

import "fmt"

// Op names a ledger state transition.
type Op string

const (
	OpBuyTicket    Op = "buyTicket"
	OpOfferSwap    Op = "offerSwap"
	OpAcceptSwap   Op = "acceptSwap"
	OpResaleTicket Op = "resaleTicket"
	OpAcceptResale Op = "acceptResale"
)

// Ops lists every transition in declaration order.
var Ops = []Op{OpBuyTicket, OpOfferSwap, OpAcceptSwap, OpResaleTicket, OpAcceptResale}

// Valid reports whether op is a known transition.
func (op Op) Valid() bool {
	for _, o := range Ops {
		if o == op {
			return true
		}
	}
	return false
}

// Outcome is the result class of an applied transition.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeRejected  Outcome = "rejected"
)

// Argument and result keys.
const (
	KeyTicket        = "ticket"
	KeyCounterTicket = "counter_ticket"
	KeyListing       = "listing"
	KeyPayment       = "payment"
	KeyAskPrice      = "ask_price"
)

// Values holds the integer arguments or results of a transition.
type Values map[string]int64

// Get returns the value for key and whether it was present.
func (v Values) Get(key string) (int64, bool) {
	x, ok := v[key]
	return x, ok
}

// Command is a request to apply one transition.
// Only the fields relevant to Op are read.
type Command struct {
	RequestID       string `json:"request_id"`
	Op              Op     `json:"op"`
	Caller          string `json:"caller"`
	TicketID        int    `json:"ticket_id,omitempty"`
	CounterTicketID int    `json:"counter_ticket_id,omitempty"`
	ListingIndex    int    `json:"listing_index,omitempty"`
	Payment         int64  `json:"payment,omitempty"`
	AskPrice        int64  `json:"ask_price,omitempty"`
}

// Args returns the arguments relevant to the command's op.
// For resaleTicket a zero TicketID means "pick for me" and is omitted.
func (c Command) Args() Values {
	switch c.Op {
	case OpBuyTicket:
		return Values{KeyTicket: int64(c.TicketID), KeyPayment: c.Payment}
	case OpOfferSwap:
		return Values{KeyTicket: int64(c.TicketID)}
	case OpAcceptSwap:
		return Values{KeyTicket: int64(c.TicketID), KeyCounterTicket: int64(c.CounterTicketID)}
	case OpResaleTicket:
		args := Values{KeyAskPrice: c.AskPrice}
		if c.TicketID != 0 {
			args[KeyTicket] = int64(c.TicketID)
		}
		return args
	case OpAcceptResale:
		return Values{KeyListing: int64(c.ListingIndex), KeyPayment: c.Payment}
	default:
		return Values{}
	}
}

// CommandFromArgs rebuilds a Command from a recorded op and its args.
func CommandFromArgs(requestID string, op Op, caller string, args Values) (Command, error) {
	if !op.Valid() {
		return Command{}, fmt.Errorf("unknown op %q", op)
	}
	return Command{
		RequestID:       requestID,
		Op:              op,
		Caller:          caller,
		TicketID:        int(args[KeyTicket]),
		CounterTicketID: int(args[KeyCounterTicket]),
		ListingIndex:    int(args[KeyListing]),
		Payment:         args[KeyPayment],
		AskPrice:        args[KeyAskPrice],
	}, nil
}

// Transition is one entry of the append-only log. Rejected commands are
// recorded too so replay can verify they are still rejected.
type Transition struct {
	ID        string  `json:"id"` // Content-addressed hash
	Seq       int64   `json:"seq"`
	RequestID string  `json:"request_id"`
	Op        Op      `json:"op"`
	Caller    string  `json:"caller"`
	Args      Values  `json:"args"`
	Outcome   Outcome `json:"outcome"`
	Code      string  `json:"code,omitempty"`    // Rejection code
	Message   string  `json:"message,omitempty"` // Rejection detail
	Result    Values  `json:"result,omitempty"`
}

// Command returns the command that produced t.
func (t Transition) Command() (Command, error) {
	return CommandFromArgs(t.RequestID, t.Op, t.Caller, t.Args)
}

// Committed reports whether the transition changed ledger state.
func (t Transition) Committed() bool {
	return t.Outcome == OutcomeCommitted
}

// Receipt is returned to submitters once their command has been applied.
type Receipt struct {
	TransitionID string  `json:"transition_id"`
	Seq          int64   `json:"seq"`
	RequestID    string  `json:"request_id"`
	Op           Op      `json:"op"`
	Outcome      Outcome `json:"outcome"`
	Code         string  `json:"code,omitempty"`
	Message      string  `json:"message,omitempty"`
	Result       Values  `json:"result,omitempty"`
}

// Receipt converts t for return to a submitter.
func (t Transition) Receipt() Receipt {
	return Receipt{
		TransitionID: t.ID,
		Seq:          t.Seq,
		RequestID:    t.RequestID,
		Op:           t.Op,
		Outcome:      t.Outcome,
		Code:         t.Code,
		Message:      t.Message,
		Result:       t.Result,
	}
}
