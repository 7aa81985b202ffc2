package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

// Apply executes cmd against l and returns the transition to record.
//
// rejection is the ledger's *ledger.Rejection when the command was rejected;
// the transition then carries its code and message. err is reserved for
// commands that cannot be applied at all (unknown op).
func Apply(l *ledger.Ledger, seq int64, cmd ir.Command) (t ir.Transition, rejection error, err error) {
	args := cmd.Args()
	id, err := ir.TransitionID(seq, cmd.RequestID, cmd.Op, cmd.Caller, args)
	if err != nil {
		return ir.Transition{}, nil, err
	}

	t = ir.Transition{
		ID:        id,
		Seq:       seq,
		RequestID: cmd.RequestID,
		Op:        cmd.Op,
		Caller:    cmd.Caller,
		Args:      args,
		Outcome:   ir.OutcomeCommitted,
	}

	caller := ledger.Address(cmd.Caller)
	switch cmd.Op {
	case ir.OpBuyTicket:
		rejection = l.BuyTicket(cmd.TicketID, ledger.Amount(cmd.Payment), caller)

	case ir.OpOfferSwap:
		rejection = l.OfferSwap(cmd.TicketID, caller)

	case ir.OpAcceptSwap:
		rejection = l.AcceptSwap(cmd.TicketID, cmd.CounterTicketID, caller)

	case ir.OpResaleTicket:
		var idx int
		if cmd.TicketID != 0 {
			idx, rejection = l.ListTicket(cmd.TicketID, ledger.Amount(cmd.AskPrice), caller)
		} else {
			idx, rejection = l.ResaleTicket(ledger.Amount(cmd.AskPrice), caller)
		}
		if rejection == nil {
			t.Result = ir.Values{
				ir.KeyListing: int64(idx),
				ir.KeyTicket:  int64(l.ResaleListing(idx).TicketID),
			}
		}

	case ir.OpAcceptResale:
		rejection = l.AcceptResale(cmd.ListingIndex, ledger.Amount(cmd.Payment), caller)
		if rejection == nil {
			t.Result = ir.Values{ir.KeyTicket: int64(l.ResaleListing(cmd.ListingIndex).TicketID)}
		}

	default:
		return ir.Transition{}, nil, &EngineError{
			Code:      ErrCodeInvalidCommand,
			Message:   fmt.Sprintf("unknown op %q", cmd.Op),
			Seq:       seq,
			RequestID: cmd.RequestID,
		}
	}

	if rejection != nil {
		var r *ledger.Rejection
		if !errors.As(rejection, &r) {
			return ir.Transition{}, nil, fmt.Errorf("%s: unexpected ledger error: %w", cmd.Op, rejection)
		}
		t.Outcome = ir.OutcomeRejected
		t.Code = string(r.Code)
		t.Message = r.Message
		t.Result = nil
	}
	return t, rejection, nil
}
