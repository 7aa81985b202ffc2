package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

var testConfig = ledger.Config{TotalTickets: 10, BaseTicketPrice: 100, Organizer: "venue"}

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTransition builds a committed buyTicket transition with a real ID.
func createTestTransition(seq int64, caller string, ticket int) ir.Transition {
	cmd := ir.Command{
		RequestID: "req-" + caller,
		Op:        ir.OpBuyTicket,
		Caller:    caller,
		TicketID:  ticket,
		Payment:   100,
	}
	args := cmd.Args()
	return ir.Transition{
		ID:        ir.MustTransitionID(seq, cmd.RequestID, cmd.Op, caller, args),
		Seq:       seq,
		RequestID: cmd.RequestID,
		Op:        cmd.Op,
		Caller:    caller,
		Args:      args,
		Outcome:   ir.OutcomeCommitted,
	}
}

func mustAppend(t *testing.T, s *Store, trs ...ir.Transition) {
	t.Helper()
	for _, tr := range trs {
		if err := s.AppendTransition(context.Background(), tr); err != nil {
			t.Fatalf("AppendTransition(seq=%d) failed: %v", tr.Seq, err)
		}
	}
}
