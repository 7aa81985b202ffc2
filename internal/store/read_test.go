package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/boxoffice/internal/ir"
)

func TestReadLedgerConfig_NotInitialized(t *testing.T) {
	s := createTestStore(t)
	if _, err := s.ReadLedgerConfig(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ReadLedgerConfig() = %v, want ErrNotInitialized", err)
	}
}

func TestReadTransitions_Empty(t *testing.T) {
	s := createTestStore(t)

	trs, err := s.ReadTransitions(context.Background())
	if err != nil {
		t.Fatalf("ReadTransitions() failed: %v", err)
	}
	if trs == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(trs) != 0 {
		t.Errorf("len = %d, want 0", len(trs))
	}
}

func TestReadTransitions_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insert out of order.
	mustAppend(t, s,
		createTestTransition(3, "carol", 3),
		createTestTransition(1, "alice", 1),
		createTestTransition(2, "bob", 2),
	)

	trs, err := s.ReadTransitions(ctx)
	if err != nil {
		t.Fatalf("ReadTransitions() failed: %v", err)
	}
	if len(trs) != 3 {
		t.Fatalf("len = %d, want 3", len(trs))
	}
	for i, tr := range trs {
		if tr.Seq != int64(i+1) {
			t.Errorf("trs[%d].Seq = %d, want %d", i, tr.Seq, i+1)
		}
	}

	after, err := s.ReadTransitionsAfter(ctx, 1)
	if err != nil {
		t.Fatalf("ReadTransitionsAfter() failed: %v", err)
	}
	if len(after) != 2 || after[0].Seq != 2 {
		t.Errorf("ReadTransitionsAfter(1) = %+v", after)
	}
}

func TestReadTransition_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := ir.Transition{
		Seq:       1,
		RequestID: "req-1",
		Op:        ir.OpResaleTicket,
		Caller:    "alice",
		Args:      ir.Values{ir.KeyAskPrice: 150_000_000_000_000_000},
		Outcome:   ir.OutcomeCommitted,
		Result:    ir.Values{ir.KeyListing: 0, ir.KeyTicket: 1},
	}
	want.ID = ir.MustTransitionID(want.Seq, want.RequestID, want.Op, want.Caller, want.Args)
	mustAppend(t, s, want)

	got, err := s.ReadTransition(ctx, 1)
	if err != nil {
		t.Fatalf("ReadTransition() failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %+v\nwant %+v", got, want)
	}

	byReq, err := s.ReadTransitionByRequestID(ctx, "req-1")
	if err != nil {
		t.Fatalf("ReadTransitionByRequestID() failed: %v", err)
	}
	if byReq.ID != want.ID {
		t.Errorf("ReadTransitionByRequestID id = %s, want %s", byReq.ID, want.ID)
	}
}

func TestReadTransition_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.ReadTransition(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadTransition(42) = %v, want ErrNotFound", err)
	}
	if _, err := s.ReadTransitionByRequestID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadTransitionByRequestID(nope) = %v, want ErrNotFound", err)
	}
}

func TestReadTransitionsByCaller(t *testing.T) {
	s := createTestStore(t)
	mustAppend(t, s,
		createTestTransition(1, "alice", 1),
		createTestTransition(2, "bob", 2),
		func() ir.Transition {
			tr := createTestTransition(3, "alice", 3)
			tr.RequestID = "req-alice-2"
			tr.ID = ir.MustTransitionID(3, tr.RequestID, tr.Op, tr.Caller, tr.Args)
			return tr
		}(),
	)

	trs, err := s.ReadTransitionsByCaller(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ReadTransitionsByCaller() failed: %v", err)
	}
	if len(trs) != 2 || trs[0].Seq != 1 || trs[1].Seq != 3 {
		t.Errorf("got %+v", trs)
	}
}

func TestLastSeqAndCounts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	if err != nil || seq != 0 {
		t.Fatalf("LastSeq() on empty = %d, %v", seq, err)
	}

	rejected := createTestTransition(2, "bob", 1)
	rejected.Outcome = ir.OutcomeRejected
	rejected.Code = "ALREADY_SOLD"
	mustAppend(t, s, createTestTransition(1, "alice", 1), rejected)

	seq, err = s.LastSeq(ctx)
	if err != nil || seq != 2 {
		t.Errorf("LastSeq() = %d, %v, want 2", seq, err)
	}

	counts, err := s.CountTransitions(ctx)
	if err != nil {
		t.Fatalf("CountTransitions() failed: %v", err)
	}
	if counts != (Counts{Committed: 1, Rejected: 1}) || counts.Total() != 2 {
		t.Errorf("counts = %+v", counts)
	}
}

func TestUnmarshalValues_LargeInteger(t *testing.T) {
	v, err := unmarshalValues(`{"payment":9223372036854775807}`)
	if err != nil {
		t.Fatalf("unmarshalValues() failed: %v", err)
	}
	if v[ir.KeyPayment] != 9223372036854775807 {
		t.Errorf("payment = %d", v[ir.KeyPayment])
	}

	if _, err := unmarshalValues(`{"payment":1.5}`); err == nil {
		t.Error("expected error for float value")
	}
}
