package engine

import (
	"context"
	"fmt"
	"maps"

	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

// ReplaySource is the read side of the log. *store.Store implements it.
type ReplaySource interface {
	ReadLedgerConfig(ctx context.Context) (ledger.Config, error)
	ReadTransitions(ctx context.Context) ([]ir.Transition, error)
}

// ReplayResult is a ledger rebuilt from a log.
type ReplayResult struct {
	Ledger    *ledger.Ledger
	LastSeq   int64
	Committed int
	Rejected  int
}

// Replay rebuilds the ledger by re-applying every recorded transition in seq
// order. Each replayed transition must reproduce the recorded ID, outcome,
// code and result; the first mismatch is returned as *ReplayError.
//
// Resume an engine after Replay with:
//
//	engine.New(res.Ledger, engine.WithSequencer(engine.NewClockAt(res.LastSeq)), ...)
func Replay(ctx context.Context, src ReplaySource) (*ReplayResult, error) {
	cfg, err := src.ReadLedgerConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	l, err := ledger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	transitions, err := src.ReadTransitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	res := &ReplayResult{Ledger: l}
	for _, recorded := range transitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if recorded.Seq <= res.LastSeq {
			return nil, &ReplayError{
				Seq:      recorded.Seq,
				Field:    "seq",
				Recorded: fmt.Sprint(recorded.Seq),
				Replayed: fmt.Sprintf("> %d", res.LastSeq),
			}
		}

		cmd, err := recorded.Command()
		if err != nil {
			return nil, fmt.Errorf("replay seq=%d: %w", recorded.Seq, err)
		}
		replayed, _, err := Apply(l, recorded.Seq, cmd)
		if err != nil {
			return nil, fmt.Errorf("replay seq=%d: %w", recorded.Seq, err)
		}
		if err := compareTransitions(recorded, replayed); err != nil {
			return nil, err
		}

		res.LastSeq = recorded.Seq
		if replayed.Committed() {
			res.Committed++
		} else {
			res.Rejected++
		}
	}
	return res, nil
}

func compareTransitions(recorded, replayed ir.Transition) error {
	diverged := func(field, a, b string) error {
		return &ReplayError{Seq: recorded.Seq, Field: field, Recorded: a, Replayed: b}
	}

	switch {
	case recorded.ID != replayed.ID:
		return diverged("id", recorded.ID, replayed.ID)
	case recorded.Outcome != replayed.Outcome:
		return diverged("outcome", string(recorded.Outcome), string(replayed.Outcome))
	case recorded.Code != replayed.Code:
		return diverged("code", recorded.Code, replayed.Code)
	case !maps.Equal(recorded.Result, replayed.Result):
		return diverged("result", fmt.Sprint(recorded.Result), fmt.Sprint(replayed.Result))
	}
	return nil
}
