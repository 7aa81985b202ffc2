package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/boxoffice/internal/engine"
	"github.com/roach88/boxoffice/internal/ledger"
	"github.com/roach88/boxoffice/internal/store"
	"github.com/roach88/boxoffice/internal/testutil"
)

// Harness holds the per-run fixtures of one scenario.
type Harness struct {
	store  *store.Store
	ledger *ledger.Ledger
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	ids    *testutil.SequentialRequestIDs
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh in-memory store and record the ledger config
//  2. Start an engine over a new ledger
//  3. Submit each step and check its outcome against expect
//  4. Read the trace back from the store
//  5. Replay the log and compare the rebuilt ledger with the live one
//  6. Evaluate assertions
//
// The returned error is reserved for infrastructure failures; scenario
// failures are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	cfg, err := scenario.Ledger.Config()
	if err != nil {
		return nil, fmt.Errorf("ledger config: %w", err)
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.InitLedger(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to init ledger: %w", err)
	}
	l, err := ledger.New(cfg)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:  st,
		ledger: l,
		clock:  testutil.NewDeterministicClock(),
		ids:    testutil.NewSequentialRequestIDs(scenario.Name),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	h.engine = engine.New(l,
		engine.WithRecorder(st),
		engine.WithSequencer(h.clock),
		engine.WithRequestIDs(h.ids),
		engine.WithLogger(h.logger),
	)

	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()

	result := NewResult()
	stepErr := h.executeSteps(ctx, scenario.Steps, result)

	h.engine.Stop()
	if err := <-done; err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if stepErr != nil {
		return nil, stepErr
	}

	transitions, err := st.ReadTransitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	for _, t := range transitions {
		result.AddTransition(t)
	}

	h.verifyReplay(ctx, result)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, l) {
		result.AddError(msg)
	}
	result.State = l.Snapshot()

	return result, nil
}

// executeSteps submits every step in order. A rejection is an ordinary
// outcome; only engine failures abort the run.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		cmd, err := step.Command()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		receipt, err := h.engine.Submit(ctx, cmd)
		if err != nil && !ledger.IsRejection(err) {
			return fmt.Errorf("step %d (%s): %w", i, step, err)
		}

		want := step.expected()
		switch {
		case receipt.Outcome != want.Outcome:
			msg := fmt.Sprintf("step %d (%s): expected %s, got %s", i, step, want.Outcome, receipt.Outcome)
			if receipt.Code != "" {
				msg += fmt.Sprintf(" (%s: %s)", receipt.Code, receipt.Message)
			}
			result.AddError(msg)
		case want.Code != "" && receipt.Code != want.Code:
			result.AddError(fmt.Sprintf("step %d (%s): expected code %s, got %s", i, step, want.Code, receipt.Code))
		}

		h.logger.Info("step completed",
			"step", i,
			"op", step.Op,
			"seq", receipt.Seq,
			"outcome", receipt.Outcome,
			"code", receipt.Code,
		)
	}
	return nil
}

// verifyReplay rebuilds the ledger from the store and checks it against the
// live one.
func (h *Harness) verifyReplay(ctx context.Context, result *Result) {
	replayed, err := engine.Replay(ctx, h.store)
	if err != nil {
		result.AddError(fmt.Sprintf("replay failed: %v", err))
		return
	}
	if replayed.LastSeq != h.clock.Current() {
		result.AddError(fmt.Sprintf("replay stopped at seq %d, engine reached %d", replayed.LastSeq, h.clock.Current()))
	}
	if !replayed.Ledger.Snapshot().Equal(h.ledger.Snapshot()) {
		result.AddError("replayed ledger differs from live ledger")
	}
}
