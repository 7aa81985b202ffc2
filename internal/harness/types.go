package harness

import (
	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

// TraceEvent is one recorded transition as seen by a scenario.
// Transition and request ids are left out so traces stay readable; both are
// covered by replay.
type TraceEvent struct {
	Seq     int64      `json:"seq"`
	Op      ir.Op      `json:"op"`
	Caller  string     `json:"caller"`
	Args    ir.Values  `json:"args"`
	Outcome ir.Outcome `json:"outcome"`
	Code    string     `json:"code,omitempty"`
	Result  ir.Values  `json:"result,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step matched its expectation, replay
	// reproduced the ledger and every assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed check. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final ledger snapshot.
	State ledger.State `json:"state"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTransition appends t to the trace.
func (r *Result) AddTransition(t ir.Transition) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     t.Seq,
		Op:      t.Op,
		Caller:  t.Caller,
		Args:    t.Args,
		Outcome: t.Outcome,
		Code:    t.Code,
		Result:  t.Result,
	})
}
