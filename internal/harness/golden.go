package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/boxoffice/internal/ir"
)

// GoldenDir is where RunWithGolden and AssertGolden keep fixtures, relative
// to the test's package directory.
const GoldenDir = "testdata/golden"

// CanonicalTrace serializes a scenario trace as canonical JSON. Golden
// files hold exactly these bytes, with no trailing newline.
func CanonicalTrace(scenarioName string, trace []TraceEvent) ([]byte, error) {
	events := make([]any, len(trace))
	for i, event := range trace {
		args := event.Args
		if args == nil {
			args = ir.Values{}
		}
		m := map[string]any{
			"seq":     event.Seq,
			"op":      event.Op,
			"caller":  event.Caller,
			"args":    args,
			"outcome": event.Outcome,
		}
		if event.Code != "" {
			m["code"] = event.Code
		}
		if len(event.Result) > 0 {
			m["result"] = event.Result
		}
		events[i] = m
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         events,
	})
}

// RunWithGolden runs a scenario, fails t if it did not pass, and compares
// its trace against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against the golden file
// for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := CanonicalTrace(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
