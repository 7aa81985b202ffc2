package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/boxoffice/internal/amount"
	"github.com/roach88/boxoffice/internal/ledger"
)

// AssertionError is returned when an assertion fails. It carries the trace
// so the failure can be read without re-running the scenario.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s by %q %v -> %s", event.Seq, event.Op, event.Caller, event.Args, event.Outcome)
		if event.Code != "" {
			fmt.Fprintf(&buf, " (%s)", event.Code)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against the final ledger and the
// result's trace, returning one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, l *ledger.Ledger) []string {
	var errs []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOwner:
			err = assertOwner(l, a, result.Trace)
		case AssertOffer:
			err = assertOffer(l, a, result.Trace)
		case AssertListing:
			err = assertListing(l, a, result.Trace)
		case AssertSold:
			err = assertSold(l, a, result.Trace)
		case AssertProceeds:
			err = assertProceeds(l, a, result.Trace)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func describeOwner(a ledger.Address) string {
	if a == "" {
		return "unsold"
	}
	return fmt.Sprintf("%q", a)
}

func assertOwner(l *ledger.Ledger, a Assertion, trace []TraceEvent) error {
	got := l.TicketOwner(a.Ticket)
	if got == ledger.Address(a.Expect) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOwner,
		Expected: fmt.Sprintf("ticket %d owned by %s", a.Ticket, describeOwner(ledger.Address(a.Expect))),
		Actual:   fmt.Sprintf("owned by %s", describeOwner(got)),
		Trace:    trace,
	}
}

func assertOffer(l *ledger.Ledger, a Assertion, trace []TraceEvent) error {
	offer := l.SwapOffer(a.Ticket)
	if offer.Active != *a.Active {
		return &AssertionError{
			Type:     AssertOffer,
			Expected: fmt.Sprintf("offer on ticket %d active=%t", a.Ticket, *a.Active),
			Actual:   fmt.Sprintf("active=%t", offer.Active),
			Trace:    trace,
		}
	}
	if a.Offeror != "" && offer.Offeror != ledger.Address(a.Offeror) {
		return &AssertionError{
			Type:     AssertOffer,
			Expected: fmt.Sprintf("offer on ticket %d by %q", a.Ticket, a.Offeror),
			Actual:   fmt.Sprintf("offeror %q", offer.Offeror),
			Trace:    trace,
		}
	}
	return nil
}

func assertListing(l *ledger.Ledger, a Assertion, trace []TraceEvent) error {
	listing := l.ResaleListing(a.Index)
	fail := func(expected, actual string) error {
		return &AssertionError{
			Type:     AssertListing,
			Expected: fmt.Sprintf("listing %d %s", a.Index, expected),
			Actual:   actual,
			Trace:    trace,
		}
	}

	if !listing.Exists() {
		return fail("to exist", fmt.Sprintf("only %d listings", l.ListingCount()))
	}
	if a.Fulfilled != nil && listing.Fulfilled != *a.Fulfilled {
		return fail(fmt.Sprintf("fulfilled=%t", *a.Fulfilled), fmt.Sprintf("fulfilled=%t", listing.Fulfilled))
	}
	if a.Seller != "" && listing.Seller != ledger.Address(a.Seller) {
		return fail(fmt.Sprintf("seller %q", a.Seller), fmt.Sprintf("seller %q", listing.Seller))
	}
	if a.Buyer != "" && listing.Buyer != ledger.Address(a.Buyer) {
		return fail(fmt.Sprintf("buyer %q", a.Buyer), fmt.Sprintf("buyer %q", listing.Buyer))
	}
	if a.AskPrice != "" {
		want := amount.MustParse(a.AskPrice)
		if listing.AskPrice != want {
			return fail("ask "+amount.Format(want), "ask "+amount.Format(listing.AskPrice))
		}
	}
	return nil
}

func assertSold(l *ledger.Ledger, a Assertion, trace []TraceEvent) error {
	if got := l.Sold(); got != *a.Count {
		return &AssertionError{
			Type:     AssertSold,
			Expected: fmt.Sprintf("%d tickets sold", *a.Count),
			Actual:   fmt.Sprintf("%d sold", got),
			Trace:    trace,
		}
	}
	return nil
}

func assertProceeds(l *ledger.Ledger, a Assertion, trace []TraceEvent) error {
	want := amount.MustParse(a.Amount)
	if got := l.Proceeds(ledger.Address(a.Address)); got != want {
		return &AssertionError{
			Type:     AssertProceeds,
			Expected: fmt.Sprintf("%q credited %s", a.Address, amount.Format(want)),
			Actual:   amount.Format(got),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount counts transitions matching the op and outcome filters.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if a.Op != "" && event.Op != a.Op {
			continue
		}
		if a.Outcome != "" && event.Outcome != a.Outcome {
			continue
		}
		count++
	}

	if count != *a.Count {
		what := "transitions"
		if a.Op != "" {
			what = string(a.Op)
		}
		if a.Outcome != "" {
			what += " " + string(a.Outcome)
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s", *a.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}
