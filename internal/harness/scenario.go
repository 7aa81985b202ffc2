package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/boxoffice/internal/amount"
	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

// Scenario is a scripted sequence of ledger operations plus the checks to
// run afterwards.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	Ledger LedgerSpec `yaml:"ledger"`

	// Steps are submitted in order, each waiting for the previous receipt.
	Steps []Step `yaml:"steps"`

	// Assertions run against the final ledger and the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// LedgerSpec is the construction config in scenario form. Prices are amount
// strings such as "0.1ether".
type LedgerSpec struct {
	TotalTickets    int    `yaml:"total_tickets"`
	BaseTicketPrice string `yaml:"base_ticket_price"`
	Organizer       string `yaml:"organizer,omitempty"`
}

// Config converts the ledger section into a ledger.Config.
func (s LedgerSpec) Config() (ledger.Config, error) {
	price, err := amount.Parse(s.BaseTicketPrice)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("base_ticket_price: %w", err)
	}
	cfg := ledger.Config{
		TotalTickets:    s.TotalTickets,
		BaseTicketPrice: price,
		Organizer:       ledger.Address(s.Organizer),
	}
	if err := cfg.Validate(); err != nil {
		return ledger.Config{}, err
	}
	return cfg, nil
}

// Step is one submitted command.
type Step struct {
	Op            ir.Op  `yaml:"op"`
	Caller        string `yaml:"caller"`
	Ticket        int    `yaml:"ticket,omitempty"`
	CounterTicket int    `yaml:"counter_ticket,omitempty"`
	Listing       int    `yaml:"listing,omitempty"`
	Payment       string `yaml:"payment,omitempty"`
	AskPrice      string `yaml:"ask_price,omitempty"`

	// Expect defaults to a committed outcome when omitted.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the outcome a step must produce.
type Expect struct {
	Outcome ir.Outcome `yaml:"outcome"`
	Code    string     `yaml:"code,omitempty"`
}

// Command converts the step into an engine command. The request id is left
// empty for the engine's generator.
func (s Step) Command() (ir.Command, error) {
	cmd := ir.Command{
		Op:              s.Op,
		Caller:          s.Caller,
		TicketID:        s.Ticket,
		CounterTicketID: s.CounterTicket,
		ListingIndex:    s.Listing,
	}
	if s.Payment != "" {
		p, err := amount.Parse(s.Payment)
		if err != nil {
			return ir.Command{}, fmt.Errorf("payment: %w", err)
		}
		cmd.Payment = int64(p)
	}
	if s.AskPrice != "" {
		p, err := amount.Parse(s.AskPrice)
		if err != nil {
			return ir.Command{}, fmt.Errorf("ask_price: %w", err)
		}
		cmd.AskPrice = int64(p)
	}
	return cmd, nil
}

func (s Step) expected() Expect {
	if s.Expect == nil {
		return Expect{Outcome: ir.OutcomeCommitted}
	}
	return *s.Expect
}

func (s Step) String() string {
	return fmt.Sprintf("%s by %q", s.Op, s.Caller)
}

// Assertion checks the final ledger or the trace.
type Assertion struct {
	// Type is one of owner, offer, listing, sold, proceeds, trace_count.
	Type string `yaml:"type"`

	// Ticket selects the ticket for owner and offer.
	Ticket int `yaml:"ticket,omitempty"`

	// Index selects the listing for listing.
	Index int `yaml:"index,omitempty"`

	// Expect is the expected owner for owner; empty means unsold.
	Expect string `yaml:"expect,omitempty"`

	// Active and Offeror are checked by offer.
	Active  *bool  `yaml:"active,omitempty"`
	Offeror string `yaml:"offeror,omitempty"`

	// Fulfilled, Seller, Buyer and AskPrice are checked by listing when set.
	Fulfilled *bool  `yaml:"fulfilled,omitempty"`
	Seller    string `yaml:"seller,omitempty"`
	Buyer     string `yaml:"buyer,omitempty"`
	AskPrice  string `yaml:"ask_price,omitempty"`

	// Count is used by sold and trace_count.
	Count *int `yaml:"count,omitempty"`

	// Address and Amount are used by proceeds.
	Address string `yaml:"address,omitempty"`
	Amount  string `yaml:"amount,omitempty"`

	// Op and Outcome filter trace_count; empty matches all.
	Op      ir.Op      `yaml:"op,omitempty"`
	Outcome ir.Outcome `yaml:"outcome,omitempty"`
}

// Assertion type constants.
const (
	AssertOwner      = "owner"
	AssertOffer      = "offer"
	AssertListing    = "listing"
	AssertSold       = "sold"
	AssertProceeds   = "proceeds"
	AssertTraceCount = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir, sorted. A
// non-empty filter is matched against the file name without extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	slices.Sort(files)
	return files, err
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := s.Ledger.Config(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !step.Op.Valid() {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if _, err := step.Command(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Expect == nil {
			continue
		}
		switch step.Expect.Outcome {
		case ir.OutcomeCommitted:
			if step.Expect.Code != "" {
				return fmt.Errorf("steps[%d].expect: code is only valid for rejected outcomes", i)
			}
		case ir.OutcomeRejected:
		default:
			return fmt.Errorf("steps[%d].expect: outcome must be committed or rejected, got %q", i, step.Expect.Outcome)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOwner:
		if a.Ticket <= 0 {
			return fmt.Errorf("assertions[%d]: ticket is required for owner", index)
		}
	case AssertOffer:
		if a.Ticket <= 0 {
			return fmt.Errorf("assertions[%d]: ticket is required for offer", index)
		}
		if a.Active == nil {
			return fmt.Errorf("assertions[%d]: active is required for offer", index)
		}
	case AssertListing:
		if a.Fulfilled == nil && a.Seller == "" && a.Buyer == "" && a.AskPrice == "" {
			return fmt.Errorf("assertions[%d]: listing needs at least one of fulfilled, seller, buyer, ask_price", index)
		}
		if a.AskPrice != "" {
			if _, err := amount.Parse(a.AskPrice); err != nil {
				return fmt.Errorf("assertions[%d]: ask_price: %w", index, err)
			}
		}
	case AssertSold:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for sold", index)
		}
	case AssertProceeds:
		if a.Address == "" {
			return fmt.Errorf("assertions[%d]: address is required for proceeds", index)
		}
		if _, err := amount.Parse(a.Amount); err != nil {
			return fmt.Errorf("assertions[%d]: amount: %w", index, err)
		}
	case AssertTraceCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for trace_count", index)
		}
		if a.Op != "" && !a.Op.Valid() {
			return fmt.Errorf("assertions[%d]: unknown op %q", index, a.Op)
		}
		if a.Outcome != "" && a.Outcome != ir.OutcomeCommitted && a.Outcome != ir.OutcomeRejected {
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
