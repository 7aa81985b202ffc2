// Package config loads ledger construction config from CUE files.
//
//	total_tickets:     100
//	base_ticket_price: "0.01ether"
//	organizer:         "venue"
//
// Files are unified with an embedded #Ledger schema, so unknown fields and
// out-of-range values are reported with their CUE source position.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/boxoffice/internal/amount"
	"github.com/roach88/boxoffice/internal/ledger"
)

//go:embed schema.cue
var schemaSource string

// Error is a config problem, with the CUE position when one is known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// file mirrors #Ledger for decoding.
type file struct {
	TotalTickets    int    `json:"total_tickets"`
	BaseTicketPrice string `json:"base_ticket_price"`
	Organizer       string `json:"organizer"`
}

// Load reads and validates the CUE config at path.
func Load(path string) (ledger.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}

// Parse validates src against the schema and converts it to a ledger.Config.
// filename is only used in error positions.
func Parse(filename string, src []byte) (ledger.Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return ledger.Config{}, fmt.Errorf("compile embedded schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return ledger.Config{}, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Ledger")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return ledger.Config{}, formatCUEError(err)
	}

	var f file
	if err := unified.Decode(&f); err != nil {
		return ledger.Config{}, formatCUEError(err)
	}

	price, err := amount.Parse(f.BaseTicketPrice)
	if err != nil {
		return ledger.Config{}, &Error{
			Field:   "base_ticket_price",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("base_ticket_price")).Pos(),
		}
	}

	cfg := ledger.Config{
		TotalTickets:    f.TotalTickets,
		BaseTicketPrice: price,
		Organizer:       ledger.Address(f.Organizer),
	}
	if err := cfg.Validate(); err != nil {
		return ledger.Config{}, &Error{Field: "ledger", Message: err.Error()}
	}
	return cfg, nil
}

// Overrides are command-line replacements for file values.
// Zero fields leave the file value in place.
type Overrides struct {
	TotalTickets    int
	BaseTicketPrice string
	Organizer       string
}

// Apply returns cfg with the non-zero overrides substituted.
func (o Overrides) Apply(cfg ledger.Config) (ledger.Config, error) {
	if o.TotalTickets != 0 {
		cfg.TotalTickets = o.TotalTickets
	}
	if o.BaseTicketPrice != "" {
		price, err := amount.Parse(o.BaseTicketPrice)
		if err != nil {
			return ledger.Config{}, &Error{Field: "price", Message: err.Error()}
		}
		cfg.BaseTicketPrice = price
	}
	if o.Organizer != "" {
		cfg.Organizer = ledger.Address(o.Organizer)
	}
	if cfg.Organizer == "" {
		cfg.Organizer = ledger.DefaultOrganizer
	}
	if err := cfg.Validate(); err != nil {
		return ledger.Config{}, &Error{Field: "ledger", Message: err.Error()}
	}
	return cfg, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	e := &Error{Field: "cue", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		e.Field = path[len(path)-1]
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
