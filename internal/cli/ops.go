package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/boxoffice/internal/amount"
	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

// OpOptions holds the flags shared by mutating commands.
type OpOptions struct {
	*RootOptions
	Database  string
	Caller    string
	RequestID string
}

// ReceiptResult is the output of a mutating command.
type ReceiptResult struct {
	ir.Receipt
	Caller string `json:"caller"`
}

// RenderText implements TextRenderer.
func (r ReceiptResult) RenderText(w io.Writer) {
	mark := "✓"
	if r.Outcome != ir.OutcomeCommitted {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s by %s %s (seq %d)\n", mark, r.Op, r.Caller, r.Outcome, r.Seq)
	if r.Code != "" {
		fmt.Fprintf(w, "  %s: %s\n", r.Code, r.Message)
	}
	keys := make([]string, 0, len(r.Result))
	for k := range r.Result {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, r.Result[k])
	}
	fmt.Fprintf(w, "  request: %s\n", r.RequestID)
	fmt.Fprintf(w, "  transition: %s\n", r.TransitionID)
}

func newOpOptions(rootOpts *RootOptions) *OpOptions {
	return &OpOptions{RootOptions: rootOpts}
}

func addOpFlags(cmd *cobra.Command, opts *OpOptions) {
	addDatabaseFlag(cmd, &opts.Database)
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "address submitting the operation (required)")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "request id (default: generated UUIDv7)")
	_ = cmd.MarkFlagRequired("caller")
}

// runOp replays the database, builds the command against the current
// ledger, and submits it through a fresh engine.
func runOp(opts *OpOptions, cmd *cobra.Command, build func(l *ledger.Ledger) (ir.Command, error)) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, opts.Database, opts.Logger(cmd, slog.LevelWarn))
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := build(s.ledger)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}
	c.Caller = opts.Caller
	c.RequestID = opts.RequestID

	s.start(ctx)
	receipt, err := s.submit(ctx, c)
	out := opts.Output(cmd)
	result := ReceiptResult{Receipt: receipt, Caller: c.Caller}

	var rej *ledger.Rejection
	switch {
	case errors.As(err, &rej):
		if outErr := out.Error(string(rej.Code), rej.Message, result); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s rejected: %s", c.Op, rej.Code))
	case err != nil:
		return WrapExitError(ExitFailure, "submit failed", err)
	}
	return out.Success(result)
}

func parseIntArg(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, s)
	}
	return n, nil
}

// NewBuyCommand creates the buy command.
func NewBuyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newOpOptions(rootOpts)
	var payment string

	cmd := &cobra.Command{
		Use:   "buy <ticket>",
		Short: "Buy an unsold ticket at the base price",
		Long: `Buy an unsold ticket. The payment must equal the base ticket price;
it defaults to the price recorded in the database.

Examples:
  boxoffice buy 3 --db ./box.db --caller alice
  boxoffice buy 3 --db ./box.db --caller alice --payment 0.1ether`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(opts, cmd, func(l *ledger.Ledger) (ir.Command, error) {
				id, err := parseIntArg("ticket", args[0])
				if err != nil {
					return ir.Command{}, err
				}
				pay := l.BaseTicketPrice()
				if payment != "" {
					if pay, err = amount.Parse(payment); err != nil {
						return ir.Command{}, fmt.Errorf("--payment: %w", err)
					}
				}
				return ir.Command{Op: ir.OpBuyTicket, TicketID: id, Payment: int64(pay)}, nil
			})
		},
	}

	addOpFlags(cmd, opts)
	cmd.Flags().StringVar(&payment, "payment", "", "attached payment (default: base price)")
	return cmd
}

// NewOfferSwapCommand creates the offer-swap command.
func NewOfferSwapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newOpOptions(rootOpts)

	cmd := &cobra.Command{
		Use:   "offer-swap <ticket>",
		Short: "Offer an owned ticket for exchange",
		Long: `Record a standing offer to exchange an owned ticket. A new offer on the
same ticket replaces the previous one.

Example:
  boxoffice offer-swap 1 --db ./box.db --caller alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(opts, cmd, func(*ledger.Ledger) (ir.Command, error) {
				id, err := parseIntArg("ticket", args[0])
				if err != nil {
					return ir.Command{}, err
				}
				return ir.Command{Op: ir.OpOfferSwap, TicketID: id}, nil
			})
		},
	}

	addOpFlags(cmd, opts)
	return cmd
}

// NewAcceptSwapCommand creates the accept-swap command.
func NewAcceptSwapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newOpOptions(rootOpts)

	cmd := &cobra.Command{
		Use:   "accept-swap <ticket> <counter-ticket>",
		Short: "Accept a swap offer with one of your tickets",
		Long: `Accept the standing swap offer on <ticket>, giving <counter-ticket> in
exchange. The caller must own the counter ticket.

Example:
  boxoffice accept-swap 1 2 --db ./box.db --caller bob`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(opts, cmd, func(*ledger.Ledger) (ir.Command, error) {
				id, err := parseIntArg("ticket", args[0])
				if err != nil {
					return ir.Command{}, err
				}
				counter, err := parseIntArg("counter-ticket", args[1])
				if err != nil {
					return ir.Command{}, err
				}
				return ir.Command{Op: ir.OpAcceptSwap, TicketID: id, CounterTicketID: counter}, nil
			})
		},
	}

	addOpFlags(cmd, opts)
	return cmd
}

// NewResellCommand creates the resell command.
func NewResellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newOpOptions(rootOpts)
	var ask string
	var ticket int

	cmd := &cobra.Command{
		Use:   "resell",
		Short: "List an owned ticket on the resale market",
		Long: `Append a resale listing at the given ask price. Without --ticket the
caller's lowest-numbered ticket without an open listing is listed.

Examples:
  boxoffice resell --db ./box.db --caller alice --ask 0.15ether
  boxoffice resell --db ./box.db --caller alice --ask 0.15ether --ticket 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(opts, cmd, func(*ledger.Ledger) (ir.Command, error) {
				price, err := amount.Parse(ask)
				if err != nil {
					return ir.Command{}, fmt.Errorf("--ask: %w", err)
				}
				return ir.Command{Op: ir.OpResaleTicket, TicketID: ticket, AskPrice: int64(price)}, nil
			})
		},
	}

	addOpFlags(cmd, opts)
	cmd.Flags().StringVar(&ask, "ask", "", "ask price (required)")
	cmd.Flags().IntVar(&ticket, "ticket", 0, "ticket to list (default: lowest eligible)")
	_ = cmd.MarkFlagRequired("ask")
	return cmd
}

// NewAcceptResaleCommand creates the accept-resale command.
func NewAcceptResaleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newOpOptions(rootOpts)
	var payment string

	cmd := &cobra.Command{
		Use:   "accept-resale <listing>",
		Short: "Buy a listed ticket at its ask price",
		Long: `Buy the ticket in resale listing <listing>. The payment must equal the
ask price; it defaults to the listing's ask.

Example:
  boxoffice accept-resale 0 --db ./box.db --caller bob`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(opts, cmd, func(l *ledger.Ledger) (ir.Command, error) {
				idx, err := parseIntArg("listing", args[0])
				if err != nil {
					return ir.Command{}, err
				}
				pay := l.ResaleListing(idx).AskPrice
				if payment != "" {
					if pay, err = amount.Parse(payment); err != nil {
						return ir.Command{}, fmt.Errorf("--payment: %w", err)
					}
				}
				return ir.Command{Op: ir.OpAcceptResale, ListingIndex: idx, Payment: int64(pay)}, nil
			})
		},
	}

	addOpFlags(cmd, opts)
	cmd.Flags().StringVar(&payment, "payment", "", "attached payment (default: ask price)")
	return cmd
}
