package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/boxoffice/internal/amount"
	"github.com/roach88/boxoffice/internal/ledger"
)

// QueryOptions holds flags for read-only commands.
type QueryOptions struct {
	*RootOptions
	Database string
}

// TicketResult is the output of the owner command.
type TicketResult struct {
	ID    int    `json:"id"`
	Owner string `json:"owner,omitempty"`
	Price string `json:"price"`
}

// RenderText implements TextRenderer.
func (r TicketResult) RenderText(w io.Writer) {
	owner := "(unsold)"
	if r.Owner != "" {
		owner = r.Owner
	}
	fmt.Fprintf(w, "Ticket %d: %s (price %s)\n", r.ID, owner, r.Price)
}

// OfferResult is the output of the offer command.
type OfferResult struct {
	TicketID int    `json:"ticket_id"`
	Active   bool   `json:"active"`
	Offeror  string `json:"offeror,omitempty"`
}

// RenderText implements TextRenderer.
func (r OfferResult) RenderText(w io.Writer) {
	if !r.Active {
		fmt.Fprintf(w, "Ticket %d: no active offer\n", r.TicketID)
		return
	}
	fmt.Fprintf(w, "Ticket %d: offered by %s\n", r.TicketID, r.Offeror)
}

// ListingResult is the output of the listing command.
type ListingResult struct {
	Index     int    `json:"index"`
	TicketID  int    `json:"ticket_id"`
	Seller    string `json:"seller"`
	AskPrice  string `json:"ask_price"`
	Fulfilled bool   `json:"fulfilled"`
	Buyer     string `json:"buyer,omitempty"`
}

// RenderText implements TextRenderer.
func (r ListingResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Listing %d: ticket %d by %s at %s\n", r.Index, r.TicketID, r.Seller, r.AskPrice)
	if r.Fulfilled {
		fmt.Fprintf(w, "  fulfilled, bought by %s\n", r.Buyer)
	} else {
		fmt.Fprintln(w, "  open")
	}
}

// HoldingsResult is the output of the tickets command.
type HoldingsResult struct {
	Address  string `json:"address"`
	Tickets  []int  `json:"tickets"`
	Proceeds string `json:"proceeds"`
}

// RenderText implements TextRenderer.
func (r HoldingsResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s holds %d ticket(s)", r.Address, len(r.Tickets))
	if len(r.Tickets) > 0 {
		fmt.Fprintf(w, ": %v", r.Tickets)
	}
	fmt.Fprintf(w, "\n  proceeds: %s\n", r.Proceeds)
}

// StatusResult is the output of the status command.
type StatusResult struct {
	TotalTickets      int    `json:"total_tickets"`
	Sold              int    `json:"sold"`
	BaseTicketPrice   string `json:"base_ticket_price"`
	Listings          int    `json:"listings"`
	Organizer         string `json:"organizer"`
	OrganizerProceeds string `json:"organizer_proceeds"`
	LastSeq           int64  `json:"last_seq"`
	Committed         int64  `json:"committed"`
	Rejected          int64  `json:"rejected"`
}

// RenderText implements TextRenderer.
func (r StatusResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Tickets:   %d/%d sold at %s\n", r.Sold, r.TotalTickets, r.BaseTicketPrice)
	fmt.Fprintf(w, "Listings:  %d\n", r.Listings)
	fmt.Fprintf(w, "Organizer: %s (proceeds %s)\n", r.Organizer, r.OrganizerProceeds)
	fmt.Fprintf(w, "Log:       %d transitions (%d committed, %d rejected), last seq %d\n",
		r.Committed+r.Rejected, r.Committed, r.Rejected, r.LastSeq)
}

// runQuery replays the database and hands the ledger to fn.
func runQuery(opts *QueryOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) (any, error)) error {
	s, err := openSession(cmd.Context(), opts.Database, opts.Logger(cmd, slog.LevelWarn))
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := fn(cmd.Context(), s)
	if err != nil {
		return err
	}
	return opts.Output(cmd).Success(result)
}

func newQueryCommand(rootOpts *RootOptions, use, short string, args cobra.PositionalArgs,
	fn func(ctx context.Context, s *session, args []string) (any, error)) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ctx context.Context, s *session) (any, error) {
				return fn(ctx, s, args)
			})
		},
	}
	addDatabaseFlag(cmd, &opts.Database)
	return cmd
}

// NewOwnerCommand creates the owner command.
func NewOwnerCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(rootOpts, "owner <ticket>", "Show who owns a ticket", cobra.ExactArgs(1),
		func(_ context.Context, s *session, args []string) (any, error) {
			id, err := parseIntArg("ticket", args[0])
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "invalid arguments", err)
			}
			if id < 1 || id > s.ledger.TotalTickets() {
				return nil, NewExitError(ExitCommandError,
					fmt.Sprintf("ticket %d outside [1, %d]", id, s.ledger.TotalTickets()))
			}
			t := s.ledger.Ticket(id)
			return TicketResult{ID: t.ID, Owner: string(t.Owner), Price: amount.Format(t.Price)}, nil
		})
}

// NewOfferCommand creates the offer command.
func NewOfferCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(rootOpts, "offer <ticket>", "Show the swap offer on a ticket", cobra.ExactArgs(1),
		func(_ context.Context, s *session, args []string) (any, error) {
			id, err := parseIntArg("ticket", args[0])
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "invalid arguments", err)
			}
			o := s.ledger.SwapOffer(id)
			return OfferResult{TicketID: o.TicketID, Active: o.Active, Offeror: string(o.Offeror)}, nil
		})
}

// NewListingCommand creates the listing command.
func NewListingCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(rootOpts, "listing <index>", "Show a resale listing", cobra.ExactArgs(1),
		func(_ context.Context, s *session, args []string) (any, error) {
			idx, err := parseIntArg("listing", args[0])
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "invalid arguments", err)
			}
			l := s.ledger.ResaleListing(idx)
			if !l.Exists() {
				return nil, NewExitError(ExitFailure,
					fmt.Sprintf("listing %d not found (%d listings)", idx, s.ledger.ListingCount()))
			}
			return listingResult(l), nil
		})
}

func listingResult(l ledger.ResaleListing) ListingResult {
	return ListingResult{
		Index:     l.Index,
		TicketID:  l.TicketID,
		Seller:    string(l.Seller),
		AskPrice:  amount.Format(l.AskPrice),
		Fulfilled: l.Fulfilled,
		Buyer:     string(l.Buyer),
	}
}

// NewTicketsCommand creates the tickets command.
func NewTicketsCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(rootOpts, "tickets <address>", "Show the tickets and proceeds of an address", cobra.ExactArgs(1),
		func(_ context.Context, s *session, args []string) (any, error) {
			addr := ledger.Address(args[0])
			ids := s.ledger.TicketsOwnedBy(addr)
			if ids == nil {
				ids = []int{}
			}
			return HoldingsResult{
				Address:  args[0],
				Tickets:  ids,
				Proceeds: amount.Format(s.ledger.Proceeds(addr)),
			}, nil
		})
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(rootOpts, "status", "Summarize the ledger and its log", cobra.NoArgs,
		func(ctx context.Context, s *session, _ []string) (any, error) {
			counts, err := s.store.CountTransitions(ctx)
			if err != nil {
				return nil, WrapExitError(ExitFailure, "failed to count transitions", err)
			}
			cfg := s.ledger.Config()
			return StatusResult{
				TotalTickets:      cfg.TotalTickets,
				Sold:              s.ledger.Sold(),
				BaseTicketPrice:   amount.Format(cfg.BaseTicketPrice),
				Listings:          s.ledger.ListingCount(),
				Organizer:         string(cfg.Organizer),
				OrganizerProceeds: amount.Format(s.ledger.Proceeds(cfg.Organizer)),
				LastSeq:           s.lastSeq,
				Committed:         counts.Committed,
				Rejected:          counts.Rejected,
			}, nil
		})
}
