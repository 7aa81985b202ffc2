package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/boxoffice/internal/amount"
	"github.com/roach88/boxoffice/internal/config"
	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
	"github.com/roach88/boxoffice/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Database  string
	Config    string
	Tickets   int
	Price     string
	Organizer string
}

// InitResult describes the recorded ledger config.
type InitResult struct {
	Database        string `json:"database"`
	TotalTickets    int    `json:"total_tickets"`
	BaseTicketPrice string `json:"base_ticket_price"`
	Organizer       string `json:"organizer"`
	ConfigHash      string `json:"config_hash"`
}

// RenderText implements TextRenderer.
func (r InitResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Initialized %s\n", r.Database)
	fmt.Fprintf(w, "  Tickets:   %d\n", r.TotalTickets)
	fmt.Fprintf(w, "  Price:     %s\n", r.BaseTicketPrice)
	fmt.Fprintf(w, "  Organizer: %s\n", r.Organizer)
	fmt.Fprintf(w, "  Config:    %s\n", r.ConfigHash)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a ledger database",
		Long: `Create a ledger database and record its construction config.

The config comes from a CUE file (--config), from flags, or both; flags
override file values. Running init again with the same config is a no-op;
a different config is an error.

Examples:
  boxoffice init --db ./box.db --tickets 10 --price 0.1ether
  boxoffice init --db ./box.db --config ./ledger.cue
  boxoffice init --db ./box.db --config ./ledger.cue --organizer venue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.Database)
	cmd.Flags().StringVar(&opts.Config, "config", "", "CUE ledger config file")
	cmd.Flags().IntVar(&opts.Tickets, "tickets", 0, "total number of tickets")
	cmd.Flags().StringVar(&opts.Price, "price", "", "base ticket price, e.g. 0.1ether")
	cmd.Flags().StringVar(&opts.Organizer, "organizer", "", "address credited with primary sales")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	var cfg ledger.Config
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid config", err)
		}
		cfg = loaded
	}
	cfg, err := config.Overrides{
		TotalTickets:    opts.Tickets,
		BaseTicketPrice: opts.Price,
		Organizer:       opts.Organizer,
	}.Apply(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if err := st.InitLedger(cmd.Context(), cfg); err != nil {
		if errors.Is(err, store.ErrAlreadyInitialized) {
			return WrapExitError(ExitFailure, "database already holds a different ledger", err)
		}
		return WrapExitError(ExitCommandError, "failed to initialize ledger", err)
	}

	hash, err := ir.ConfigHash(cfg.TotalTickets, int64(cfg.BaseTicketPrice), string(cfg.Organizer))
	if err != nil {
		return err
	}

	return opts.Output(cmd).Success(InitResult{
		Database:        opts.Database,
		TotalTickets:    cfg.TotalTickets,
		BaseTicketPrice: amount.Format(cfg.BaseTicketPrice),
		Organizer:       string(cfg.Organizer),
		ConfigHash:      hash,
	})
}
