// Package cli implements the boxoffice command line.
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the boxoffice CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "boxoffice",
		Short: "boxoffice - ticket sale ledger",
		Long: `A ledger for a fixed pool of numbered tickets: primary sale at a fixed
price, owner-to-owner swaps and a resale market. Every operation is
recorded in an append-only SQLite log that can be replayed and verified.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewBuyCommand(opts))
	cmd.AddCommand(NewOfferSwapCommand(opts))
	cmd.AddCommand(NewAcceptSwapCommand(opts))
	cmd.AddCommand(NewResellCommand(opts))
	cmd.AddCommand(NewAcceptResaleCommand(opts))
	cmd.AddCommand(NewOwnerCommand(opts))
	cmd.AddCommand(NewOfferCommand(opts))
	cmd.AddCommand(NewListingCommand(opts))
	cmd.AddCommand(NewTicketsCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// Output returns a formatter writing to the command's streams.
func (o *RootOptions) Output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Logger returns a text logger on the command's stderr. Verbose lowers the
// level to debug; otherwise only records at or above base are written.
func (o *RootOptions) Logger(cmd *cobra.Command, base slog.Level) *slog.Logger {
	level := base
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// addDatabaseFlag registers the required --db flag.
func addDatabaseFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVar(dst, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
}
