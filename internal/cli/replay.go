package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/boxoffice/internal/engine"
	"github.com/roach88/boxoffice/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult summarizes a verified log.
type ReplayResult struct {
	Transitions int   `json:"transitions"`
	Committed   int   `json:"committed"`
	Rejected    int   `json:"rejected"`
	LastSeq     int64 `json:"last_seq"`
	Sold        int   `json:"sold"`
	Listings    int   `json:"listings"`
	Verified    bool  `json:"verified"`
}

// RenderText implements TextRenderer.
func (r ReplayResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "✓ Replayed %d transitions (%d committed, %d rejected)\n",
		r.Transitions, r.Committed, r.Rejected)
	fmt.Fprintf(w, "  last seq: %d\n", r.LastSeq)
	fmt.Fprintf(w, "  sold:     %d\n", r.Sold)
	fmt.Fprintf(w, "  listings: %d\n", r.Listings)
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the ledger from its log and verify it",
		Long: `Rebuild the ledger from the recorded config by re-applying every
transition in seq order. Each transition must reproduce its recorded id,
outcome, rejection code and result.

Exit codes:
  0 - The log replays exactly
  1 - The log diverges from what the ledger computes
  2 - Command error (database not found, not initialized)

Examples:
  boxoffice replay --db ./box.db
  boxoffice replay --db ./box.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.Database)
	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.Output(cmd)
	logger := opts.Logger(cmd, slog.LevelWarn)

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	out.VerboseLog("Replaying %s", opts.Database)
	res, err := engine.Replay(ctx, st)
	if err != nil {
		var replayErr *engine.ReplayError
		switch {
		case errors.As(err, &replayErr):
			logger.Error("log diverged", "seq", replayErr.Seq, "field", replayErr.Field)
			if outErr := out.Error("REPLAY_MISMATCH", replayErr.Error(), replayErr); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, "replay mismatch", err)
		case errors.Is(err, store.ErrNotInitialized):
			return WrapExitError(ExitCommandError, "database has no ledger (run init first)", err)
		default:
			return WrapExitError(ExitFailure, "replay failed", err)
		}
	}

	return out.Success(ReplayResult{
		Transitions: res.Committed + res.Rejected,
		Committed:   res.Committed,
		Rejected:    res.Rejected,
		LastSeq:     res.LastSeq,
		Sold:        res.Ledger.Sold(),
		Listings:    res.Ledger.ListingCount(),
		Verified:    true,
	})
}
