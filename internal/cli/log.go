package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	Caller   string // optional - filter to one caller
	After    int64
}

// LogResult holds the selected transitions.
type LogResult struct {
	Transitions []ir.Transition `json:"transitions"`
	Stats       LogStats        `json:"stats"`
}

// LogStats summarizes the selected transitions.
type LogStats struct {
	Total     int `json:"total"`
	Committed int `json:"committed"`
	Rejected  int `json:"rejected"`
}

// RenderText implements TextRenderer.
func (r LogResult) RenderText(w io.Writer) {
	if len(r.Transitions) == 0 {
		fmt.Fprintln(w, "No transitions.")
		return
	}
	for _, t := range r.Transitions {
		fmt.Fprintf(w, "[%d] %s by %q %v -> %s", t.Seq, t.Op, t.Caller, t.Args, t.Outcome)
		if t.Code != "" {
			fmt.Fprintf(w, " (%s)", t.Code)
		}
		if len(t.Result) > 0 {
			fmt.Fprintf(w, " %v", t.Result)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d transitions (%d committed, %d rejected)\n",
		r.Stats.Total, r.Stats.Committed, r.Stats.Rejected)
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the transition log",
		Long: `Print recorded transitions in seq order, rejected ones included.

Examples:
  boxoffice log --db ./box.db
  boxoffice log --db ./box.db --caller alice
  boxoffice log --db ./box.db --after 10 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.Database)
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "only transitions submitted by this address")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only transitions with seq greater than this")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var transitions []ir.Transition
	if opts.Caller != "" {
		transitions, err = st.ReadTransitionsByCaller(ctx, opts.Caller)
	} else {
		transitions, err = st.ReadTransitionsAfter(ctx, opts.After)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read log", err)
	}

	result := LogResult{Transitions: make([]ir.Transition, 0, len(transitions))}
	for _, t := range transitions {
		if t.Seq <= opts.After {
			continue
		}
		result.Transitions = append(result.Transitions, t)
		if t.Committed() {
			result.Stats.Committed++
		} else {
			result.Stats.Rejected++
		}
	}
	result.Stats.Total = len(result.Transitions)

	return opts.Output(cmd).Success(result)
}
