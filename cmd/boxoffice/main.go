// Command boxoffice manages a ticket sale ledger backed by an append-only
// SQLite log.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/boxoffice/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "boxoffice:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
