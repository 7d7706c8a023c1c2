// Package main is the entry point for the bt CLI.
//
// bt lists and manages the tabs of every running browser by talking to the
// loopback mediators started by the browser extension. All functionality
// lives in the internal/cli package, which defines the cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development they default to "dev", "none", and "unknown".
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/shinji-kodama/brotab/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Ctrl-C cancels in-flight probes and requests and a running editor.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli.Execute(ctx, cli.NewRootCommand())
}
