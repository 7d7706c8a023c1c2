// Package cli: windows.go implements the "bt windows" command.
//
// The windows command fetches the merged listing like "bt list" and prints
// every "<client>.<window>" prefix together with the number of tabs in that
// window. The prefixes are what "bt list --match" and scripts need to
// address a whole window.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/brotab/internal/aggregate"
)

// NewWindowsCommand creates the "windows" cobra command.
func NewWindowsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "windows",
		Short: "List browser windows and their tab counts",
		Long: `List every browser window as "<client>.<window>" followed by the
number of tabs it holds.

Examples:
  bt windows
  bt windows --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return runWindows(cmd.Context(), s, cmd.OutOrStdout())
		},
	}
}

// runWindows is the main logic function for the windows command.
func runWindows(ctx context.Context, s *session, out io.Writer) error {
	ports, err := s.scan(ctx)
	if err != nil {
		return err
	}

	listings, err := s.aggregator().Collect(ctx, ports)
	if err != nil {
		return err
	}
	windows := aggregate.Windows(listings)

	if IsJSONOutput() {
		return printWindowsJSON(out, windows)
	}
	for _, w := range windows {
		if _, err := fmt.Fprintf(out, "%s\t%d\n", w.Window, w.Tabs); err != nil {
			return err
		}
	}
	return nil
}

// windowJSON is the JSON output structure for one window.
type windowJSON struct {
	Window string `json:"window"`
	Tabs   int    `json:"tabs"`
}

// printWindowsJSON outputs {"windows": [...]}.
func printWindowsJSON(out io.Writer, windows []aggregate.WindowCount) error {
	type resultJSON struct {
		Windows []windowJSON `json:"windows"`
	}

	// An empty slice instead of nil so that JSON shows [] rather than null.
	result := resultJSON{Windows: make([]windowJSON, 0, len(windows))}
	for _, w := range windows {
		result.Windows = append(result.Windows, windowJSON{Window: w.Window, Tabs: w.Tabs})
	}
	return writeJSON(out, result)
}
