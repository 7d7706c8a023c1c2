// Package cli: move.go implements the "bt move" command.
//
// The move command writes the merged tab listing to a temporary file,
// opens it in $EDITOR and reads the result back. Applying the edited
// listing to the browsers is not supported: when the listing changed the
// command reports that nothing was applied.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/brotab/internal/aggregate"
	"github.com/shinji-kodama/brotab/internal/editor"
)

// NewMoveCommand creates the "move" cobra command.
func NewMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move",
		Short: "Edit the tab listing in $EDITOR",
		Long: `Open the merged tab listing in $EDITOR.

The listing is fetched exactly like "bt list". When the editor exits
successfully the edited file is read back and compared with the original.
Reordered or deleted lines are not applied to the browsers; use
"bt close" to close tabs.

If the editor exits with an error, no tabs are changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ed := editor.New(s.cfg.Editor)
			ed.Stdin = cmd.InOrStdin()
			ed.Stdout = cmd.OutOrStdout()
			ed.Stderr = cmd.ErrOrStderr()
			return runMove(cmd.Context(), s, ed, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// moveResult is the JSON output of the move command.
type moveResult struct {
	Tabs    int  `json:"tabs"`
	Changed bool `json:"changed"`
	Applied bool `json:"applied"`
}

// runMove is the main logic function for the move command.
func runMove(ctx context.Context, s *session, ed *editor.Editor, out, errOut io.Writer) error {
	ports, err := s.scan(ctx)
	if err != nil {
		return err
	}

	listings, err := s.aggregator().Collect(ctx, ports)
	if err != nil {
		return err
	}
	// The editor sees exactly what "bt list" would print.
	before := aggregate.Lines(listings)

	after, err := ed.Edit(ctx, before)
	if err != nil {
		// A failed editor session means the file content is untrustworthy;
		// nothing is compared or reported as changed.
		return err
	}

	changed := !slices.Equal(normalizeLines(before), after)
	s.logger.Debug("editor finished",
		slog.Int("before", len(before)),
		slog.Int("after", len(after)),
		slog.Bool("changed", changed),
	)

	if IsJSONOutput() {
		return writeJSON(out, moveResult{Tabs: len(before), Changed: changed})
	}
	if changed {
		_, err = fmt.Fprintln(errOut,
			"Warning: the edited listing was not applied; moving tabs is not supported (use 'bt close' to close tabs)")
		return err
	}
	return nil
}

// normalizeLines applies the same trimming the editor round trip applies
// to the lines it reads back, so an untouched file compares equal.
func normalizeLines(lines []string) []string {
	var out []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
