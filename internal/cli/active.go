// Package cli: active.go implements the "bt active" command.
//
// The active command asks every mediator for the active tab of each of
// its windows and prints the ids with the client letter applied, one per
// line, e.g. "a.1.4". Fetching and lettering follow the list command.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/brotab/internal/aggregate"
)

// NewActiveCommand creates the "active" cobra command.
func NewActiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the active tab of every window",
		Long: `Show the active tab of every window of every browser as
"<client>.<window>.<tab>", one per line.

Examples:
  bt active
  bt active --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return runActive(cmd.Context(), s, cmd.OutOrStdout())
		},
	}
}

// runActive is the main logic function for the active command.
func runActive(ctx context.Context, s *session, out io.Writer) error {
	ports, err := s.scan(ctx)
	if err != nil {
		return err
	}

	// Same fork/join as list, pointed at the active-tab endpoint.
	listings, err := s.aggregator().CollectWith(ctx, ports, s.mediators.ActiveTabs, aggregate.SplitIDs)
	if err != nil {
		return err
	}
	s.logger.Debug("active tabs collected", slog.String("clients", aggregate.Describe(listings)))

	if IsJSONOutput() {
		return printListResultJSON(out, listings)
	}
	return printListResultText(out, listings)
}
