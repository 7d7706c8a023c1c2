// Package cli: list.go implements the "bt list" command.
//
// The list command discovers the live mediators, fetches every mediator's
// tabs concurrently and prints the merged listing, one tab per line,
// prefixed with the client letter. Output is grouped by client in port
// order so it can be piped into sort, grep or `bt close`.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/brotab/internal/aggregate"
	"github.com/shinji-kodama/brotab/internal/model"
)

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	var patterns []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tabs of all browsers",
		Long: `List the tabs of every running browser as one merged listing.

Each line is "<client>.<window>.<tab>" followed by the mediator's own
tab description. If any mediator fails to answer, nothing is printed.

--match keeps only the lines matching a glob pattern. The pattern is
matched against the whole prefixed line; it may be given more than once.

Examples:
  bt list
  bt list --match '*github.com*'
  bt list --match 'a.*' --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			matchers, err := compilePatterns(patterns)
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), s, cmd.OutOrStdout(), matchers)
		},
	}

	cmd.Flags().StringArrayVar(&patterns, "match", nil, "Only show lines matching this glob pattern (repeatable)")

	return cmd
}

// compilePatterns compiles every --match pattern. A bad pattern is a
// usage error.
func compilePatterns(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitUsage, fmt.Sprintf("invalid --match pattern '%s'", pattern), err)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

// filterListings keeps the tabs whose prefixed line matches any of the
// matchers. Clients stay in place even when all their tabs are dropped.
// No matchers means no filtering.
func filterListings(listings []model.ClientListing, matchers []glob.Glob) []model.ClientListing {
	if len(matchers) == 0 {
		return listings
	}
	out := make([]model.ClientListing, len(listings))
	for i, l := range listings {
		out[i] = model.ClientListing{Client: l.Client}
		for _, tab := range l.Tabs {
			// Match the prefixed line so patterns like 'b.*' can select a
			// client.
			line := l.ID.Prefix() + tab
			for _, g := range matchers {
				if g.Match(line) {
					out[i].Tabs = append(out[i].Tabs, tab)
					break
				}
			}
		}
	}
	return out
}

// runList is the main logic function for the list command.
func runList(ctx context.Context, s *session, out io.Writer, matchers []glob.Glob) error {
	ports, err := s.scan(ctx)
	if err != nil {
		return err
	}

	listings, err := s.aggregator().Collect(ctx, ports)
	if err != nil {
		return err
	}
	s.logger.Debug("listing collected", slog.String("clients", aggregate.Describe(listings)))
	// Filter after the join so letters keep their port-rank meaning even
	// when a whole client is filtered away.
	listings = filterListings(listings, matchers)

	if IsJSONOutput() {
		return printListResultJSON(out, listings)
	}
	return printListResultText(out, listings)
}

// listClientJSON is the JSON output structure for one client.
type listClientJSON struct {
	ID      string   `json:"id"`
	Address string   `json:"address"`
	Port    int      `json:"port"`
	Tabs    []string `json:"tabs"`
}

// printListResultJSON outputs the listing as {"clients": [...]}. Tab
// lines appear without the client prefix; the id field carries it.
func printListResultJSON(out io.Writer, listings []model.ClientListing) error {
	type resultJSON struct {
		Clients []listClientJSON `json:"clients"`
	}

	// An empty slice instead of nil so that JSON shows [] rather than null.
	result := resultJSON{Clients: make([]listClientJSON, 0, len(listings))}
	for _, l := range listings {
		tabs := l.Tabs
		if tabs == nil {
			tabs = []string{}
		}
		result.Clients = append(result.Clients, listClientJSON{
			ID:      l.ID.String(),
			Address: l.Address(),
			Port:    int(l.Port),
			Tabs:    tabs,
		})
	}
	return writeJSON(out, result)
}

// printListResultText prints the merged listing. No mediators, or only
// empty ones, print nothing at all.
func printListResultText(out io.Writer, listings []model.ClientListing) error {
	text := aggregate.Format(listings)
	if text == "" {
		return nil
	}
	_, err := fmt.Fprintln(out, text)
	return err
}
