// Package cli: close.go implements the "bt close" command.
//
// Tab ids are taken from the arguments or, when there are none, from
// stdin one per line, so the output of "bt list" can be filtered and piped
// straight back in. Ids are grouped by client and every affected mediator
// receives a single close request.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/brotab/internal/model"
)

// NewCloseCommand creates the "close" cobra command.
func NewCloseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close [TAB_ID...]",
		Short: "Close tabs by id",
		Long: `Close the given tabs. A tab id has the form <client>.<window>.<tab>
as printed by "bt list". Whole lines of list output are accepted too.

Without arguments, tab ids are read from stdin, one per line.

Examples:
  bt close a.1.12 b.3.7
  bt list | grep youtube | bt close`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args
			if len(ids) == 0 {
				// No arguments: act as a filter at the end of a pipe.
				var err error
				ids, err = readTabIDLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			tabs, err := parseTabIDs(ids)
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return runClose(cmd.Context(), s, cmd.OutOrStdout(), tabs)
		},
	}
}

// readTabIDLines reads the lines of r.
func readTabIDLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tab ids from stdin: %w", err)
	}
	return lines, nil
}

// parseTabIDs parses every id. Blank entries are skipped; an empty result
// is a usage error.
func parseTabIDs(ids []string) ([]model.TabID, error) {
	var tabs []model.TabID
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		tab, err := model.ParseTabID(id)
		if err != nil {
			return nil, err
		}
		tabs = append(tabs, tab)
	}
	if len(tabs) == 0 {
		return nil, model.NewCLIError(model.ExitUsage, "no tab ids given")
	}
	return tabs, nil
}

// closeBatch is the set of tabs to close on one mediator.
type closeBatch struct {
	client model.Client
	tabs   []string
}

// groupByClient resolves every tab's client letter and groups the tab
// numbers per client in order of first appearance. An unknown letter is an
// error.
func groupByClient(clients []model.Client, tabs []model.TabID) ([]closeBatch, error) {
	// byID maps a letter to its position in batches.
	byID := make(map[model.ClientID]int)
	var batches []closeBatch
	for _, tab := range tabs {
		i, ok := byID[tab.Client]
		if !ok {
			c, err := model.FindClient(clients, tab.Client)
			if err != nil {
				return nil, err
			}
			i = len(batches)
			byID[tab.Client] = i
			batches = append(batches, closeBatch{client: c})
		}
		batches[i].tabs = append(batches[i].tabs, tab.Tab)
	}
	return batches, nil
}

// runClose is the main logic function for the close command.
func runClose(ctx context.Context, s *session, out io.Writer, tabs []model.TabID) error {
	clients, err := s.discover(ctx)
	if err != nil {
		return err
	}
	batches, err := groupByClient(clients, tabs)
	if err != nil {
		return err
	}

	// One request per mediator, all in flight together. A failure on one
	// mediator does not cancel the others: tabs already closed elsewhere
	// stay closed either way.
	errs := make([]error, len(batches))
	var g errgroup.Group
	for i, b := range batches {
		g.Go(func() error {
			if err := s.mediators.CloseTabs(ctx, b.client.Port, b.tabs); err != nil {
				errs[i] = &model.FetchError{Client: b.client.ID, Port: b.client.Port, Err: err}
				return nil
			}
			s.logger.Debug("tabs closed",
				slog.String("client", b.client.ID.String()),
				slog.Int("count", len(b.tabs)),
			)
			return nil
		})
	}
	_ = g.Wait()

	// Report the first failing batch in batch order, not in completion
	// order, so the same input always produces the same message.
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	if IsJSONOutput() {
		return writeJSON(out, map[string]int{"closed": len(tabs)})
	}
	return nil
}
