// Package cli: clients.go implements the "bt clients" command.
//
// The clients command shows which mediators are reachable and the letter
// each one is assigned for this invocation. With --long it also asks every
// mediator for its browser name and process id.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/brotab/internal/model"
)

// unknownBrowser and unknownPID are printed for a mediator that failed to
// describe itself.
const (
	unknownBrowser = "<ERROR>"
	unknownPID     = -1
)

// NewClientsCommand creates the "clients" cobra command.
func NewClientsCommand() *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List the reachable browser mediators",
		Long: `List every mediator found on the loopback port window together with
the client letter used as the prefix in "bt list".

Examples:
  bt clients
  bt clients --long
  bt clients --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return runClients(cmd.Context(), s, cmd.OutOrStdout(), long)
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "Also show the browser name and pid of every mediator")

	return cmd
}

// clientInfo is one row of the clients output.
type clientInfo struct {
	model.Client
	Browser string
	PID     int
}

// runClients is the main logic function for the clients command.
func runClients(ctx context.Context, s *session, out io.Writer, long bool) error {
	clients, err := s.discover(ctx)
	if err != nil {
		return err
	}

	infos := make([]clientInfo, len(clients))
	for i, c := range clients {
		infos[i] = clientInfo{Client: c}
	}
	if long {
		describeClients(ctx, s, infos)
	}

	if IsJSONOutput() {
		return printClientsJSON(out, infos, long)
	}
	return printClientsText(out, infos, long)
}

// describeClients fills in browser and pid for every client concurrently.
// A mediator that fails is reported with placeholder values; it never
// fails the command.
func describeClients(ctx context.Context, s *session, infos []clientInfo) {
	// Every goroutine owns one element of infos, so no locking is needed.
	// Errors are absorbed inside the goroutine; Wait is only the join.
	var g errgroup.Group
	for i := range infos {
		g.Go(func() error {
			info := &infos[i]
			// Start from the placeholders and overwrite them only when both
			// requests succeed, so a half-described row never appears.
			info.Browser, info.PID = unknownBrowser, unknownPID

			browser, err := s.mediators.Browser(ctx, info.Port)
			if err != nil {
				s.logger.Warn("cannot get browser name",
					slog.String("client", info.ID.String()),
					slog.Int("port", int(info.Port)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			pid, err := s.mediators.PID(ctx, info.Port)
			if err != nil {
				s.logger.Warn("cannot get mediator pid",
					slog.String("client", info.ID.String()),
					slog.Int("port", int(info.Port)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			info.Browser, info.PID = browser, pid
			return nil
		})
	}
	_ = g.Wait()
}

// printClientsText prints one tab-separated row per client.
func printClientsText(out io.Writer, infos []clientInfo, long bool) error {
	for _, info := range infos {
		var err error
		if long {
			_, err = fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", info.ID.Prefix(), info.Address(), info.PID, info.Browser)
		} else {
			_, err = fmt.Fprintf(out, "%s\t%s\n", info.ID.Prefix(), info.Address())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// clientJSON is the JSON output structure for one client.
type clientJSON struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Port    int    `json:"port"`
	Browser string `json:"browser,omitempty"`
	PID     *int   `json:"pid,omitempty"`
}

// printClientsJSON outputs {"clients": [...]}.
func printClientsJSON(out io.Writer, infos []clientInfo, long bool) error {
	type resultJSON struct {
		Clients []clientJSON `json:"clients"`
	}

	result := resultJSON{Clients: make([]clientJSON, 0, len(infos))}
	for _, info := range infos {
		c := clientJSON{
			ID:      info.ID.String(),
			Address: info.Address(),
			Port:    int(info.Port),
		}
		if long {
			pid := info.PID
			c.Browser = info.Browser
			c.PID = &pid
		}
		result.Clients = append(result.Clients, c)
	}
	return writeJSON(out, result)
}
