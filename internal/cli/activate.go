// Package cli: activate.go implements the "bt activate" command.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/brotab/internal/model"
)

// NewActivateCommand creates the "activate" cobra command.
func NewActivateCommand() *cobra.Command {
	var focused bool

	cmd := &cobra.Command{
		Use:   "activate TAB_ID",
		Short: "Activate a tab",
		Long: `Make the given tab the active tab of its window. With --focused the
browser window is focused as well.

Example:
  bt activate --focused a.1.12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := model.ParseTabID(args[0])
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return runActivate(cmd.Context(), s, cmd.OutOrStdout(), tab, focused)
		},
	}

	cmd.Flags().BoolVar(&focused, "focused", false, "Also focus the browser window")

	return cmd
}

// runActivate is the main logic function for the activate command.
func runActivate(ctx context.Context, s *session, out io.Writer, tab model.TabID, focused bool) error {
	clients, err := s.discover(ctx)
	if err != nil {
		return err
	}
	c, err := model.FindClient(clients, tab.Client)
	if err != nil {
		return err
	}

	if err := s.mediators.ActivateTab(ctx, c.Port, tab.Tab, focused); err != nil {
		return &model.FetchError{Client: c.ID, Port: c.Port, Err: err}
	}

	if IsJSONOutput() {
		return writeJSON(out, map[string]string{"activated": tab.String()})
	}
	_, err = fmt.Fprintf(out, "Activated %s\n", tab)
	return err
}
