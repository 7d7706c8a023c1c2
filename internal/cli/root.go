// Package cli implements the cobra-based CLI commands for bt.
//
// Each subcommand (list, clients, windows, active, move, close, activate)
// is defined in its own file within this package. This file defines the
// root command that serves as the parent for all subcommands and handles
// global flags and the mapping from errors to exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/brotab/internal/editor"
	"github.com/shinji-kodama/brotab/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput switches command output (and error output) to JSON.
	jsonOutput bool

	// verbose lowers the log level to debug. Logs go to stderr.
	verbose bool

	// basePort and window override BT_BASE_PORT and BT_WINDOW when the
	// corresponding flag is given explicitly.
	basePort int
	window   int
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// Running the root command without a subcommand prints a usage hint and
// fails with ExitUsage.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bt",
		Short: "List and manage browser tabs from the command line",
		Long: `bt talks to the mediators started by the browser tab extension.

Every running browser has one mediator listening on a loopback port
between 4625 and 4634. bt finds them, asks each one for its tabs and
prints a single merged listing where every tab is prefixed with the
letter of its browser:

  a.1.12	GMail	https://mail.google.com
  b.3.7	Go	https://go.dev`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Execute formats errors itself (text or JSON based on --json).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return model.NewCLIError(model.ExitUsage,
				"no command specified; run 'bt --help' for usage")
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().IntVar(&basePort, "base-port", 0, "First mediator port to probe (default $BT_BASE_PORT or 4625)")
	rootCmd.PersistentFlags().IntVar(&window, "window", 0, "Number of ports to probe (default $BT_WINDOW or 10)")

	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewClientsCommand())
	rootCmd.AddCommand(NewMoveCommand())
	rootCmd.AddCommand(NewCloseCommand())
	rootCmd.AddCommand(NewActivateCommand())
	rootCmd.AddCommand(NewActiveCommand())
	rootCmd.AddCommand(NewWindowsCommand())

	return rootCmd
}

// Execute runs the root command with ctx and exits the process with the
// exit code derived from the returned error.
func Execute(ctx context.Context, rootCmd *cobra.Command) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cliErr := toCLIError(err)
		printError(os.Stderr, cliErr.Message, cliErr.Err)
		os.Exit(int(cliErr.Code))
	}
}

// toCLIError classifies an error returned by a command. Errors that are
// already CLIErrors keep their code; known domain errors get theirs; the
// rest fall back to ExitGeneralError.
func toCLIError(err error) *model.CLIError {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var fetchErr *model.FetchError
	var editorErr *editor.Error
	switch {
	case errors.As(err, &fetchErr):
		return model.WrapCLIError(model.ExitFetchFailed, "mediator request failed", err)
	case errors.As(err, &editorErr):
		return model.WrapCLIError(model.ExitEditorFailed, "editing aborted, no tabs were changed", err)
	case errors.Is(err, model.ErrTooManyClients):
		return model.WrapCLIError(model.ExitTooManyClients, "cannot assign client letters", err)
	case errors.Is(err, model.ErrNoSuchClient):
		return model.WrapCLIError(model.ExitNoSuchClient, "unknown client", err)
	case errors.Is(err, model.ErrInvalidTabID):
		return model.WrapCLIError(model.ExitUsage, "bad tab id", err)
	}
	return model.WrapCLIError(model.ExitGeneralError, err.Error(), nil)
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// writeJSON prints v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
