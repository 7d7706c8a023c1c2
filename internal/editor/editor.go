// Package editor runs the user's text editor on a temporary file.
//
// `bt move` writes the merged tab listing to a file, hands the file to
// $EDITOR and reads the edited lines back. This package only does the
// round trip; it does not interpret the lines.
package editor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Error is returned when the editor process cannot be started or exits
// with a non-zero status. No edits must be applied in that case.
type Error struct {
	Command string
	Err     error
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("editor %q failed: %v", e.Command, e.Err)
}

// Unwrap returns the underlying exec error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Editor runs an external editor command.
type Editor struct {
	// Command is the editor invocation, e.g. "nvim" or "code --wait".
	// It is split on whitespace; the file path is appended as the last
	// argument.
	Command string

	// Dir is where the temporary file is created. Empty means os.TempDir().
	Dir string

	// Stdin, Stdout and Stderr are attached to the editor process. Nil
	// means the corresponding os.Std* stream, so terminal editors work.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New creates an Editor for the given command attached to the terminal.
func New(command string) *Editor {
	return &Editor{Command: command}
}

// Edit writes lines to a temporary file, runs the editor on it and returns
// the lines found in the file afterwards. Returned lines are trimmed and
// blank lines are dropped. The file is removed on every path.
func (e *Editor) Edit(ctx context.Context, lines []string) ([]string, error) {
	argv := strings.Fields(e.Command)
	if len(argv) == 0 {
		return nil, &Error{Command: e.Command, Err: fmt.Errorf("empty editor command")}
	}

	path, err := e.writeTemp(lines)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(path) }()

	// #nosec G204 -- the command is the user's own $EDITOR
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if e.Stdin != nil {
		cmd.Stdin = e.Stdin
	}
	if e.Stdout != nil {
		cmd.Stdout = e.Stdout
	}
	if e.Stderr != nil {
		cmd.Stderr = e.Stderr
	}

	if err := cmd.Run(); err != nil {
		return nil, &Error{Command: e.Command, Err: err}
	}

	return readLines(path)
}

// writeTemp creates bt-<uuid>.txt holding lines joined by newlines.
func (e *Editor) writeTemp(lines []string) (string, error) {
	dir := e.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "bt-"+uuid.NewString()+".txt")

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return path, nil
}

// readLines reads a file back, trimming each line and skipping blank ones.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	// Tab lines carry full URLs; allow long ones.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}
	return lines, nil
}
