package editor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates a POSIX shell script that acts as the "editor".
// It receives the temp file path as $1.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script editors are POSIX only")
	}
	path := filepath.Join(t.TempDir(), "fake-editor.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700))
	return path
}

// newTestEditor returns an Editor running script via sh with a private
// temp dir and captured output streams.
func newTestEditor(t *testing.T, script string) (*Editor, string) {
	t.Helper()
	dir := t.TempDir()
	return &Editor{
		Command: "sh " + script,
		Dir:     dir,
		Stdin:   bytes.NewReader(nil),
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
	}, dir
}

// TestEdit_Unchanged verifies the round trip when the editor saves
// without changes.
func TestEdit_Unchanged(t *testing.T) {
	ed, _ := newTestEditor(t, writeScript(t, "exit 0"))

	before := []string{"a.1.1\tGMail\thttps://mail.google.com", "b.2.5\tGo\thttps://go.dev"}
	after, err := ed.Edit(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// TestEdit_LineRemoved verifies that edits made by the editor are read back.
func TestEdit_LineRemoved(t *testing.T) {
	script := writeScript(t, `grep -v '^a\.' "$1" > "$1.tmp" && mv "$1.tmp" "$1"`)
	ed, _ := newTestEditor(t, script)

	after, err := ed.Edit(context.Background(), []string{"a.1.1\tx", "b.2.5\ty"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.2.5\ty"}, after)
}

// TestEdit_BlankLinesDropped verifies trimming of the read-back lines.
func TestEdit_BlankLinesDropped(t *testing.T) {
	script := writeScript(t, `printf '\n   \n  c.3.3\tz  \n' >> "$1"`)
	ed, _ := newTestEditor(t, script)

	after, err := ed.Edit(context.Background(), []string{"a.1.1\tx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.1.1\tx", "c.3.3\tz"}, after)
}

// TestEdit_EditorFails verifies that a non-zero exit is reported as *Error
// and that the temp file is cleaned up.
func TestEdit_EditorFails(t *testing.T) {
	ed, dir := newTestEditor(t, writeScript(t, "exit 3"))

	_, err := ed.Edit(context.Background(), []string{"a.1.1\tx"})
	require.Error(t, err)

	var edErr *Error
	require.True(t, errors.As(err, &edErr))
	assert.Contains(t, edErr.Command, "fake-editor.sh")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed on failure")
}

// TestEdit_MissingBinary verifies that an editor which cannot be started
// is an *Error as well.
func TestEdit_MissingBinary(t *testing.T) {
	ed := &Editor{Command: "bt-no-such-editor-binary", Dir: t.TempDir()}

	_, err := ed.Edit(context.Background(), nil)
	var edErr *Error
	assert.True(t, errors.As(err, &edErr))
}

func TestEdit_EmptyCommand(t *testing.T) {
	ed := &Editor{Command: "   ", Dir: t.TempDir()}

	_, err := ed.Edit(context.Background(), []string{"a.1.1"})
	var edErr *Error
	assert.True(t, errors.As(err, &edErr))
}

// TestEdit_TempFileRemoved verifies cleanup on the success path.
func TestEdit_TempFileRemoved(t *testing.T) {
	ed, dir := newTestEditor(t, writeScript(t, "exit 0"))

	_, err := ed.Edit(context.Background(), []string{"a.1.1"})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
