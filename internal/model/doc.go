// Package model defines the domain types and value objects for the
// bt CLI.
//
// This package contains pure data structures with no external dependencies.
// Ports, client letters, tab IDs and per-client listings are all transient:
// they are rebuilt from a fresh port scan on every invocation and nothing
// is persisted between runs.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
