// Package output formats review outcomes for display or download.
//
// Three formats are supported:
//   - text     human-readable terminal output, optionally rendered with glamour (default)
//   - markdown a standalone report suitable for saving or attaching to a ticket
//   - json     the full structured outcome, including the raw response text
//
// Use [GetWriter] to obtain a [Writer] for a format string, or [WriteReport]
// to handle destination selection as well. [WritePrepared] prints the result
// of a dry run.
package output
