// Package cli wires together the Cobra command tree for the lamp binary.
//
// It defines the root command and all subcommands (review, config, models,
// history, serve, version), binds flags, resolves configuration, runs the
// review engine and maps failures to deterministic exit codes.
package cli
