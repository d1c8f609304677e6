// Package history records one row per review request in a local SQLite
// database, so that `lamp history list` can show what was sent, to which
// model, and how it ended.
//
// Only metadata is stored: file counts, the estimated token count, the
// outcome and the classified error kind. Prompts, file contents and responses
// are never written. The database lives next to the config file by default
// ($XDG_CONFIG_HOME/lamp/history.db).
package history
