// Package ingest turns raw uploads into normalized file records and enforces
// the per-file and total byte budgets.
//
// [Load] expands zip archives one level deep, applies the extension
// allow-list, and decodes content to UTF-8 (transcoding legacy charsets when
// detection is confident). Files that cannot be used are recorded as [Skip]
// values with a fixed reason; nothing is dropped silently.
//
// [Guard] truncates oversized records on a line boundary and drops whole
// records from the tail once the running total would exceed the aggregate
// limit. Both functions are deterministic for a given ordered input.
package ingest
