package ingest

import "strings"

// Skip reasons. These strings appear verbatim in the processing report.
const (
	ReasonUnsupportedExtension = "unsupported extension"
	ReasonUndecodable          = "binary or undecodable"
	ReasonEmpty                = "empty file"
	ReasonTotalSizeExceeded    = "total size exceeded"
	ReasonUnsafeArchivePath    = "unsafe archive path"
	ReasonNestedArchive        = "nested archive"
	ReasonInvalidArchive       = "invalid zip archive"
	ReasonMemberTooLarge       = "archive member too large"
	ReasonNoLineBoundary       = "no line boundary within file limit"
)

// Upload is one raw file handed to the pipeline by the CLI or HTTP layer.
type Upload struct {
	Name string
	Data []byte
}

// FileRecord is one ingested file after decoding and, possibly, truncation.
type FileRecord struct {
	Name      string `json:"name"`
	Content   string `json:"-"`
	SizeBytes int    `json:"sizeBytes"`
	Truncated bool   `json:"truncated"`
	// TruncatedAt is the original line count, set only when Truncated.
	TruncatedAt   int `json:"truncatedAt,omitempty"`
	RetainedLines int `json:"retainedLines,omitempty"`
}

// Lines returns the number of lines in the record's current content.
func (r FileRecord) Lines() int {
	return CountLines(r.Content)
}

// Skip records a file excluded from the payload and why.
type Skip struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result is the outcome of ingestion for one submission.
type Result struct {
	Records    []FileRecord `json:"records"`
	Skipped    []Skip       `json:"skipped"`
	TotalBytes int          `json:"totalBytes"`
}

// TruncatedCount returns how many records were cut by the size guard.
func (r Result) TruncatedCount() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Truncated {
			n++
		}
	}
	return n
}

// Names returns the record names in order.
func (r Result) Names() []string {
	names := make([]string, 0, len(r.Records))
	for _, rec := range r.Records {
		names = append(names, rec.Name)
	}
	return names
}

// CountLines counts lines the way an editor would: a trailing line without a
// terminator still counts, an empty string has zero lines.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
