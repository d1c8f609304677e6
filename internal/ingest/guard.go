package ingest

import "strings"

// Default byte budgets.
const (
	DefaultMaxFileBytes  = 50 << 20
	DefaultMaxTotalBytes = 50 << 20
)

// Limits are the byte budgets enforced by Guard. Non-positive values disable
// the corresponding check.
type Limits struct {
	MaxFileBytes  int
	MaxTotalBytes int
}

// Guard applies the per-file and aggregate limits to an ingestion result.
//
// Oversized records are cut back to the last complete line inside
// MaxFileBytes. Records are then accumulated in order; the first one that
// would push the total over MaxTotalBytes and every record after it are moved
// to Skipped. A record is either included whole (after truncation) or not at
// all. Records Load already cut keep their original line count.
func Guard(in Result, limits Limits) Result {
	out := Result{
		Skipped: append([]Skip(nil), in.Skipped...),
	}

	var kept []FileRecord
	for _, rec := range in.Records {
		if limits.MaxFileBytes > 0 && len(rec.Content) > limits.MaxFileBytes {
			cut, ok := TruncateLines(rec.Content, limits.MaxFileBytes)
			if !ok {
				out.skip(rec.Name, ReasonNoLineBoundary)
				continue
			}
			if !rec.Truncated {
				rec.TruncatedAt = CountLines(rec.Content)
			}
			rec.Content = cut
			rec.RetainedLines = CountLines(cut)
			rec.Truncated = true
		}
		kept = append(kept, rec)
	}

	overflow := false
	for _, rec := range kept {
		if !overflow && limits.MaxTotalBytes > 0 && out.TotalBytes+len(rec.Content) > limits.MaxTotalBytes {
			overflow = true
		}
		if overflow {
			out.skip(rec.Name, ReasonTotalSizeExceeded)
			continue
		}
		out.Records = append(out.Records, rec)
		out.TotalBytes += len(rec.Content)
	}
	return out
}

// TruncateLines returns the longest prefix of s that fits in maxBytes and
// ends with a line terminator. It reports false when no such prefix exists.
// Content that already fits is returned unchanged.
func TruncateLines(s string, maxBytes int) (string, bool) {
	if len(s) <= maxBytes {
		return s, true
	}
	idx := strings.LastIndexByte(s[:maxBytes], '\n')
	if idx < 0 {
		return "", false
	}
	return s[:idx+1], true
}
