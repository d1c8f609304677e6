package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dshills/lamp/internal/review"
)

// MarkdownWriter outputs a standalone Markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, out *review.Outcome) error {
	ew := &errWriter{w: w}

	ew.printf("# Lamp Code Review\n\n")
	ew.printf("| | |\n|---|---|\n")
	ew.printf("| Mode | %s |\n", out.Mode.Title())
	ew.printf("| Model | `%s` |\n", out.Model)
	ew.printf("| Request | `%s` |\n", out.RequestID)
	ew.printf("| Files | %s |\n", review.ProcessingSummary(out.Ingest))
	ew.printf("| Estimated tokens | ~%s |\n\n", humanize.Comma(int64(out.Payload.EstimatedTokens())))

	if out.Result.PossiblyTruncated {
		ew.printf("> **Warning:** %s\n\n", out.Result.TruncationNote)
	}

	if len(out.Ingest.Skipped) > 0 || out.Ingest.TruncatedCount() > 0 {
		ew.printf("<details>\n<summary>Processing report</summary>\n\n")
		for _, s := range out.Ingest.Skipped {
			ew.printf("- Skipped `%s`: %s\n", s.Name, s.Reason)
		}
		for _, rec := range out.Ingest.Records {
			if rec.Truncated {
				ew.printf("- Truncated `%s`: %d -> %d lines\n", rec.Name, rec.TruncatedAt, rec.RetainedLines)
			}
		}
		ew.printf("\n</details>\n\n")
	}

	ew.printf("---\n\n")
	ew.println(strings.TrimSpace(out.Result.FullText))
	ew.printf("\n---\n\n")

	ew.printf("*Reviewed in %dms (prepare: %dms, LLM: %dms)*\n",
		out.Timing.TotalMs, out.Timing.PrepareMs, out.Timing.LLMMs)
	return ew.err
}

// ReportFilename is the suggested download name for a Markdown report.
func ReportFilename(out *review.Outcome) string {
	return fmt.Sprintf("lamp-review-%s.md", out.RequestID)
}
