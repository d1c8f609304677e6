package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/dshills/lamp/internal/review"
)

const defaultWidth = 80

// TextWriter outputs a human-readable report.
type TextWriter struct {
	SummaryOnly bool
	Render      bool
	Width       int
}

func (t *TextWriter) Write(w io.Writer, out *review.Outcome) error {
	ew := &errWriter{w: w}
	rule := strings.Repeat("─", 60)

	ew.printf("Lamp Code Review (%s mode)\n", out.Mode.Title())
	ew.printf("Model: %s | Request: %s\n", out.Model, out.RequestID)
	ew.println(rule)
	writeIngestSummary(ew, out.Prepared)
	if out.Message != "" {
		ew.printf("WARNING: %s (submitted anyway)\n", out.Message)
	}
	ew.println(rule)

	ew.println("\nEXECUTIVE SUMMARY\n")
	summary := out.Result.SummaryText
	if summary == "" {
		ew.println("(No Executive Summary section found; showing the opening of the response.)\n")
		summary = FallbackSummary(out.Result.FullText, fallbackParagraphs)
	}
	ew.println(t.markdown(summary))

	if !t.SummaryOnly {
		ew.println("\nFULL REVIEW\n")
		ew.println(t.markdown(out.Result.FullText))
	}

	if out.Result.PossiblyTruncated {
		ew.printf("\nWARNING: %s\n", out.Result.TruncationNote)
	}

	ew.printf("\n%s\n", rule)
	ew.printf("Completed in %dms (prepare: %dms, LLM: %dms)", out.Timing.TotalMs, out.Timing.PrepareMs, out.Timing.LLMMs)
	if u := out.Completion.Usage; u.TotalTokens > 0 {
		ew.printf(" | tokens: %s prompt, %s completion",
			humanize.Comma(int64(u.PromptTokens)), humanize.Comma(int64(u.CompletionTokens)))
	}
	ew.println("")
	return ew.err
}

// markdown renders md for the terminal when enabled. Rendering failures fall
// back to the raw text.
func (t *TextWriter) markdown(md string) string {
	md = strings.TrimSpace(md)
	if !t.Render || md == "" {
		return md
	}
	width := t.Width
	if width <= 0 {
		width = defaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(rendered, "\n")
}

func writeIngestSummary(ew *errWriter, p review.Prepared) {
	ew.println(review.ProcessingSummary(p.Ingest))
	for _, s := range p.Ingest.Skipped {
		ew.printf("  skipped   %s: %s\n", s.Name, s.Reason)
	}
	for _, rec := range p.Ingest.Records {
		if rec.Truncated {
			ew.printf("  truncated %s: %d -> %d lines\n", rec.Name, rec.TruncatedAt, rec.RetainedLines)
		}
	}
	if p.Redacted > 0 {
		ew.printf("Redacted: %d file(s)\n", p.Redacted)
	}
	ew.printf("Estimated tokens: ~%s (%s prompt)\n",
		humanize.Comma(int64(p.Payload.EstimatedTokens())), humanize.IBytes(uint64(p.Payload.Bytes())))
	if p.Warning != "" {
		ew.printf("WARNING: %s\n", p.Warning)
	}
}
