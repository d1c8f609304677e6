package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/lamp/internal/review"
)

// Writer writes a review outcome in a specific format.
type Writer interface {
	Write(w io.Writer, out *review.Outcome) error
}

// Options tune the writers that support them.
type Options struct {
	// SummaryOnly omits the full review from text output.
	SummaryOnly bool
	// Render styles text output as terminal Markdown.
	Render bool
	// Width is the wrap width for rendered output; zero means 80.
	Width int
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextWriter{SummaryOnly: opts.SummaryOnly, Render: opts.Render, Width: opts.Width}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes out to outPath, or to stdout when outPath is empty.
func WriteReport(out *review.Outcome, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, out)
}

// fallbackParagraphs is how much of a response is shown when it has no
// Executive Summary section.
const fallbackParagraphs = 3

// FallbackSummary returns the first n non-empty paragraphs of text. It is for
// display only; the parsed result keeps an empty summary.
func FallbackSummary(text string, n int) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paras = append(paras, p)
		if len(paras) == n {
			break
		}
	}
	return strings.Join(paras, "\n\n")
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
