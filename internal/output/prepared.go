package output

import (
	"io"
	"strings"

	"github.com/dshills/lamp/internal/review"
)

// WritePrepared prints a dry run: the validation outcome and, unless format
// is json, the assembled prompt itself.
func WritePrepared(w io.Writer, p *review.Prepared, format string) error {
	if strings.EqualFold(format, "json") {
		return writeJSON(w, struct {
			*review.Prepared
			Prompt string `json:"prompt"`
		}{p, p.Payload.Text()})
	}

	ew := &errWriter{w: w}
	ew.printf("Lamp dry run (%s mode, %s) | Request: %s\n", p.Mode.Title(), p.Model, p.RequestID)
	ew.println(strings.Repeat("─", 60))
	writeIngestSummary(ew, *p)
	if p.Valid {
		ew.println("Validation: ok")
	} else {
		ew.printf("Validation: rejected: %s\n", p.Message)
	}
	ew.println(strings.Repeat("─", 60))
	ew.println(p.Payload.Text())
	return ew.err
}
