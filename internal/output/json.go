package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/lamp/internal/review"
)

// JSONWriter outputs the full outcome as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, out *review.Outcome) error {
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
