package review

import (
	"strings"
	"testing"
)

func TestDetectTruncation(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		finishReason string
		want         bool
	}{
		{"complete sentence", "## Executive Summary\nAll good.", "stop", false},
		{"ends with code fence", "Fix:\n```go\nx := 1\n```", "stop", false},
		{"ends with table row", "| a | b |", "", false},
		{"length finish reason", "All good.", "length", true},
		{"ascii ellipsis", "The next issue is...", "stop", true},
		{"unicode ellipsis", "The next issue is…", "stop", true},
		{"mid word", "The handler does not close the respo", "stop", true},
		{"promise to continue", "That covers part one. I'll continue with the remaining files.", "stop", true},
		{"trailing whitespace ignored", "Done.\n\n  ", "stop", false},
		{"empty text", "", "stop", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, note := DetectTruncation(tt.text, tt.finishReason)
			if got != tt.want {
				t.Fatalf("DetectTruncation = %v, want %v", got, tt.want)
			}
			if got && !strings.HasPrefix(note, "Possible truncation:") {
				t.Errorf("note = %q, want a Possible truncation prefix", note)
			}
			if !got && note != "" {
				t.Errorf("note = %q, want empty", note)
			}
		})
	}
}

func TestDetectTruncation_ContinuationOnlyNearEnd(t *testing.T) {
	text := "I'll continue with the API layer below.\n" + strings.Repeat("More findings follow here. ", 10)
	text = strings.TrimSpace(text)
	if got, _ := DetectTruncation(text, "stop"); got {
		t.Error("continuation phrase far from the end should not trigger")
	}
}

func TestNewResult(t *testing.T) {
	full := "## Executive Summary\nSolid.\n\n## Prioritized Findings\n- none."
	res := NewResult(full, "stop")

	if res.FullText != full {
		t.Error("FullText must be the unmodified completion")
	}
	if res.SummaryText != "Solid." {
		t.Errorf("SummaryText = %q, want Solid.", res.SummaryText)
	}
	if res.PossiblyTruncated || res.TruncationNote != "" {
		t.Errorf("unexpected truncation: %q", res.TruncationNote)
	}

	cut := NewResult("## Executive Summary\nSolid.\n\n## Prioritized Findings\n- The pars", "length")
	if !cut.PossiblyTruncated {
		t.Error("length finish reason should flag truncation")
	}
	if cut.SummaryText != "Solid." {
		t.Errorf("summary still extracted from a truncated response, got %q", cut.SummaryText)
	}
}
