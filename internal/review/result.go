package review

// Result is the parsed model response.
type Result struct {
	// FullText is the raw completion, never modified.
	FullText string `json:"fullText"`
	// SummaryText is the Executive Summary section, or "" when absent.
	SummaryText string `json:"summaryText"`
	// PossiblyTruncated is an advisory flag from DetectTruncation.
	PossiblyTruncated bool   `json:"possiblyTruncated"`
	TruncationNote    string `json:"truncationNote,omitempty"`
}

// NewResult parses a completion into a Result.
func NewResult(fullText, finishReason string) Result {
	truncated, note := DetectTruncation(fullText, finishReason)
	return Result{
		FullText:          fullText,
		SummaryText:       ExtractSummary(fullText),
		PossiblyTruncated: truncated,
		TruncationNote:    note,
	}
}
