package review

import (
	"strings"
	"unicode/utf8"
)

// terminalRunes end a response that looks complete. Markdown responses
// commonly close with a code fence, emphasis or a quote.
const terminalRunes = ".!?:;)}]`*\"'|>"

// DetectTruncation applies the possible-truncation heuristic to a
// completion. It is advisory: a true result means the response looks cut
// short, not that it was. The returned note is empty when nothing was
// detected.
func DetectTruncation(text, finishReason string) (bool, string) {
	if finishReason == "length" {
		return true, "Possible truncation: the model stopped at its output token limit."
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, ""
	}
	if strings.HasSuffix(trimmed, "...") || strings.HasSuffix(trimmed, "…") {
		return true, "Possible truncation: the response ends with an ellipsis."
	}
	if strings.Contains(strings.ToLower(lastRunes(trimmed, 100)), "i'll continue with") {
		return true, "Possible truncation: the response announces more content that never arrived."
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	if !strings.ContainsRune(terminalRunes, last) {
		return true, "Possible truncation: the response does not end with terminal punctuation."
	}
	return false, ""
}

func lastRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-n:])
}
