package review

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// tokensPerWord is the multiplier applied to the whitespace word count.
const tokensPerWord = 1.3

// nearLimitRatio is the share of the token limit that triggers a warning.
const nearLimitRatio = 0.75

// EstimateTokens approximates the token count of text as 1.3 tokens per
// whitespace-separated word, rounded. It is a heuristic, not a tokenizer, and
// can be off by a wide margin for code or non-English text.
func EstimateTokens(text string) int {
	return int(math.Round(float64(len(strings.Fields(text))) * tokensPerWord))
}

// Validate checks text against maxTokens. It returns ok=false and a message
// naming the estimate and the limit when the estimate exceeds the limit, and
// ok=true with an empty message otherwise. A non-positive maxTokens disables
// the check.
func Validate(text string, maxTokens int) (bool, string) {
	est := EstimateTokens(text)
	if maxTokens > 0 && est > maxTokens {
		return false, tooLargeMessage(est, maxTokens)
	}
	return true, ""
}

// NearLimit reports whether an accepted estimate is at or above 75% of the
// limit, which the CLI surfaces as an advisory warning.
func NearLimit(estimated, maxTokens int) bool {
	return maxTokens > 0 && estimated <= maxTokens && float64(estimated) >= nearLimitRatio*float64(maxTokens)
}

// NearLimitWarning is the advisory text shown for NearLimit requests.
func NearLimitWarning(estimated, maxTokens int) string {
	return fmt.Sprintf("large request: ~%s estimated tokens is %d%% of the %s limit; the response may be cut short",
		humanize.Comma(int64(estimated)), estimated*100/maxTokens, humanize.Comma(int64(maxTokens)))
}

func tooLargeMessage(estimated, maxTokens int) string {
	return fmt.Sprintf("prompt too large: ~%s estimated tokens exceeds the limit of %s",
		humanize.Comma(int64(estimated)), humanize.Comma(int64(maxTokens)))
}

// Payload is an assembled prompt with its token estimate. The estimate is
// computed from the text at construction; build a new Payload to change the
// text.
type Payload struct {
	text   string
	tokens int
}

// NewPayload wraps text and computes its estimate.
func NewPayload(text string) Payload {
	return Payload{text: text, tokens: EstimateTokens(text)}
}

// Text returns the prompt.
func (p Payload) Text() string { return p.text }

// EstimatedTokens returns the heuristic token count for Text.
func (p Payload) EstimatedTokens() int { return p.tokens }

// Bytes returns the prompt size in bytes.
func (p Payload) Bytes() int { return len(p.text) }

// MarshalJSON reports sizes only; the prompt itself can be megabytes.
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EstimatedTokens int `json:"estimatedTokens"`
		Bytes           int `json:"bytes"`
	}{p.tokens, len(p.text)})
}

// PayloadTooLargeError is returned when the estimate exceeds the configured
// limit and the caller did not force submission. It is recoverable: drop files
// or raise the limit and try again.
type PayloadTooLargeError struct {
	Estimated int
	Limit     int
}

func (e *PayloadTooLargeError) Error() string {
	return tooLargeMessage(e.Estimated, e.Limit)
}
