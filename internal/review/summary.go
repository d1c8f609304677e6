package review

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	atxHeading   = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?(?:[ \t]+#+)?[ \t]*$`)
	listNumber   = regexp.MustCompile(`^(?:\d+|[ivxIVX]+)[.)][ \t]*`)
	codeFenceTag = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})(.*)$")
)

const summaryHeading = "executive summary"

// ExtractSummary returns the body of the "Executive Summary" section of a
// Markdown response: the text after the first ATX heading whose title is
// "Executive Summary" (ignoring case, emphasis and list numbering) up to the
// next heading of the same or a higher level. Headings inside fenced code are
// ignored; a fence only closes on a run of its own character at least as long
// as the opener. It returns "" when there is no such heading.
func ExtractSummary(fullText string) string {
	lines := strings.Split(fullText, "\n")

	level := 0
	start := -1
	end := len(lines)
	fence := ""

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if m := codeFenceTag.FindStringSubmatch(line); m != nil {
			if fence == "" {
				fence = m[1]
				continue
			}
			if closesFence(fence, m[1], m[2]) {
				fence = ""
				continue
			}
		}
		if fence != "" {
			continue
		}
		m := atxHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if start < 0 {
			if normalizeHeading(m[2]) == summaryHeading {
				level = len(m[1])
				start = i + 1
			}
			continue
		}
		if len(m[1]) <= level {
			end = i
			break
		}
	}

	if start < 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// closesFence reports whether a fence run ends the block opened by open: same
// character, at least as long, and nothing but spaces after it.
func closesFence(open, run, rest string) bool {
	return run[0] == open[0] && len(run) >= len(open) && strings.TrimSpace(rest) == ""
}

func normalizeHeading(s string) string {
	s = strings.NewReplacer("*", "", "_", "", "`", "").Replace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	s = listNumber.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ": ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
