package redact

import (
	"path"
	"regexp"
	"strings"

	"github.com/dshills/lamp/internal/ingest"
)

const placeholder = "[REDACTED]"

// pathNotice replaces the whole content of a file matched by path policy.
const pathNotice = placeholder + " (file content withheld by path policy)\n"

var secretPatterns = []*regexp.Regexp{
	// key = "value" style assignments
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
	// bare token shapes
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-or-v1-[A-Za-z0-9]{32,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
}

// Secrets replaces every detected secret in text with [REDACTED].
func Secrets(text string) string {
	for _, pat := range secretPatterns {
		text = pat.ReplaceAllLiteralString(text, placeholder)
	}
	return text
}

// ShouldRedactPath reports whether name matches any pattern. A leading "**/"
// matches at any depth, including the top level.
func ShouldRedactPath(name string, patterns []string) bool {
	name = strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "./")
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
		rest, deep := strings.CutPrefix(pattern, "**/")
		if !deep {
			continue
		}
		if ok, err := path.Match(rest, path.Base(name)); err == nil && ok {
			return true
		}
	}
	return false
}

// Content returns content with secrets removed, or a fixed notice when the
// file name is covered by redactPaths.
func Content(content, name string, redactPaths []string) string {
	if ShouldRedactPath(name, redactPaths) {
		return pathNotice
	}
	return Secrets(content)
}

// Records applies Content to every record and returns the new slice with the
// number of records whose content changed. The input is not modified.
// SizeBytes follows the redacted content so later size limits see what will
// actually be sent. Records already cut while loading keep their original
// size and line count unless the whole file is withheld.
func Records(records []ingest.FileRecord, redactPaths []string) ([]ingest.FileRecord, int) {
	out := make([]ingest.FileRecord, len(records))
	changed := 0
	for i, rec := range records {
		clean := Content(rec.Content, rec.Name, redactPaths)
		if clean != rec.Content {
			changed++
			rec.Content = clean
			switch {
			case clean == pathNotice:
				rec.Truncated, rec.TruncatedAt, rec.RetainedLines = false, 0, 0
				rec.SizeBytes = len(clean)
			case rec.Truncated:
				rec.RetainedLines = ingest.CountLines(clean)
			default:
				rec.SizeBytes = len(clean)
			}
		}
		out[i] = rec
	}
	return out, changed
}
