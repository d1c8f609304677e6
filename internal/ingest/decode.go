package ingest

import (
	"bytes"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

var errUndecodable = errors.New(ReasonUndecodable)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// minCharsetConfidence is the lowest chardet confidence (0-100) accepted for
// transcoding. Below it the file is treated as undecodable.
const minCharsetConfidence = 10

// maxControlRatio bounds the share of control runes tolerated in decoded text.
const maxControlRatio = 0.10

// decodeText returns data as UTF-8 text. Valid UTF-8 passes through with any
// BOM removed; anything else is transcoded from the detected charset or
// rejected as binary.
func decodeText(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		return transcode(data, "utf-16le")
	case bytes.HasPrefix(data, bomUTF16BE):
		return transcode(data, "utf-16be")
	}

	data = bytes.TrimPrefix(data, bomUTF8)
	if bytes.IndexByte(data, 0) >= 0 {
		return "", errUndecodable
	}
	if utf8.Valid(data) {
		return checkTextual(string(data))
	}

	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res == nil || res.Confidence < minCharsetConfidence {
		return "", errUndecodable
	}
	return transcode(data, charsetLabel(res.Charset))
}

func transcode(data []byte, label string) (string, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", errUndecodable
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(out) {
		return "", errUndecodable
	}
	text := strings.TrimPrefix(string(out), "\uFEFF")
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", errUndecodable
	}
	return checkTextual(text)
}

// checkTextual rejects decoded content that is mostly control characters,
// which is what binary files look like after a lenient single-byte decode.
func checkTextual(text string) (string, error) {
	if strings.IndexByte(text, 0) >= 0 {
		return "", errUndecodable
	}
	var total, control int
	for _, r := range text {
		total++
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' && r != '\f' {
			control++
		}
	}
	if total > 0 && float64(control)/float64(total) > maxControlRatio {
		return "", errUndecodable
	}
	return text, nil
}

// charsetLabel maps chardet names onto WHATWG labels understood by htmlindex.
func charsetLabel(name string) string {
	if strings.EqualFold(name, "GB-18030") {
		return "gb18030"
	}
	return strings.ToLower(name)
}
