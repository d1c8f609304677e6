package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a byte count that reads and writes as a human-readable size.
type ByteSize int64

// ParseByteSize accepts "52428800", "50MiB", "50 MB" and similar.
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative byte size %q", s)
		}
		return ByteSize(n), nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// Int returns the size as an int for use as a limit.
func (b ByteSize) Int() int { return int(b) }

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// MarshalYAML writes the size in IEC units, e.g. "50 MiB", falling back to
// a plain integer when the short form would lose precision.
func (b ByteSize) MarshalYAML() (any, error) {
	if n, err := humanize.ParseBytes(b.String()); err == nil && ByteSize(n) == b {
		return b.String(), nil
	}
	return int64(b), nil
}

// UnmarshalYAML accepts either an integer or a size string.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: byte size must be a scalar", node.Line)
	}
	n, err := ParseByteSize(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = n
	return nil
}
