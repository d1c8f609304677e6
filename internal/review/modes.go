package review

import (
	"fmt"
	"strings"
)

// Mode selects the review focus.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeRefactor Mode = "refactor"
)

// ParseMode accepts a mode name case-insensitively. Empty means standard.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeStandard):
		return ModeStandard, nil
	case string(ModeRefactor):
		return ModeRefactor, nil
	}
	return "", fmt.Errorf("unknown review mode %q (want standard or refactor)", s)
}

// Title is the display name used in prompts and reports.
func (m Mode) Title() string {
	if m == ModeRefactor {
		return "Refactor"
	}
	return "Standard"
}

// Focus is the requested-focus sentence placed in the review context.
func (m Mode) Focus() string {
	if m == ModeRefactor {
		return "Perform a refactor-focused review only. Identify files and modules that should be " +
			"split, merged or reorganized to improve cohesion, reduce coupling and increase " +
			"testability, and propose an incremental plan that preserves behavior."
	}
	return "Find correctness, security, performance and maintainability issues, ordered by " +
		"severity, with concrete fixes."
}
