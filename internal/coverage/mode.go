package coverage

import (
	"fmt"
	"strings"
)

// Mode selects the coverage granularity.
type Mode uint8

const (
	// ModeTerminal counts one unit per production: its only terminal run.
	ModeTerminal Mode = iota
	// ModeWord counts every whitespace-separated token of every terminal run.
	ModeWord
)

func (m Mode) String() string {
	switch m {
	case ModeTerminal:
		return "terminal"
	case ModeWord:
		return "word"
	default:
		return "unknown"
	}
}

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "terminal", "terminals":
		return ModeTerminal, nil
	case "word", "words":
		return ModeWord, nil
	default:
		return ModeTerminal, fmt.Errorf("invalid coverage mode: %q (expected: terminal|word)", s)
	}
}
