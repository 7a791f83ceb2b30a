package decision

import (
	"fmt"
	"strings"
)

// Mode controls how much the engine asks before renaming.
type Mode int

const (
	// Interactive asks about every file.
	Interactive Mode = iota
	// Batch never prompts; anything needing a human is skipped.
	Batch
	// AlwaysRename never prompts and accepts every single match. Entered by
	// flag or by answering "a" in Interactive mode.
	AlwaysRename
)

func (m Mode) String() string {
	switch m {
	case Interactive:
		return "interactive"
	case Batch:
		return "batch"
	case AlwaysRename:
		return "always"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Unattended reports whether the mode may never prompt.
func (m Mode) Unattended() bool {
	return m == Batch || m == AlwaysRename
}

// ParseMode accepts the names used in config files and flags.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "interactive":
		return Interactive, nil
	case "batch":
		return Batch, nil
	case "always", "alwaysrename", "always_rename":
		return AlwaysRename, nil
	default:
		return Interactive, fmt.Errorf("unknown mode %q (want interactive, batch or always)", s)
	}
}
