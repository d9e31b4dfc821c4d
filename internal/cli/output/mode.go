// Package output renders command results for terminals and pipes.
package output

import (
	"fmt"
	"strings"
)

// Mode selects how results are written.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto" // TTY: text, otherwise markdown
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeYAML     Mode = "yaml"
)

// Modes lists every accepted mode, for flag completion.
var Modes = []Mode{ModeAuto, ModeText, ModeMarkdown, ModeJSON, ModeCSV, ModeYAML}

// ParseMode accepts a mode name; "md" is short for markdown. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case "md":
		return ModeMarkdown, nil
	case ModeAuto, ModeText, ModeMarkdown, ModeJSON, ModeCSV, ModeYAML:
		return m, nil
	}
	return ModeAuto, fmt.Errorf("unknown output mode %q (expected auto, text, markdown, json, csv or yaml)", s)
}

// Structured reports whether the mode is meant for machines.
func (m Mode) Structured() bool {
	return m == ModeJSON || m == ModeCSV || m == ModeYAML
}
