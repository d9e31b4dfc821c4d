package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Header  lipgloss.Style
}

func newStyles(w io.Writer, styled bool) Styles {
	r := lipgloss.NewRenderer(w)
	plain := r.NewStyle()
	if !styled {
		return Styles{Info: plain, Success: plain, Warning: plain, Error: plain, Muted: plain, Header: plain}
	}
	return Styles{
		Info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Header:  r.NewStyle().Bold(true),
	}
}
