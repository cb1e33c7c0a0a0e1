package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// outputStyles renders show output. Plain styles are used when stdout is not
// a terminal so that piped output carries no escape sequences.
type outputStyles struct {
	title    lipgloss.Style
	key      lipgloss.Style
	value    lipgloss.Style
	muted    lipgloss.Style
	override lipgloss.Style
}

func newOutputStyles(writer io.Writer) outputStyles {
	if !isTerminal(writer) {
		plain := lipgloss.NewStyle()
		return outputStyles{title: plain, key: plain, value: plain, muted: plain, override: plain}
	}

	renderer := lipgloss.NewRenderer(writer)
	return outputStyles{
		title:    renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		key:      renderer.NewStyle().Foreground(lipgloss.Color("14")),
		value:    renderer.NewStyle().Foreground(lipgloss.Color("15")),
		muted:    renderer.NewStyle().Faint(true),
		override: renderer.NewStyle().Foreground(lipgloss.Color("11")),
	}
}
