package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Row is one label/value line of a Table.
type Row struct {
	Label string
	Value string
}

// Table renders rows as two aligned columns under a bold title. Labels are
// padded by display width, so wide runes line up. With color off the
// output is plain text.
func Table(title string, rows []Row, color bool) string {
	labelWidth := 0
	for _, r := range rows {
		labelWidth = max(labelWidth, runewidth.StringWidth(r.Label))
	}
	titleStyle := lipgloss.NewStyle().Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	if !color {
		titleStyle = lipgloss.NewStyle()
		labelStyle = lipgloss.NewStyle()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(runewidth.FillRight(r.Label, labelWidth)))
		b.WriteString("  ")
		b.WriteString(r.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
