package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
)

// NewTable creates a table writing to w with consistent styling
func NewTable(w io.Writer, headers ...interface{}) table.Table {
	tbl := table.New(headers...).WithWriter(w)

	// Only the first column is styled; a header formatter breaks alignment.
	tbl.WithFirstColumnFormatter(func(format string, vals ...interface{}) string {
		return BoldStyle.Render(fmt.Sprintf(format, vals...))
	})

	tbl.WithPadding(2)

	// lipgloss.Width ignores ANSI escape codes when measuring cells.
	tbl.WithWidthFunc(lipgloss.Width)

	return tbl
}

// PrintSectionHeader prints a consistent section header
func PrintSectionHeader(w io.Writer, icon string, title string, count int) {
	OutputLine(w, "\n%s %s (%d)", icon, title, count)
}
