package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")).Width(10)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printField(w io.Writer, label string, format string, args ...any) {
	fmt.Fprintln(w, labelStyle.Render(label)+fmt.Sprintf(format, args...))
}
