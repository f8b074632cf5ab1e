package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	newStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	trkStyle   = lipgloss.NewStyle().Faint(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	nameStyle  = lipgloss.NewStyle().Bold(true)
	groupStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bodyStyle  = lipgloss.NewStyle().Faint(true)
)

func NewLine(w io.Writer, path string) {
	fmt.Fprintln(w, newStyle.Render("new")+"  "+path)
}

func TrkLine(w io.Writer, path string) {
	fmt.Fprintln(w, trkStyle.Render("trk")+"  "+path)
}

func SummaryLine(w io.Writer, files, recipes int) {
	fmt.Fprintf(w, "synced %d files, %d recipes\n", files, recipes)
}

// ListRow prints one recipe line for `justparse list`.
func ListRow(w io.Writer, name, group, params string, private bool, nameWidth, groupWidth int) {
	padded := name + strings.Repeat(" ", nameWidth-len(name))
	if private {
		padded = trkStyle.Render(padded)
	} else {
		padded = nameStyle.Render(padded)
	}
	grp := group + strings.Repeat(" ", groupWidth-len(group))
	line := padded + "  " + groupStyle.Render(grp)
	if params != "" {
		line += "  " + params
	}
	fmt.Fprintln(w, strings.TrimRight(line, " "))
}

// Finding prints one validation finding with a colored category tag.
func Finding(w io.Writer, category, msg string) {
	fmt.Fprintln(w, warnStyle.Render(category)+"  "+msg)
}

func ErrorLine(w io.Writer, msg string) {
	fmt.Fprintln(w, errStyle.Render("error")+"  "+msg)
}

func OKLine(w io.Writer, msg string) {
	fmt.Fprintln(w, okStyle.Render("ok")+"  "+msg)
}

func ShowHeader(w io.Writer, name string, line int, filePath string) {
	fmt.Fprintf(w, "%s  %s\n", nameStyle.Render(name), trkStyle.Render(fmt.Sprintf("%s:%d", filePath, line)))
}

func ShowField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", trkStyle.Render(label+":"), value)
}

// ShowBody prints a recipe body indented and faint.
func ShowBody(w io.Writer, body string) {
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintln(w, "  "+bodyStyle.Render(line))
	}
}
