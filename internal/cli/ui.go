package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleSelected    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// statusOut receives status lines. Stdout is reserved for documents.
var statusOut io.Writer = os.Stderr

type statusKind struct {
	icon  string
	style lipgloss.Style
	// body styles the message itself; nil leaves it plain.
	body *lipgloss.Style
}

var (
	statusSuccess = statusKind{icon: "✓", style: lipgloss.NewStyle().Foreground(colorGreen)}
	statusError   = statusKind{icon: "✗", style: lipgloss.NewStyle().Foreground(colorRed)}
	statusWarning = statusKind{icon: "!", style: StyleWarning, body: &StyleWarning}
	statusInfo    = statusKind{icon: "›", style: lipgloss.NewStyle().Foreground(colorGray)}
)

func printStatus(k statusKind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if k.body != nil {
		msg = k.body.Render(msg)
	}
	fmt.Fprintln(statusOut, k.style.Render(k.icon)+" "+msg)
}

func printSuccess(format string, args ...any) { printStatus(statusSuccess, format, args...) }
func printError(format string, args ...any)   { printStatus(statusError, format, args...) }
func printWarning(format string, args ...any) { printStatus(statusWarning, format, args...) }
func printInfo(format string, args ...any)    { printStatus(statusInfo, format, args...) }

// printDetail prints an indented dim line under the previous status.
func printDetail(format string, args ...any) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile points at a written document.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

// printStats prints counters on one dim line, e.g. "12 components · 3 ecosystems".
func printStats(parts ...string) {
	for i, part := range parts {
		parts[i] = StyleDim.Render(part)
	}
	fmt.Fprintln(statusOut, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(statusOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// renderTable draws rows under a rounded border. Cell styles come from
// style; the header row always uses styleHeader.
func renderTable(headers []string, rows [][]string, style func(row, col int) lipgloss.Style) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return style(row, col)
		}).
		Render()
}

// aliasCell joins an ecosystem's alternative names for a table cell.
func aliasCell(aliases []string) string {
	if len(aliases) == 0 {
		return "—"
	}
	return strings.Join(aliases, ", ")
}
