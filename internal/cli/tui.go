package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/deps/languages"
)

// =============================================================================
// EcosystemPicker - Interactive ecosystem selection
// =============================================================================

type pickerItem struct {
	Ecosystem deps.Ecosystem
	Aliases   []string
	Checked   bool
}

// EcosystemPicker is the bubbletea model for choosing which of the detected
// ecosystems go into the document. Every item starts checked.
type EcosystemPicker struct {
	Items     []pickerItem
	Cursor    int
	Confirmed bool
	Cancelled bool
}

// NewEcosystemPicker creates a picker over the given parsers.
func NewEcosystemPicker(parsers []deps.Parser) EcosystemPicker {
	names := languages.Names()
	items := make([]pickerItem, len(parsers))
	for i, p := range parsers {
		eco := p.Ecosystem()
		var aliases []string
		if n := names[eco]; len(n) > 1 {
			aliases = n[1:]
		}
		items[i] = pickerItem{Ecosystem: eco, Aliases: aliases, Checked: true}
	}
	return EcosystemPicker{Items: items}
}

// Selected returns the checked ecosystem names in display order.
func (m EcosystemPicker) Selected() []string {
	var out []string
	for _, it := range m.Items {
		if it.Checked {
			out = append(out, string(it.Ecosystem))
		}
	}
	return out
}

func (m EcosystemPicker) Init() tea.Cmd {
	return nil
}

func (m EcosystemPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.Cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Items)-1 {
			m.Cursor++
		}
	case " ", "space", "x":
		if len(m.Items) > 0 {
			m.Items[m.Cursor].Checked = !m.Items[m.Cursor].Checked
		}
	case "a":
		all := len(m.Selected()) == len(m.Items)
		for i := range m.Items {
			m.Items[i].Checked = !all
		}
	case "enter":
		if len(m.Selected()) == 0 {
			return m, nil
		}
		m.Confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m EcosystemPicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Ecosystems"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, len(m.Items))
	for i, it := range m.Items {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if it.Checked {
			check = "[x]"
		}
		rows[i] = []string{cursor, check, string(it.Ecosystem), aliasCell(it.Aliases)}
	}
	b.WriteString(renderTable([]string{"", "", "Ecosystem", "Also known as"}, rows, func(row, _ int) lipgloss.Style {
		switch {
		case row == m.Cursor:
			return styleSelected
		case !m.Items[row].Checked:
			return StyleDim
		default:
			return StyleValue
		}
	}))
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d of %d selected", len(m.Selected()), len(m.Items))))
	b.WriteString("\n")
	return b.String()
}

// pickEcosystems detects the ecosystems under root and lets the user narrow
// them down. A single detected ecosystem is returned without prompting.
func (c *CLI) pickEcosystems(root string, filter []string) ([]string, error) {
	parsers, err := languages.DetectApplicable(root, filter)
	if err != nil {
		return nil, err
	}
	if len(parsers) == 1 {
		return []string{string(parsers[0].Ecosystem())}, nil
	}

	final, err := tea.NewProgram(NewEcosystemPicker(parsers), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return nil, fmt.Errorf("ecosystem picker: %w", err)
	}
	m := final.(EcosystemPicker)
	if m.Cancelled || !m.Confirmed {
		return nil, context.Canceled
	}
	return m.Selected(), nil
}
