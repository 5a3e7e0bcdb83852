package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/deps/languages"
)

// ecosystemsCommand creates the ecosystems command.
func (c *CLI) ecosystemsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ecosystems [path]",
		Short: "List supported ecosystems, or those detected under path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ecos := deps.Ecosystems()
			if len(args) == 1 {
				parsers, err := languages.DetectApplicable(args[0], nil)
				if err != nil {
					return err
				}
				ecos = ecos[:0]
				for _, p := range parsers {
					ecos = append(ecos, p.Ecosystem())
				}
			}
			fmt.Fprintln(c.out, ecosystemTable(ecos))
			return nil
		},
	}
}

func ecosystemTable(ecos []deps.Ecosystem) string {
	names := languages.Names()
	rows := make([][]string, len(ecos))
	for i, eco := range ecos {
		var aliases []string
		if n := names[eco]; len(n) > 1 {
			aliases = n[1:]
		}
		rows[i] = []string{string(eco), eco.PurlType(), aliasCell(aliases)}
	}
	return renderTable([]string{"Ecosystem", "purl type", "Aliases"}, rows, func(_, col int) lipgloss.Style {
		if col == 0 {
			return StyleHighlight
		}
		return StyleValue
	})
}
