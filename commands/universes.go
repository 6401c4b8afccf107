package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	m "mc.frontier/models"
)

func newUniversesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "universes",
		Short: "List the preset ticker universes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range m.UniverseNames() {
				tickers := m.Universes[name]
				if len(tickers) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s (enter tickers with --tickers)\n", name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, strings.Join(tickers, ", "))
			}
			return nil
		},
	}
}
