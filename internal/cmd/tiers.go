package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distkit/distkit/internal/tier"
)

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "List component tiers",
	Long: `List the registered component tiers, smallest first.

Each tier is a superset of the previous one, so upgrading a package from
minimal to standard only ever adds components.`,
	Args: cobra.NoArgs,
	RunE: runTiers,
}

var tiersVerbose bool

func init() {
	tiersCmd.Flags().BoolVar(&tiersVerbose, "components", false,
		"list each tier's components")

	rootCmd.AddCommand(tiersCmd)
}

func runTiers(cmd *cobra.Command, args []string) error {
	for _, name := range tier.Names() {
		components, err := tier.Resolve(name)
		if err != nil {
			return err
		}

		fmt.Printf("%-10s %2d components, ~%4d MB\n",
			name, len(components), tier.TotalSize(components)>>20)

		if tiersVerbose {
			for _, c := range components {
				fmt.Printf("  %-12s %s (~%d MB)\n", c.ID, c.DisplayName, c.ApproxSizeBytes>>20)
			}
		}
	}
	return nil
}
