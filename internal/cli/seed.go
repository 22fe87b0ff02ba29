package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SeedConfigCommand installs the default eight-step configuration as the
// active one.
func SeedConfigCommand(open Opener) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "seed-config",
		Short: "Install the default onboarding configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := open()
			if err != nil {
				return fmt.Errorf("failed to open data store: %w", err)
			}
			defer ds.Close()

			cfg, err := ds.SeedDefaultConfiguration(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("failed to seed configuration: %w", err)
			}
			steps, err := ds.ListSteps(cmd.Context(), cfg.ID)
			if err != nil {
				return fmt.Errorf("failed to list seeded steps: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration %q (%s) active with %d steps\n", cfg.Name, cfg.ID, len(steps))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "default", "Configuration name")
	return cmd
}
