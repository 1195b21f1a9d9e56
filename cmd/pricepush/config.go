package main

import (
	"github.com/spf13/cobra"
)

// GetConfigCmd returns the config command group
func GetConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the loaded configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets omitted)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a.cfg.Print()
			return nil
		},
	})

	return cmd
}
