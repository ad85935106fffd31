package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(b *backend) error {
			if err := b.migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s).\n", b.cfg.Storage.Driver)
			return nil
		})
	},
}
