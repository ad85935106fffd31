package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "certprepctl",
	Short:         "Operate the certprep store",
	Long:          "certprepctl migrates the certprep schema, imports question banks and inspects or deletes learner data.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().String("config", "./config", "Directory containing config.yaml")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(flaggedCmd)
	rootCmd.AddCommand(deleteAccountCmd)
}

// withBackend opens the configured backend for the duration of fn.
func withBackend(cmd *cobra.Command, fn func(b *backend) error) error {
	configDir, _ := cmd.Flags().GetString("config")

	b, err := openBackend(cmd.Context(), configDir)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(b)
}
