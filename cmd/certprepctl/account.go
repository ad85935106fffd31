package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/service"
)

var deleteAccountCmd = &cobra.Command{
	Use:   "delete-account <learner-id>",
	Short: "Delete every stored record of a learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to delete without --yes")
		}

		return withWorkspace(cmd, args[0], func(w *service.Workspace) error {
			if err := w.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted learner %s.\n", w.LearnerID())
			return nil
		})
	},
}

func init() {
	deleteAccountCmd.Flags().Bool("yes", false, "Confirm deletion")
}

// withWorkspace signs learnerID in for the duration of fn and flushes any
// pending writes on the way out.
func withWorkspace(cmd *cobra.Command, learnerID string, fn func(w *service.Workspace) error) error {
	return withBackend(cmd, func(b *backend) error {
		w, err := b.openWorkspace(cmd.Context(), learnerID)
		if err != nil {
			return err
		}

		fnErr := fn(w)
		closeErr := w.Close(cmd.Context())
		return errors.Join(fnErr, closeErr)
	})
}

func certificationsOf(w *service.Workspace) ([]*entities.Certification, error) {
	certs := w.Certifications()
	if len(certs) == 0 {
		return nil, errors.New("no certifications configured")
	}
	return certs, nil
}
