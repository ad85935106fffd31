package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

// questionBank is the import file format: quiz ID -> ordered questions.
type questionBank map[string][]entities.Question

var importCmd = &cobra.Command{
	Use:   "import <certification> <file.json>",
	Short: "Import a question bank for a certification",
	Long: `Import replaces the questions of every quiz present in the file.
The file maps quiz IDs ("1".."32") to ordered question lists.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read question bank: %w", err)
		}

		var bank questionBank
		if err := json.Unmarshal(raw, &bank); err != nil {
			return fmt.Errorf("decode question bank: %w", err)
		}

		return withBackend(cmd, func(b *backend) error {
			catalog, err := b.catalog(b.questions)
			if err != nil {
				return err
			}
			cert, err := catalog.Certification(args[0])
			if err != nil {
				return err
			}

			if err := validateBank(bank, cert.TotalQuizzes()); err != nil {
				return err
			}

			if err := b.questions.ReplaceQuizzes(cmd.Context(), cert.Code, bank); err != nil {
				return fmt.Errorf("import question bank: %w", err)
			}
			for _, id := range slices.Sorted(maps.Keys(bank)) {
				b.logger.Info("quiz imported",
					zap.String("certification", cert.Code),
					zap.String("quiz_id", id),
					zap.Int("questions", len(bank[id])),
				)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d quizzes for %s.\n", len(bank), cert.Code)
			return nil
		})
	},
}

// validateBank rejects quiz IDs outside the catalog, malformed questions
// and question IDs used twice.
func validateBank(bank questionBank, totalQuizzes int) error {
	seen := make(map[string]string)
	for id, questions := range bank {
		n, err := strconv.Atoi(id)
		if err != nil || n < 1 || n > totalQuizzes {
			return fmt.Errorf("quiz %q is outside the catalog (1..%d)", id, totalQuizzes)
		}
		for i, q := range questions {
			if !q.Valid() {
				return fmt.Errorf("quiz %s question %d (%q) is malformed", id, i+1, q.ID)
			}
			if other, dup := seen[q.ID]; dup {
				return fmt.Errorf("question id %q used in quiz %s and quiz %s", q.ID, other, id)
			}
			seen[q.ID] = id
		}
	}
	return nil
}
