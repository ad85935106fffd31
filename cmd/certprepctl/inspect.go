package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aliskhannn/certprep/internal/service"
)

var progressCmd = &cobra.Command{
	Use:   "progress <learner-id>",
	Short: "Show a learner's progress per certification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, args[0], func(w *service.Workspace) error {
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%-12s  %-40s  %9s  %4s\n", "Code", "Certification", "Completed", "%")
			fmt.Fprintln(out, strings.Repeat("─", 72))

			certs, err := certificationsOf(w)
			if err != nil {
				return err
			}
			for _, cert := range certs {
				p, err := w.Progress(cert.Code)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-12s  %-40s  %4d/%-4d  %4d\n",
					cert.Code, truncate(cert.Name, 40), p.Completed, p.Total, p.Percentage)
			}

			overall := w.OverallProgress()
			fmt.Fprintln(out, strings.Repeat("─", 72))
			fmt.Fprintf(out, "%-12s  %-40s  %4d/%-4d  %4d\n",
				"ALL", "", overall.Completed, overall.Total, overall.Percentage)
			return nil
		})
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog <learner-id> <certification>",
	Short: "Show a certification's quiz catalog as a learner sees it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, args[0], func(w *service.Workspace) error {
			entries, err := w.Catalog(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s  %-18s  %9s  %7s  %5s  %s\n", "ID", "Title", "Questions", "Minutes", "Score", "State")
			fmt.Fprintln(out, strings.Repeat("─", 64))

			for _, e := range entries {
				score := "-"
				if e.Score != nil {
					score = fmt.Sprintf("%d", *e.Score)
				}
				state := "open"
				switch {
				case e.IsCompleted:
					state = "done"
				case e.IsLocked:
					state = "locked"
				}
				fmt.Fprintf(out, "%-4s  %-18s  %9d  %7d  %5s  %s\n",
					e.QuizID, e.Title, e.QuestionCount, e.DurationMinutes, score, state)
			}
			return nil
		})
	},
}

var flaggedCmd = &cobra.Command{
	Use:   "flagged <learner-id> [certification]",
	Short: "List a learner's flagged questions",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, args[0], func(w *service.Workspace) error {
			flagged := w.Flags.All()
			if len(args) == 2 {
				cert, err := w.Certification(args[1])
				if err != nil {
					return err
				}
				flagged = w.Flags.GetFlaggedByCert(cert.Code)
			}

			out := cmd.OutOrStdout()
			if len(flagged) == 0 {
				fmt.Fprintln(out, "No flagged questions.")
				return nil
			}

			for _, f := range flagged {
				fmt.Fprintf(out, "%s  %s/%s  %s\n",
					f.FlaggedAt.Local().Format("2006-01-02 15:04"),
					f.CertificationCode, f.QuizID, f.QuestionID)
				fmt.Fprintf(out, "    %s\n", truncate(f.QuestionText, 100))
				fmt.Fprintf(out, "    answer: %s\n", f.CorrectAnswerText)
			}
			return nil
		})
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
