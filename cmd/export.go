package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingo/internal/report"
	"github.com/abhisek/lingo/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export missed sentences and lesson accuracy to an .xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		mistakes, err := s.MistakeSummary(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query mistakes: %w", err)
		}
		stats, err := s.AnswerStatsByLesson(ctx, store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := report.WriteMistakes(f, report.Workbook{Mistakes: mistakes, Stats: stats}); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d missed sentences to %s\n", len(mistakes), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "mistakes.xlsx", "Output file")
	exportCmd.Flags().IntP("limit", "n", 500, "Maximum number of sentences")
}
