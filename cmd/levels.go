package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingo/internal/lesson"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List course levels and lesson progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		only, _ := cmd.Flags().GetInt("level")

		cfg, client, creds, err := loggedInClient(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		ov, err := client.Overview(ctx)
		if err != nil {
			return forgetOnUnauthorized(creds, err)
		}
		premium := false
		if acct, err := client.Me(ctx); err == nil {
			premium = acct.Premium
		}
		policy := cfg.AccessPolicy(premium)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Lessons %d/%d   Stars %d/%d   Accuracy %.0f%%   Study time %.1f h\n",
			ov.CompletedLessons, ov.TotalLessons, ov.EarnedStars, ov.TotalStars, ov.Accuracy, ov.StudyTimeHours)

		found := false
		for _, lvl := range ov.Levels {
			if only != 0 && lvl.ID != only {
				continue
			}
			found = true
			lessons, err := client.Lessons(ctx, lvl.ID)
			if err != nil {
				return forgetOnUnauthorized(creds, err)
			}

			fmt.Fprintf(out, "\n%s (level %d)\n", lvl.Title, lvl.ID)
			if len(lessons) == 0 {
				fmt.Fprintln(out, "  no lessons yet")
				continue
			}
			t := &table{
				headers: []string{"ID", "#", "Title", "Done", "Stars", "Next"},
				maxCol:  40,
			}
			for _, l := range lessons {
				next := l.ActionLabel()
				if !policy.Allows(lvl, l) {
					next = "🔒 premium"
				}
				t.add(strconv.Itoa(l.ID), strconv.Itoa(l.Number), l.Title,
					fmt.Sprintf("%d/%d", l.CompletedSentences, l.TotalSentences),
					stars(l), next)
			}
			t.render(out)
		}
		if only != 0 && !found {
			return fmt.Errorf("level %d not found", only)
		}
		return nil
	},
}

func stars(l lesson.Lesson) string {
	if !l.Complete() {
		return fmt.Sprintf("%.0f%%", l.Percent()*100)
	}
	return strings.Repeat("★", l.Stars()) + strings.Repeat("☆", 3-l.Stars())
}

func init() {
	levelsCmd.Flags().Int("level", 0, "Show only this level ID")
}
