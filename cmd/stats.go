package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingo/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local answer accuracy and the most missed sentences",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		lessonID, _ := cmd.Flags().GetInt("lesson")

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
		opts := store.QueryOpts{LessonID: lessonID, Limit: limit}
		stats, err := s.AnswerStatsByLesson(ctx, opts)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No answers recorded yet.")
			return nil
		}

		fmt.Fprintln(out, "Accuracy by Lesson")
		t := &table{headers: []string{"Lesson", "Answers", "Correct", "Sentences", "Accuracy"}}
		var attempts, correct int
		for _, st := range stats {
			t.add(strconv.Itoa(st.LessonID), strconv.Itoa(st.Attempts), strconv.Itoa(st.Correct),
				strconv.Itoa(st.Sentences), fmt.Sprintf("%.0f%%", st.Accuracy*100))
			attempts += st.Attempts
			correct += st.Correct
		}
		t.add("TOTAL", strconv.Itoa(attempts), strconv.Itoa(correct), "",
			fmt.Sprintf("%.0f%%", float64(correct)/float64(attempts)*100))
		t.render(out)

		mistakes, err := s.MistakeSummary(ctx, opts)
		if err != nil {
			return fmt.Errorf("query mistakes: %w", err)
		}
		if len(mistakes) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Most Missed Sentences")
			mt := &table{headers: []string{"Lesson", "Prompt", "Answer", "Missed", "Last try"}, maxCol: 32}
			for _, m := range mistakes {
				mt.add(strconv.Itoa(m.LessonID), m.Prompt, m.Expected, strconv.Itoa(m.Wrong), m.LastGiven)
			}
			mt.render(out)
		}

		counts, err := s.ExplanationCounts(ctx)
		if err != nil {
			return fmt.Errorf("query explanations: %w", err)
		}
		if len(counts) > 0 {
			states := make([]string, 0, len(counts))
			for state := range counts {
				states = append(states, state)
			}
			sort.Strings(states)
			fmt.Fprintln(out)
			fmt.Fprint(out, "Explanations:")
			for _, state := range states {
				fmt.Fprintf(out, "  %s %d", state, counts[state])
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 10, "Number of missed sentences to show")
	statsCmd.Flags().Int("lesson", 0, "Only this lesson ID")
}
