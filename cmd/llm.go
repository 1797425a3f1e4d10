package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingo/internal/llm"
	"github.com/abhisek/lingo/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect locally recorded LLM requests",
	Long: `Inspect the requests made to a language model when explanations are
generated locally (explain.source = "llm").`,
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openLLMStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		t := &table{
			headers: []string{"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK"},
			maxCol:  28,
		}
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			t.add(strconv.FormatInt(e.ID, 10),
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose, e.Model,
				strconv.Itoa(e.InputTokens), strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10), ok)
		}
		if len(t.rows) == 0 {
			fmt.Fprintln(out, "No LLM events found.")
			return nil
		}
		t.render(out)
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openLLMStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:        %d\n", e.ID)
		fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(out, "Model:     %s\n", e.Model)
		fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
		fmt.Fprintf(out, "Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
		}

		section := func(title, body string) {
			sep := strings.Repeat("─", 60)
			fmt.Fprintf(out, "\n%s\n%s\n%s\n", sep, title, sep)
			if body == "" {
				body = "(not captured)"
			}
			fmt.Fprintln(out, body)
		}
		section("REQUEST", e.RequestBody)
		section("RESPONSE", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openLLMStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		usage, err := s.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(usage) == 0 {
			fmt.Fprintln(out, "No LLM usage recorded yet.")
			return nil
		}

		fmt.Fprintln(out, "Usage by Purpose")
		t := &table{headers: []string{"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms"}}
		var calls, in, outTokens int
		for _, u := range usage {
			t.add(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens),
				strconv.Itoa(u.InputTokens+u.OutputTokens), fmt.Sprintf("%.0f", u.AvgLatencyMs))
			calls += u.Calls
			in += u.InputTokens
			outTokens += u.OutputTokens
		}
		t.add("TOTAL", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(outTokens), strconv.Itoa(in+outTokens), "")
		t.render(out)

		models, err := s.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(models) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Estimated Cost (USD)")
		ct := &table{headers: []string{"Model", "Calls", "Input", "Output", "Cost"}, maxCol: 32}
		var total float64
		var unknown []string
		for _, m := range models {
			cost := "?"
			if price := llm.LookupCost(m.Model); price != nil {
				c := price.Cost(m.InputTokens, m.OutputTokens)
				total += c
				cost = formatCost(c)
			} else {
				unknown = append(unknown, m.Model)
			}
			ct.add(m.Model, strconv.Itoa(m.Calls), strconv.Itoa(m.InputTokens), strconv.Itoa(m.OutputTokens), cost)
		}
		label := "TOTAL"
		if len(unknown) > 0 {
			label = "TOTAL (partial)"
		}
		ct.add(label, "", "", "", formatCost(total))
		ct.render(out)

		if len(unknown) > 0 {
			fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	},
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func openLLMStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. explain-error)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
