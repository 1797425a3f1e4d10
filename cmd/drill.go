package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/abhisek/lingo/internal/drill"
)

var drillCmd = &cobra.Command{
	Use:   "drill <lesson-id>",
	Short: "Practice a lesson line by line, without the full-screen UI",
	Long: `Practice a lesson in line mode. Each sentence is printed, you type the
translation and press Enter. Type :q to leave the lesson.

Colors are turned off with --plain or when stdout is not a terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runDrill,
}

func init() {
	drillCmd.Flags().Bool("plain", false, "Plain output without colors")
}

func runDrill(cmd *cobra.Command, args []string) error {
	lessonID, err := strconv.Atoi(args[0])
	if err != nil || lessonID <= 0 {
		return fmt.Errorf("invalid lesson ID %q", args[0])
	}
	plain, _ := cmd.Flags().GetBool("plain")

	stdout := int(os.Stdout.Fd())
	width := 80
	if term.IsTerminal(stdout) {
		if w, _, err := term.GetSize(stdout); err == nil && w > 0 {
			width = w
		}
	} else {
		plain = true
	}

	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := drill.Run(cmd.Context(), drill.Options{
		LessonID:  lessonID,
		Loader:    d.services.Loader,
		Recorder:  d.services.Recorder,
		Explainer: d.services.Explainer,
		Runs:      d.services.Runs,
		Logger:    d.logger.Named("drill"),
		In:        cmd.InOrStdin(),
		Out:       cmd.OutOrStdout(),
		Plain:     plain,
		Width:     width,
	})
	if errors.Is(err, drill.ErrAuthRequired) {
		if cerr := d.creds.Clear(); cerr != nil {
			d.logger.Warn("clear credentials", zap.Error(cerr))
		}
		return fmt.Errorf("%w: run `lingo login`", err)
	}
	if err != nil {
		return err
	}
	if res.Answered > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\n── %d/%d answered correctly ──\n", res.Correct, res.Answered)
	}
	return nil
}
