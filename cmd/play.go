package cmd

import (
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the lesson dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		lessonID, _ := cmd.Flags().GetInt("lesson")
		return runApp(cmd, lessonID)
	},
}

func init() {
	playCmd.Flags().Int("lesson", 0, "Start this lesson right away")
}
