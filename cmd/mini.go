package cmd

import (
	"errors"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/peyitv/peyitv/mini"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(miniCmd)

	miniCmd.Flags().BoolP("continue", "c", false, "Start from the history instead of the catalog")
}

var miniCmd = &cobra.Command{
	Use:   "mini",
	Short: "Pick and control streams with plain prompts",
	Long:  `Pick streams and control playback with line-based prompts instead of the full-screen picker.`,
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		options := mini.Options{
			Continue: lo.Must(cmd.Flags().GetBool("continue")),
		}
		err := mini.Run(&options)

		if err != nil && !errors.Is(err, terminal.InterruptErr) {
			handleErr(err)
		}
	},
}
