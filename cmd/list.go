package cmd

import (
	"encoding/json"
	"os"

	"github.com/peyitv/peyitv/catalog"
	"github.com/peyitv/peyitv/icon"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolP("json", "j", false, "Output the entries as json")
	listCmd.Flags().StringP("filter", "f", "", "Only list streams whose names fuzzy-match this")
	listCmd.SetOut(os.Stdout)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the streams of the catalog",
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		store, err := catalog.Setup()
		handleErr(err)

		streams := store.All()
		if filter := lo.Must(cmd.Flags().GetString("filter")); filter != "" {
			streams = store.Find(filter)
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(lo.Map(streams, func(d *stream.Descriptor, _ int) catalog.Entry {
				return catalog.EntryOf(d)
			})))
			return
		}

		for _, d := range streams {
			cmd.Printf("%s %s %s\n", icon.Get(icon.Stream), style.Bold(d.Name()), style.Faint(d.Protocol().String()))
			cmd.Printf("  %s\n", style.Faint(d.URL()))
		}
	},
}
