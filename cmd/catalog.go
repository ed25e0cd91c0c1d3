package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/peyitv/peyitv/catalog"
	"github.com/peyitv/peyitv/color"
	"github.com/peyitv/peyitv/icon"
	"github.com/peyitv/peyitv/open"
	"github.com/peyitv/peyitv/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd, catalogSchemaCmd, catalogPathCmd, catalogEditCmd)
	catalogEditCmd.Flags().StringP("editor", "e", os.Getenv("EDITOR"), "Program to edit the catalog with")
	catalogCmd.SetOut(os.Stdout)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the stream catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check that a catalog file loads",
	Long:  "Check that a catalog file loads. Without a path the catalog that would be used is checked.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			store *catalog.Store
			err   error
		)

		if len(args) == 1 {
			store, err = catalog.Load(args[0])
		} else {
			store, err = catalog.Setup()
		}
		handleErr(err)

		fmt.Printf(
			"%s %s is valid: %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(store.Source()),
			style.Fg(color.Yellow)(fmt.Sprintf("%d streams", store.Len())),
		)
	},
}

var catalogSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of catalog files",
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(catalog.Schema()))
	},
}

var catalogPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print which catalog is used",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(catalog.Path())
	},
}

var catalogEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the catalog in an editor",
	Long: `Open the catalog in an editor.
When only the builtin catalog is in use it is first copied to the config directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		path := catalog.Path()
		if path == catalog.BuiltinPath {
			var err error
			path, err = catalog.Init()
			handleErr(err)
		}

		handleErr(open.RunWith(path, lo.Must(cmd.Flags().GetString("editor"))))

		_, err := catalog.Load(path)
		if err != nil {
			handleErr(fmt.Errorf("the edited catalog does not load: %w", err))
		}
		fmt.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}
