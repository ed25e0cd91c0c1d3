package cmd

import (
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/peyitv/peyitv/color"
	"github.com/peyitv/peyitv/constant"
	"github.com/peyitv/peyitv/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Only print the version number")
}

var versionTemplate = template.Must(template.New("version").Funcs(map[string]any{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Git Commit" }}      {{ bold .Revision }}
  {{ faint "Build Date" }}      {{ bold .BuiltAt }}
  {{ faint "Built By" }}        {{ bold .BuiltBy }}
  {{ faint "Platform" }}        {{ bold .OS }}/{{ bold .Arch }}
  {{ faint "User-Agent" }}      {{ bold .UserAgent }}
`))

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		handleErr(versionTemplate.Execute(cmd.OutOrStdout(), struct {
			App, Version, OS, Arch, BuiltAt, BuiltBy, Revision, UserAgent string
		}{
			App:       constant.DisplayName,
			Version:   constant.Version,
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			BuiltAt:   strings.TrimSpace(constant.BuiltAt),
			BuiltBy:   constant.BuiltBy,
			Revision:  constant.Revision,
			UserAgent: constant.UserAgent,
		}))
	},
}
