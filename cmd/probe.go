package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/peyitv/peyitv/catalog"
	"github.com/peyitv/peyitv/color"
	"github.com/peyitv/peyitv/icon"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/probe"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/style"
	"github.com/peyitv/peyitv/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringP("filter", "f", "", "Only probe streams whose names fuzzy-match this")
	probeCmd.Flags().IntP("concurrency", "n", 0, "Streams opened at once (default probe.concurrency)")
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that every stream of the catalog can be opened",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := catalog.Setup()
		handleErr(err)

		streams := store.All()
		if filter := lo.Must(cmd.Flags().GetString("filter")); filter != "" {
			streams = store.Find(filter)
		}

		timeout := time.Duration(viper.GetInt(key.NetworkTimeoutSecs)) * time.Second
		concurrency := lo.Must(cmd.Flags().GetInt("concurrency"))
		if concurrency <= 0 {
			concurrency = viper.GetInt(key.ProbeConcurrency)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		erase := util.PrintErasable(fmt.Sprintf("%s Probing %s...", icon.Get(icon.Progress), util.Quantify(len(streams), "stream", "streams")))
		results, err := probe.Run(ctx, streams, probe.Options{
			Client:                network.NewClient(timeout, viper.GetBool(key.NetworkTLSFingerprint)),
			DefaultIdentification: viper.GetString(key.NetworkUserAgent),
			Concurrency:           concurrency,
			Rate:                  float64(viper.GetInt(key.ProbeRate)),
			Timeout:               timeout,
		})
		erase()
		handleErr(err)

		for _, r := range results {
			fmt.Println(describe(r))
		}

		failed := lo.CountBy(results, func(r probe.Result) bool { return !r.OK() })
		if failed > 0 {
			handleErr(fmt.Errorf("%s failed", util.Quantify(failed, "stream", "streams")))
		}
	},
}

func describe(r probe.Result) string {
	took := style.Faint(r.Duration.Round(time.Millisecond).String())

	if !r.OK() {
		return fmt.Sprintf("%s %s %s\n  %s", icon.Get(icon.Fail), style.Bold(r.Stream.Name()), took, style.Fg(color.Red)(r.Err.Error()))
	}

	var detail string
	switch r.Stream.Protocol() {
	case stream.SegmentedAdaptive:
		detail = fmt.Sprintf("hls, %s, %s target",
			util.Quantify(r.Info.Variants, "variant", "variants"),
			r.Info.TargetDuration,
		)
		if r.Info.Live {
			detail += ", " + icon.Get(icon.Live)
		}
	default:
		detail = fmt.Sprintf("progressive, %s", lo.Ternary(r.Info.ContentType == "", "unknown type", r.Info.ContentType))
	}

	return fmt.Sprintf("%s %s %s\n  %s", icon.Get(icon.Success), style.Bold(r.Stream.Name()), took, style.Fg(color.Yellow)(detail))
}
