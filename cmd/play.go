package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peyitv/peyitv/catalog"
	"github.com/peyitv/peyitv/color"
	"github.com/peyitv/peyitv/history"
	"github.com/peyitv/peyitv/icon"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/log"
	"github.com/peyitv/peyitv/metrics"
	"github.com/peyitv/peyitv/session"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().BoolP("continue", "c", false, "Play the last played stream instead of a named one")
	playCmd.Flags().Bool("windowed", false, "Do not start fullscreen")
	playCmd.Flags().Int64("wid", 0, "Embed the video into the window with this id")
}

var playCmd = &cobra.Command{
	Use:   "play [name]",
	Short: "Play a stream from the catalog without the picker",
	Long: `Play a stream from the catalog without the picker.
The name is matched exactly first, then fuzzily. The command returns when the player is closed.`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		store, err := catalog.Setup()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return lo.Map(store.All(), func(d *stream.Descriptor, _ int) string {
			return d.Name()
		}), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		store, err := catalog.Setup()
		handleErr(err)

		var d *stream.Descriptor
		if lo.Must(cmd.Flags().GetBool("continue")) {
			d, err = lastPlayed(store)
		} else if len(args) == 1 {
			d, err = pick(store, args[0])
		} else {
			err = errors.New("a stream name or --continue is required")
		}
		handleErr(err)

		CheckDependencies()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts, err := session.OptionsFromConfig(metrics.FromConfig(ctx))
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("windowed")) {
			opts.Surface.Fullscreen = false
		}
		opts.Surface.WindowID = lo.Must(cmd.Flags().GetInt64("wid"))

		handleErr(playUntilDone(ctx, session.New(opts), d))
	},
}

// pick resolves a catalog entry by name.
func pick(store *catalog.Store, name string) (*stream.Descriptor, error) {
	matches := store.Find(name)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no stream matches %q", name)
	}
	return matches[0], nil
}

// lastPlayed resolves the most recent history entry against the current catalog.
func lastPlayed(store *catalog.Store) (*stream.Descriptor, error) {
	last, err := history.Last()
	if err != nil {
		return nil, err
	}

	entry, ok := last.Get()
	if !ok {
		return nil, errors.New("nothing was played yet")
	}

	d, ok := store.Get(entry.Name)
	if !ok {
		return nil, fmt.Errorf("%q is no longer in the catalog", entry.Name)
	}
	return d, nil
}

// playUntilDone plays d and blocks until the session ends or ctx is cancelled.
func playUntilDone(ctx context.Context, s *session.Session, d *stream.Descriptor) error {
	ended := make(chan error, 1)
	s.Subscribe(func(state session.State, err error) {
		fmt.Printf("%s %s\n", stateIcon(state), style.Fg(color.Purple)(state.String()))
		if state == session.Released {
			select {
			case ended <- err:
			default:
			}
		}
	})

	fmt.Printf("%s %s %s\n", icon.Get(icon.Play), style.Bold(d.Name()), style.Faint(d.Protocol().String()))

	stop := context.AfterFunc(ctx, s.Release)
	defer stop()

	if err := s.Start(ctx, d); err != nil {
		if ctx.Err() != nil {
			s.Release()
			return nil
		}
		return err
	}

	if viper.GetBool(key.HistorySaveOnPlay) {
		if err := history.Save(d); err != nil {
			log.Warnf("save history: %v", err)
		}
	}

	select {
	case <-ctx.Done():
		s.Release()
		return nil
	case err := <-ended:
		return err
	}
}

func stateIcon(state session.State) string {
	switch state {
	case session.Starting:
		return icon.Get(icon.Progress)
	case session.Buffering:
		return icon.Get(icon.Buffering)
	case session.Playing:
		return icon.Get(icon.Play)
	case session.Stalled:
		return icon.Get(icon.Stalled)
	default:
		return icon.Get(icon.Stop)
	}
}
