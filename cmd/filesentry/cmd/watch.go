package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/filesentry/filesentry/internal/config"
	"github.com/filesentry/filesentry/internal/lockfile"
	"github.com/filesentry/filesentry/internal/ui"
	"github.com/filesentry/filesentry/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		usePoll  bool
		interval time.Duration
		grace    time.Duration
		cfgPath  string
		lockPath string
	)

	cmd := &cobra.Command{
		Use:   "watch [flags] FILE...",
		Short: "Watch files and print a line per settled change",
		Long: `Watch one or more files and print a line every time a file has settled
after a change. Targets come from the arguments or from a YAML config file
(--config). Runs until interrupted.`,
		Example: `  filesentry watch /etc/app/config.yaml
  filesentry watch --poll --interval 250ms --grace 2s state.json
  filesentry watch --config /etc/filesentry.yaml --lock /run/filesentry.lock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := resolveTargets(args, cfgPath, usePoll, interval, grace)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd.OutOrStdout(), targets, lockPath)
		},
	}

	cmd.Flags().BoolVar(&usePoll, "poll", false, "Use timestamp polling instead of OS change notification")
	cmd.Flags().DurationVar(&interval, "interval", watcher.DefaultPollInterval, "Poll interval (polling strategy only)")
	cmd.Flags().DurationVar(&grace, "grace", watcher.DefaultGracePeriod, "Quiet window a change must hold before notification; 0 disables debouncing")
	cmd.Flags().StringVar(&cfgPath, "config", "", "Load watch targets from a YAML config file")
	cmd.Flags().StringVar(&lockPath, "lock", "", "Acquire this lock file and refuse to run a second instance")

	return cmd
}

// resolveTargets builds the watch list from the config file or the command
// line arguments.
func resolveTargets(args []string, cfgPath string, usePoll bool, interval, grace time.Duration) ([]config.WatchConfig, error) {
	if cfgPath != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either --config or file arguments, not both")
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		return cfg.Watches, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("nothing to watch: pass file arguments or --config")
	}

	strategy := config.StrategyNotify
	if usePoll {
		strategy = config.StrategyPoll
	}
	graceMS := int(grace / time.Millisecond)

	targets := make([]config.WatchConfig, 0, len(args))
	for _, path := range args {
		targets = append(targets, config.WatchConfig{
			Path:           path,
			Strategy:       strategy,
			PollIntervalMS: int(interval / time.Millisecond),
			GracePeriodMS:  &graceMS,
		})
	}
	return targets, nil
}

// runWatch starts one watcher per target and blocks until ctx is cancelled.
func runWatch(ctx context.Context, out io.Writer, targets []config.WatchConfig, lockPath string) error {
	if lockPath != "" {
		lock := lockfile.New(lockPath)
		acquired, err := lock.TryLock()
		if err != nil {
			return err
		}
		if !acquired {
			return fmt.Errorf("another filesentry instance holds %s", lockPath)
		}
		defer func() { _ = lock.Unlock() }()
	}

	reporter := ui.NewReporter(out)

	var (
		mu       sync.Mutex
		watchers []watcher.FileWatcher
	)
	defer func() {
		for _, w := range watchers {
			w.Stop()
		}
	}()

	g := new(errgroup.Group)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			w, err := buildWatcher(target, reporter)
			if err != nil {
				return err
			}
			mu.Lock()
			watchers = append(watchers, w)
			mu.Unlock()

			reporter.Watching(target.Path, string(target.Strategy))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// buildWatcher constructs the watcher matching the target's strategy.
func buildWatcher(target config.WatchConfig, reporter *ui.Reporter) (watcher.FileWatcher, error) {
	path := target.Path
	listener := watcher.ListenerFunc(func() {
		reporter.Change(path, time.Now())
	})

	switch target.Strategy {
	case config.StrategyPoll:
		return watcher.NewPollWatcher(path, listener, target.PollInterval(), target.GracePeriod())
	default:
		return watcher.NewNotifyWatcher(path, listener, target.GracePeriod())
	}
}
