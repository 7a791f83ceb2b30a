package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		settle    time.Duration
		interval  time.Duration
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "watch [directory]...",
		Short: "Rename new episode files as they appear",
		Long: `Watch directories and rename new video files once they stop changing.

Watch mode never prompts: files that are ambiguous or unmatched are skipped
and reported, exactly like --batch. Directories default to [watch] paths
from the config file.

Examples:
  jellyrename watch ~/Downloads/tv
  jellyrename watch --recursive --settle 30s /srv/incoming`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{lock: true, history: historyOptional})
			if err != nil {
				return err
			}
			defer a.Close()

			dirs := args
			if len(dirs) == 0 {
				dirs = a.cfg.Watch.Paths
			}
			if len(dirs) == 0 {
				return errors.New("no directories to watch (pass them as arguments or set watch.paths)")
			}
			for i, d := range dirs {
				if dirs[i], err = paths.ExpandHome(d); err != nil {
					return err
				}
			}

			if !cmd.Flags().Changed("settle") {
				settle = a.cfg.SettleDelay()
			}
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.ScanInterval()
			}
			if !cmd.Flags().Changed("recursive") {
				recursive = a.cfg.Run.Recursive
			}

			return runWatch(cmd.Context(), a, cmd.OutOrStdout(), watchSettings{
				dirs:      dirs,
				settle:    settle,
				interval:  interval,
				recursive: recursive,
			})
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", 10*time.Second, "how long a file must stay unchanged before it is renamed")
	cmd.Flags().DurationVar(&interval, "interval", 0, "rescan watched directories on this interval (0 disables)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "watch subdirectories too")

	return cmd
}

type watchSettings struct {
	dirs      []string
	settle    time.Duration
	interval  time.Duration
	recursive bool
}

func runWatch(ctx context.Context, a *app, out io.Writer, s watchSettings) error {
	printer := ui.NewPrinter(out, verbose)

	// Unattended sessions never prompt; an empty reader turns a stray prompt
	// into an abort instead of a hang.
	prompter := ui.NewLinePrompter(strings.NewReader(""), io.Discard)
	pipeline, err := buildPipeline(ctx, a, prompter, printer)
	if err != nil {
		return err
	}

	handler := renamer.NewWatchHandler(pipeline, renamer.WatchHandlerConfig{
		SettleDelay: s.settle,
		IsMediaFile: scanner.ExtensionMatcher(a.cfg.Naming.ValidExtensions),
		Args:        s.dirs,
		Logger:      a.logger,
	})

	w, err := watcher.NewWatcher(handler,
		watcher.WithRecursive(s.recursive),
		watcher.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(s.dirs); err != nil {
		return err
	}

	periodic := scanner.NewPeriodicScanner(scanner.ScannerConfig{
		Interval:   s.interval,
		WatchPaths: s.dirs,
		Recursive:  s.recursive,
		Extensions: a.cfg.Naming.ValidExtensions,
		Handler:    handler,
		Logger:     a.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Start(ctx)
	}()
	go func() {
		if err := periodic.Start(ctx); err != nil {
			a.logger.Error("watch", "Periodic scanner stopped", err)
		}
	}()

	printer.Infof("Watching %s (settle %s), press Ctrl+C to stop", strings.Join(s.dirs, ", "), s.settle)
	a.logger.Info("watch", "Watch mode started",
		logging.F("dirs", strings.Join(s.dirs, ",")),
		logging.F("recursive", s.recursive),
		logging.F("interval", s.interval))

	runErr := make(chan error, 1)
	go func() {
		runErr <- handler.Run(ctx)
	}()

	var result error
	select {
	case err := <-runErr:
		result = err
	case err := <-watchErr:
		cancel()
		<-runErr
		if err != nil {
			result = fmt.Errorf("watcher stopped: %w", err)
		}
	}

	fmt.Fprintln(out)
	var scanStatus *scanner.ScannerStatus
	if s.interval > 0 {
		st := periodic.Status()
		scanStatus = &st
	}
	printer.WatchStats(handler.Stats(), scanStatus)
	return result
}
