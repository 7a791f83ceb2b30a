package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

// Exit codes. Skipped files never change the exit code.
const (
	exitOK       = 0
	exitUsage    = 1
	exitAbort    = 2
	exitProvider = 3
)

var (
	version = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"
	cfgFile string
	dryRun  bool
	verbose bool
	noColor bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	switch {
	case err == nil:
	case code == exitAbort:
		ui.NewPrinter(stderr, false).Warningf("%v", err)
	default:
		ui.NewPrinter(stderr, false).Errorf("%v", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, decision.ErrUserAbort), errors.Is(err, context.Canceled):
		return exitAbort
	case errors.Is(err, renamer.ErrTooManyProviderFailures),
		errors.Is(err, provider.ErrProvider),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, errSetup):
		return exitProvider
	default:
		return exitUsage
	}
}

func newRootCmd() *cobra.Command {
	opts := &renameOptions{}

	rootCmd := &cobra.Command{
		Use:   "jellyrename [flags] <file|directory>...",
		Short: "Rename TV episode files using online episode metadata",
		Long: `jellyrename finds the show, season and episode in messy download filenames,
looks up the episode title and renames the file to a consistent pattern:

  scrubs.s01e01.hdtv.avi  ->  Scrubs - [01x01] - My First Day.avi

Existing files are never overwritten. Every rename is recorded and a whole
run can be reversed with "jellyrename undo".

Examples:
  jellyrename ~/Downloads/scrubs.s01e01.avi
  jellyrename --batch --recursive /media/tv
  jellyrename --always --selectfirst -n /media/tv/Scrubs`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				ui.DisableColors()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(cmd, args, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/jellyrename/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output, log to stderr")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be renamed without touching files")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	opts.bindFlags(rootCmd)

	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jellyrename %s\n", version)
		},
	}
}
