package main

import (
	"fmt"
	"os"

	"github.com/Nomadcxx/jellyrename/internal/organizer"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List past runs, or the renames of one run",
		Long: `Without arguments, list the most recent runs. With a run id (or any
unique prefix of one), list every rename that run made.

Examples:
  jellyrename history
  jellyrename history 1b9d6bcd`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{history: historyRequired})
			if err != nil {
				return err
			}
			defer a.Close()

			printer := ui.NewPrinter(cmd.OutOrStdout(), verbose)
			if len(args) == 0 {
				runs, err := a.journal.Runs(limit)
				if err != nil {
					return fmt.Errorf("unable to list runs: %w", err)
				}
				printer.Runs(runs)
				return nil
			}

			run, err := a.journal.FindRun(args[0])
			if err != nil {
				return err
			}
			entries, err := a.journal.RunEntries(run.ID)
			if err != nil {
				return fmt.Errorf("unable to read run: %w", err)
			}
			printer.RunEntries(run, entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of runs to list")
	return cmd
}

func newUndoCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "undo <run-id>",
		Short: "Restore the original names of a run",
		Long: `Move every file renamed by a run back to its original name, newest first.

A file is left alone when its original name is now taken by another file
or when the renamed file no longer exists. Use --dry-run to preview.

Examples:
  jellyrename undo 1b9d6bcd
  jellyrename undo 1b9d6bcd --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{lock: true, history: historyRequired})
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.journal.FindRun(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes && !a.cfg.Run.DryRun {
				if !ui.IsInteractive(os.Stdin) {
					return fmt.Errorf("refusing to undo run %s without --yes when not on a terminal", run.ShortID())
				}
				prompter := ui.NewLinePrompter(cmd.InOrStdin(), out)
				ok, err := prompter.AskYesNo(fmt.Sprintf("Undo %d rename(s) from run %s (%s)?",
					run.Entries, run.ShortID(), ui.FormatAge(run.StartedAt)))
				if err != nil {
					return err
				}
				if !ok {
					ui.NewPrinter(out, verbose).Infof("Nothing changed")
					return nil
				}
			}

			org := organizer.NewOrganizer(organizer.WithDryRun(a.cfg.Run.DryRun))
			report, err := renamer.Undo(a.journal, org, run.ID, a.logger)
			if report != nil {
				ui.NewPrinter(out, verbose).UndoSummary(report)
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
