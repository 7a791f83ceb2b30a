package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/resolver"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

// renameOptions are the flags of the root command. Unset flags fall back to
// the [run] and [naming] config sections.
type renameOptions struct {
	batch        bool
	always       bool
	selectFirst  bool
	recursive    bool
	notRecursive bool
	fallback     bool
	template     string
	destination  string
}

func (o *renameOptions) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&o.batch, "batch", "b", false, "never prompt; skip anything that needs a decision")
	f.BoolVarP(&o.always, "always", "a", false, "never prompt; rename every unambiguous match")
	f.BoolVarP(&o.selectFirst, "selectfirst", "f", false, "pick the first candidate when a show or episode is ambiguous")
	f.BoolVarP(&o.recursive, "recursive", "r", false, "descend into subdirectories")
	f.BoolVar(&o.notRecursive, "not-recursive", false, "only process the top level of directories")
	f.BoolVar(&o.fallback, "fallback", false, "in unattended modes, rename unmatched files from the parsed name alone")
	f.StringVar(&o.template, "template", "", `destination name template (default "`+naming.DefaultTemplate+`")`)
	f.StringVar(&o.destination, "destination", "", "move renamed files into this directory")
	cmd.MarkFlagsMutuallyExclusive("batch", "always")
	cmd.MarkFlagsMutuallyExclusive("recursive", "not-recursive")
}

// apply folds explicitly set flags into cfg and returns the starting mode.
func (o *renameOptions) apply(cmd *cobra.Command, cfg *config.Config) (decision.Mode, error) {
	mode, err := decision.ParseMode(cfg.Run.Mode)
	if err != nil {
		return mode, fmt.Errorf("%w: run.mode: %w", config.ErrInvalidConfig, err)
	}
	switch {
	case o.batch:
		mode = decision.Batch
	case o.always:
		mode = decision.AlwaysRename
	}

	flags := cmd.Flags()
	if flags.Changed("selectfirst") {
		cfg.Run.SelectFirst = o.selectFirst
	}
	if flags.Changed("fallback") {
		cfg.Run.FallbackRename = o.fallback
	}
	if flags.Changed("recursive") {
		cfg.Run.Recursive = o.recursive
	}
	if o.notRecursive {
		cfg.Run.Recursive = false
	}
	if o.destination != "" {
		cfg.Run.Destination = o.destination
	}
	if o.template != "" {
		if err := naming.ValidateTemplate(o.template); err != nil {
			return mode, fmt.Errorf("%w: --template: %w", config.ErrInvalidConfig, err)
		}
		cfg.Naming.Template = o.template
	}
	return mode, nil
}

func runRename(cmd *cobra.Command, args []string, opts *renameOptions) error {
	a, err := newApp(appOptions{lock: true, history: historyOptional})
	if err != nil {
		return err
	}
	defer a.Close()

	mode, err := opts.apply(cmd, a.cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := ui.NewPrinter(out, verbose)

	files, err := scanner.Collect(args, scanner.Options{
		Recursive:  a.cfg.Run.Recursive,
		Extensions: a.cfg.Naming.ValidExtensions,
	})
	if err != nil {
		if len(files) == 0 {
			return err
		}
		printer.Warningf("%v", err)
	}
	if len(files) == 0 {
		printer.Infof("No video files found")
		return nil
	}

	if mode == decision.Interactive && !ui.IsInteractive(os.Stdin) {
		a.logger.Info("rename", "Standard input is not a terminal, reading answers line by line")
	}

	prompter := ui.NewLinePrompter(cmd.InOrStdin(), out)
	pipeline, err := buildPipeline(cmd.Context(), a, prompter, printer)
	if err != nil {
		return err
	}

	report, runErr := pipeline.Run(cmd.Context(), files, mode, args)
	printer.RunSummary(report)
	if errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("%w: interrupted", decision.ErrUserAbort)
	}
	return runErr
}

// buildPipeline wires provider, resolver, decision engine, committer and
// journal from the loaded configuration.
func buildPipeline(ctx context.Context, a *app, prompter decision.Prompter, observer renamer.Observer) (*renamer.Pipeline, error) {
	prov, err := a.newProvider(ctx)
	if err != nil {
		return nil, err
	}
	res := resolver.New(prov)

	engine := decision.NewEngine(prompter, res,
		decision.WithSelectFirst(a.cfg.Run.SelectFirst),
		decision.WithFallbackRename(a.cfg.Run.FallbackRename),
		decision.WithTemplate(a.cfg.NamingTemplate()),
	)

	dirMode, err := a.cfg.Permissions.ParseDirMode()
	if err != nil {
		return nil, fmt.Errorf("%w: permissions.dir_mode: %w", config.ErrInvalidConfig, err)
	}
	org := organizer.NewOrganizer(
		organizer.WithDryRun(a.cfg.Run.DryRun),
		organizer.WithDirMode(dirMode),
	)

	opts := []renamer.Option{
		renamer.WithLogger(a.logger),
		renamer.WithMaxConsecutiveProviderFailures(a.cfg.Run.MaxConsecutiveProviderFailures),
	}
	if observer != nil {
		opts = append(opts, renamer.WithObserver(observer))
	}
	if a.journal != nil {
		opts = append(opts, renamer.WithJournal(a.journal))
	}
	if a.cfg.Run.Destination != "" {
		dest, err := paths.ExpandHome(a.cfg.Run.Destination)
		if err != nil {
			return nil, fmt.Errorf("%w: run.destination: %w", errSetup, err)
		}
		opts = append(opts, renamer.WithDestination(dest))
	}

	a.logger.Debug("rename", "Pipeline ready",
		logging.F("provider", prov.Name()),
		logging.F("select_first", a.cfg.Run.SelectFirst),
		logging.F("fallback", a.cfg.Run.FallbackRename))
	return renamer.New(res, engine, org, opts...), nil
}
