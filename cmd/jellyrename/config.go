package main

import (
	"fmt"
	"os"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage jellyrename configuration",
		Long: `Commands for managing jellyrename configuration.

The config file is stored at: ~/.config/jellyrename/config.toml

Examples:
  jellyrename config init              # Create default config file
  jellyrename config show              # Display effective configuration
  jellyrename config test              # Check the metadata provider
  jellyrename config path              # Show config file path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigTestCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func configFilePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.ConfigPath()
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Long: `Create a new configuration file with default values.

The config file will be created at ~/.config/jellyrename/config.toml
unless --config names another location.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			if config.ConfigExists(path) && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			if err := config.DefaultConfig().SaveAs(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			out := cmd.OutOrStdout()
			ui.NewPrinter(out, verbose).Successf("Created config file: %s", path)
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  1. Pick a provider (tvmaze needs no key, sonarr needs url and api_key)")
			fmt.Fprintln(out, "  2. Run 'jellyrename config test' to verify it answers")
			fmt.Fprintln(out, "  3. Run 'jellyrename -n <dir>' to preview a rename")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Print the configuration after defaults, the config file and JELLYRENAME_*
environment overrides are applied. API keys are masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("%w: %w", errSetup, err)
			}

			out := cmd.OutOrStdout()
			source := cfg.Path()
			if !config.ConfigExists(source) {
				source += " (not created, showing defaults)"
			}
			fmt.Fprintf(out, "# Config file: %s\n", source)

			content, err := cfg.Redacted().ToTOML()
			if err != nil {
				return err
			}
			fmt.Fprint(out, content)

			if err := cfg.Validate(); err != nil {
				return err
			}
			return nil
		},
	}
}

func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Validate configuration and query the metadata provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(appOptions{history: historyOptional})
			if err != nil {
				return err
			}
			defer a.Close()

			printer := ui.NewPrinter(cmd.OutOrStdout(), verbose)
			printer.Successf("Configuration is valid")

			if a.journal != nil {
				printer.Successf("History: %s", a.journal.Path())
			} else {
				printer.Warningf("History: disabled")
			}
			if p := a.logger.FilePath(); p != "" {
				printer.Successf("Log file: %s", p)
			}

			prov, err := a.newProvider(cmd.Context())
			if err != nil {
				printer.Errorf("Provider %s: %v", a.cfg.Provider.Name, err)
				return err
			}
			shows, err := prov.SearchShows(cmd.Context(), "Scrubs")
			if err != nil {
				printer.Errorf("Provider %s: %v", prov.Name(), err)
				return err
			}
			a.logger.Debug("config", "Provider test search", logging.F("results", len(shows)))
			printer.Successf("Provider %s answered (%d result(s) for \"Scrubs\")", prov.Name(), len(shows))
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			if !config.ConfigExists(path) {
				fmt.Fprintln(os.Stderr, "(file does not exist, run 'jellyrename config init')")
			}
			return nil
		},
	}
}
