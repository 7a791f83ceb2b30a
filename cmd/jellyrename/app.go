package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/Nomadcxx/jellyrename/internal/sonarr"
	"github.com/Nomadcxx/jellyrename/internal/tvmaze"
	"github.com/gofrs/flock"
)

// errSetup marks failures before any file is touched: config, log, lock or
// history could not be prepared.
var errSetup = errors.New("setup failed")

// app holds what every command shares for one invocation.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	journal *history.Journal
	lock    *flock.Flock
}

type historyNeed int

const (
	historySkip historyNeed = iota
	// historyOptional opens the journal when enabled and carries on without it.
	historyOptional
	historyRequired
)

type appOptions struct {
	lock    bool
	history historyNeed
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errSetup, err)
	}
	if dryRun {
		cfg.Run.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LoggerConfig(verbose))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errSetup, err)
	}
	if verbose {
		logger.SetLevel(logging.LevelDebug)
	}

	a := &app{cfg: cfg, logger: logger}

	if opts.lock {
		if err := a.acquireLock(); err != nil {
			a.Close()
			return nil, err
		}
	}

	if opts.history != historySkip {
		if err := a.openHistory(opts.history == historyRequired); err != nil {
			a.Close()
			return nil, err
		}
	}

	logger.Debug("app", "Configuration loaded",
		logging.F("config", cfg.Path()),
		logging.F("provider", cfg.Provider.Name),
		logging.F("dry_run", cfg.Run.DryRun))
	return a, nil
}

func (a *app) acquireLock() error {
	lockPath, err := paths.LockPath()
	if err != nil {
		return fmt.Errorf("%w: %w", errSetup, err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("%w: create lock directory: %w", errSetup, err)
	}

	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: acquire lock: %w", errSetup, err)
	}
	if !ok {
		return fmt.Errorf("%w: another jellyrename run is in progress (lock: %s)", errSetup, lockPath)
	}
	a.lock = lock
	return nil
}

func (a *app) openHistory(required bool) error {
	if !a.cfg.History.Enabled {
		if required {
			return fmt.Errorf("%w: history is disabled in the configuration", errSetup)
		}
		return nil
	}

	path, err := a.cfg.HistoryPath()
	if err == nil {
		a.journal, err = history.OpenPath(path)
	}
	if err != nil {
		if required {
			return fmt.Errorf("%w: %w", errSetup, err)
		}
		a.logger.Error("app", "History unavailable, renames will not be recorded", err)
	}
	return nil
}

// newProvider builds the configured metadata source. Sonarr is queried first
// so a wrong URL or key fails the run before any file is processed.
func (a *app) newProvider(ctx context.Context) (provider.Provider, error) {
	p := a.cfg.Provider
	switch p.Name {
	case "sonarr":
		client := sonarr.NewClient(sonarr.Config{
			URL:           p.Sonarr.URL,
			APIKey:        p.Sonarr.APIKey,
			Timeout:       a.cfg.ProviderTimeout(),
			RetryAttempts: p.RetryAttempts,
			RetryDelay:    a.cfg.RetryDelay(),
		})
		status, err := client.GetSystemStatus(ctx)
		if err != nil {
			return nil, provider.Wrap("sonarr", "connect", err)
		}
		a.logger.Info("app", "Connected to Sonarr",
			logging.F("app", status.AppName),
			logging.F("version", status.Version))
		return sonarr.NewProvider(client), nil
	default:
		return tvmaze.NewClient(tvmaze.Config{
			URL:           p.TVMaze.URL,
			Timeout:       a.cfg.ProviderTimeout(),
			RetryAttempts: p.RetryAttempts,
			RetryDelay:    a.cfg.RetryDelay(),
		}), nil
	}
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("app", "Failed to close history", logging.F("error", err.Error()))
		}
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			a.logger.Warn("app", "Failed to release lock", logging.F("error", err.Error()))
		}
	}
	a.logger.Close()
}
