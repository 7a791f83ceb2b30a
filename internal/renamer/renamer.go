// Package renamer runs files through parse, resolve, decide and commit,
// one at a time, and reports what happened to each.
package renamer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/Nomadcxx/jellyrename/internal/resolver"
)

// ErrTooManyProviderFailures stops a run once the configured number of
// consecutive files failed on provider errors.
var ErrTooManyProviderFailures = errors.New("too many consecutive provider failures")

// Journal records committed renames. *history.Journal satisfies it.
type Journal interface {
	StartRun(mode string, dryRun bool, args []string) (string, error)
	FinishRun(runID, status string, renamed, skipped int) error
	Record(e history.Entry) (int64, error)
}

// Observer is told about every finished file.
type Observer interface {
	FileProcessed(FileResult)
}

type Pipeline struct {
	resolver    *resolver.Resolver
	engine      *decision.Engine
	organizer   *organizer.Organizer
	journal     Journal
	observer    Observer
	logger      *logging.Logger
	destDir     string
	maxFailures int
}

type Option func(*Pipeline)

func WithJournal(j Journal) Option {
	return func(p *Pipeline) {
		p.journal = j
	}
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithDestination moves renamed files into dir instead of renaming in place.
func WithDestination(dir string) Option {
	return func(p *Pipeline) {
		p.destDir = dir
	}
}

// WithMaxConsecutiveProviderFailures aborts a run after n provider failures
// in a row. Zero never aborts.
func WithMaxConsecutiveProviderFailures(n int) Option {
	return func(p *Pipeline) {
		p.maxFailures = n
	}
}

func New(res *resolver.Resolver, engine *decision.Engine, org *organizer.Organizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:  res,
		engine:    engine,
		organizer: org,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes files in order. It stops early on a user abort, a
// cancelled context or the consecutive provider failure limit; the report
// covers every file handled until then.
func (p *Pipeline) Run(ctx context.Context, files []string, mode decision.Mode, args []string) (*Report, error) {
	s := p.Begin(mode, args)
	p.logger.Info("renamer", "Run starting",
		logging.F("files", len(files)),
		logging.F("mode", mode),
		logging.F("dry_run", p.organizer.DryRun()),
		logging.F("run_id", s.RunID()))

	var runErr error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if _, err := s.Process(ctx, path); err != nil {
			runErr = err
			break
		}
	}

	report := s.Finish(runErr)
	p.logger.Info("renamer", "Run finished",
		logging.F("renamed", report.Renamed()),
		logging.F("unchanged", report.NoOps()),
		logging.F("skipped", report.Skipped()),
		logging.F("failed", report.Failed()),
		logging.F("aborted", report.Aborted))
	return report, runErr
}

// Session is one run. It carries the confirmation mode from file to file so
// an "always" answer sticks for the rest of the run.
type Session struct {
	p           *Pipeline
	runID       string
	mode        decision.Mode
	report      *Report
	consecutive int
}

// Begin opens a session and its journal entry. A journal failure is logged
// and the session continues without history.
func (p *Pipeline) Begin(mode decision.Mode, args []string) *Session {
	s := &Session{
		p:      p,
		mode:   mode,
		report: &Report{StartMode: mode},
	}
	if p.journal != nil && !p.organizer.DryRun() {
		id, err := p.journal.StartRun(mode.String(), false, args)
		if err != nil {
			p.logger.Error("renamer", "History unavailable for this run", err)
		} else {
			s.runID = id
		}
	}
	s.report.RunID = s.runID
	return s
}

func (s *Session) RunID() string {
	return s.runID
}

// Mode is the confirmation mode for the next file.
func (s *Session) Mode() decision.Mode {
	return s.mode
}

// Process handles one file. The returned error ends the session:
// decision.ErrUserAbort or ErrTooManyProviderFailures.
func (s *Session) Process(ctx context.Context, path string) (FileResult, error) {
	result, next, err := s.p.processFile(ctx, path, s.mode)
	s.mode = next
	if errors.Is(err, decision.ErrUserAbort) {
		s.report.Aborted = true
		return result, err
	}

	s.report.add(result)
	if s.p.observer != nil {
		s.p.observer.FileProcessed(result)
	}

	if result.Reason == decision.ReasonProviderError {
		s.consecutive++
		if s.p.maxFailures > 0 && s.consecutive >= s.p.maxFailures {
			return result, fmt.Errorf("%w (%d): %w", ErrTooManyProviderFailures, s.consecutive, result.Err)
		}
	} else {
		s.consecutive = 0
	}

	if result.Outcome == OutcomeRenamed && !result.DryRun {
		s.record(result)
	}
	return result, nil
}

func (s *Session) record(r FileResult) {
	if s.runID == "" {
		return
	}
	entry := history.Entry{
		RunID:      s.runID,
		SourcePath: r.Path,
		TargetPath: r.Target,
		Provider:   s.p.resolver.ProviderName(),
	}
	if r.Parsed != nil {
		entry.Season = r.Parsed.Season
		entry.Episodes = r.Parsed.EpisodeNumbers()
		entry.ShowName = r.Parsed.ShowName
	}
	if r.ShowName != "" {
		entry.ShowName = r.ShowName
	}
	if _, err := s.p.journal.Record(entry); err != nil {
		s.p.logger.Error("renamer", "Unable to record rename in history", err, logging.F("file", r.Path))
	}
}

// Finish closes the journal entry and returns the report.
func (s *Session) Finish(runErr error) *Report {
	s.report.FinalMode = s.mode
	if s.runID != "" {
		status := history.StatusComplete
		switch {
		case s.report.Aborted:
			status = history.StatusAborted
		case runErr != nil:
			status = history.StatusFailed
		}
		if err := s.p.journal.FinishRun(s.runID, status, s.report.Renamed(), s.report.Skipped()); err != nil {
			s.p.logger.Error("renamer", "Unable to close history run", err)
		}
	}
	return s.report
}

func (p *Pipeline) processFile(ctx context.Context, path string, mode decision.Mode) (FileResult, decision.Mode, error) {
	base := filepath.Base(path)
	result := FileResult{Path: path, DryRun: p.organizer.DryRun()}

	parsed, err := naming.Parse(path)
	if err != nil {
		result.skip(decision.ReasonNoPattern, err)
		p.logger.Warn("renamer", "File skipped", logging.F("file", base), logging.F("reason", result.Reason))
		return result, mode, nil
	}
	result.Parsed = parsed
	p.logger.Debug("renamer", "Parsed filename",
		logging.F("file", base),
		logging.F("rule", parsed.Rule),
		logging.F("parsed", parsed.String()))

	found, err := p.resolver.Resolve(ctx, parsed)
	if err != nil {
		return p.providerFailure(result, mode, err)
	}

	outcome, err := p.engine.Decide(ctx, mode, parsed, found)
	if errors.Is(err, decision.ErrUserAbort) {
		p.logger.Warn("renamer", "Run aborted by user", logging.F("file", base))
		return result, mode, err
	}
	if errors.Is(err, provider.ErrProvider) {
		return p.providerFailure(result, mode, err)
	}
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		p.logger.Error("renamer", "Decision failed", err, logging.F("file", base))
		return result, mode, nil
	}

	d := outcome.Decision
	if d.Match != nil {
		result.ShowName = d.Match.Show.Name
	}
	if outcome.Mode != mode {
		p.logger.Info("renamer", "Confirmation mode changed", logging.F("mode", outcome.Mode))
	}

	commit, err := p.organizer.Commit(d, p.destDir)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		p.logger.Error("renamer", "Rename failed", err, logging.F("file", base))
		return result, outcome.Mode, nil
	}
	result.Target = commit.TargetPath

	switch commit.Status {
	case organizer.Renamed:
		result.Outcome = OutcomeRenamed
		p.logger.Info("renamer", "File renamed",
			logging.F("from", base),
			logging.F("to", filepath.Base(commit.TargetPath)),
			logging.F("dry_run", commit.DryRun),
			logging.F("cross_device", commit.CrossDevice))
	case organizer.NoOp:
		result.Outcome = OutcomeNoOp
		result.Reason = commit.Reason
		p.logger.Debug("renamer", "File already named correctly", logging.F("file", base))
	default:
		result.skip(commit.Reason, nil)
		p.logger.Warn("renamer", "File skipped", logging.F("file", base), logging.F("reason", result.Reason))
	}
	return result, outcome.Mode, nil
}

func (p *Pipeline) providerFailure(result FileResult, mode decision.Mode, err error) (FileResult, decision.Mode, error) {
	result.skip(decision.ReasonProviderError, err)
	p.logger.Warn("renamer", "File skipped",
		logging.F("file", filepath.Base(result.Path)),
		logging.F("reason", result.Reason),
		logging.F("error", err.Error()))
	return result, mode, nil
}
