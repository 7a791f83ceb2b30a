package renamer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
)

const (
	undoReasonMissing  = "renamed file no longer exists"
	undoReasonReplaced = "original name is taken"
)

// UndoResult is the reversal of one history entry.
type UndoResult struct {
	Entry   history.Entry
	Outcome Outcome
	Reason  string
	Err     error
}

type UndoReport struct {
	Run     history.Run
	DryRun  bool
	Results []UndoResult
}

func (r *UndoReport) Restored() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == OutcomeRenamed {
			n++
		}
	}
	return n
}

func (r *UndoReport) Problems() int {
	return len(r.Results) - r.Restored()
}

// Undo moves every file of a run back to its original name, newest rename
// first. Entries already undone are left alone. Existing files are never
// replaced; an entry that cannot be reversed is reported and the rest carry on.
func Undo(journal *history.Journal, org *organizer.Organizer, runID string, logger *logging.Logger) (*UndoReport, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	run, err := journal.FindRun(runID)
	if err != nil {
		return nil, err
	}
	entries, err := journal.RunEntries(run.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to read run %s: %w", run.ShortID(), err)
	}

	report := &UndoReport{Run: run, DryRun: org.DryRun()}
	for _, e := range entries {
		if e.Undone() {
			continue
		}
		res := undoEntry(journal, org, e)
		report.Results = append(report.Results, res)
		switch res.Outcome {
		case OutcomeRenamed:
			logger.Info("undo", "File restored",
				logging.F("from", filepath.Base(e.TargetPath)),
				logging.F("to", filepath.Base(e.SourcePath)),
				logging.F("dry_run", report.DryRun))
		case OutcomeFailed:
			logger.Error("undo", "Restore failed", res.Err, logging.F("file", e.TargetPath))
		default:
			logger.Warn("undo", "Restore skipped", logging.F("file", e.TargetPath), logging.F("reason", res.Reason))
		}
	}

	if !report.DryRun && report.Problems() == 0 {
		if err := journal.FinishRun(run.ID, history.StatusUndone, run.Renamed, run.Skipped); err != nil {
			return report, fmt.Errorf("unable to mark run undone: %w", err)
		}
	}
	return report, nil
}

func undoEntry(journal *history.Journal, org *organizer.Organizer, e history.Entry) UndoResult {
	res := UndoResult{Entry: e}

	if _, err := os.Lstat(e.TargetPath); errors.Is(err, os.ErrNotExist) {
		res.Outcome = OutcomeSkipped
		res.Reason = undoReasonMissing
		return res
	}

	commit, err := org.Move(e.TargetPath, e.SourcePath)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}

	switch commit.Status {
	case organizer.Renamed:
		res.Outcome = OutcomeRenamed
		if !commit.DryRun {
			if err := journal.MarkUndone(e.ID); err != nil {
				res.Outcome = OutcomeFailed
				res.Err = fmt.Errorf("file restored but history not updated: %w", err)
			}
		}
	case organizer.NoOp:
		res.Outcome = OutcomeNoOp
		res.Reason = commit.Reason
	default:
		res.Outcome = OutcomeSkipped
		res.Reason = undoReasonReplaced
	}
	return res
}
