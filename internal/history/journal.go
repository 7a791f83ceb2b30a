package history

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("run id prefix matches more than one run")
)

// Run status values.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusAborted  = "aborted"
	StatusFailed   = "failed"
	StatusUndone   = "undone"
)

type Run struct {
	ID         string
	Mode       string
	DryRun     bool
	Args       string
	Status     string
	Renamed    int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
	Entries    int
}

// ShortID is the first block of the run UUID, enough to address it in undo.
func (r Run) ShortID() string {
	if i := strings.IndexByte(r.ID, '-'); i > 0 {
		return r.ID[:i]
	}
	return r.ID
}

type Entry struct {
	ID         int64
	RunID      string
	SourcePath string
	TargetPath string
	ShowName   string
	Season     *int
	Episodes   []int
	Provider   string
	RenamedAt  time.Time
	UndoneAt   time.Time
}

// Undone reports whether the entry has already been reversed.
func (e Entry) Undone() bool {
	return !e.UndoneAt.IsZero()
}

// StartRun creates a run record and returns its id.
func (j *Journal) StartRun(mode string, dryRun bool, args []string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := uuid.NewString()
	_, err := j.db.Exec(`
		INSERT INTO runs (id, mode, dry_run, args, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, mode, boolInt(dryRun), strings.Join(args, " "), StatusRunning, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final status and counters of a run.
func (j *Journal) FinishRun(runID, status string, renamed, skipped int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(`
		UPDATE runs SET status = ?, renamed = ?, skipped = ?, finished_at = ?
		WHERE id = ?
	`, status, renamed, skipped, time.Now().UnixMilli(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Record journals one committed rename.
func (j *Journal) Record(e Entry) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	renamedAt := e.RenamedAt
	if renamedAt.IsZero() {
		renamedAt = time.Now()
	}
	var season sql.NullInt64
	if e.Season != nil {
		season = sql.NullInt64{Int64: int64(*e.Season), Valid: true}
	}

	res, err := j.db.Exec(`
		INSERT INTO renames (run_id, source_path, target_path, show_name, season, episodes, provider, renamed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.SourcePath, e.TargetPath, e.ShowName, season, joinInts(e.Episodes), e.Provider, renamedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to record rename: %w", err)
	}
	return res.LastInsertId()
}

// MarkUndone flags an entry as reversed.
func (j *Journal) MarkUndone(entryID int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`UPDATE renames SET undone_at = ? WHERE id = ?`, time.Now().UnixMilli(), entryID)
	return err
}

// Runs returns the most recent runs first.
func (j *Journal) Runs(limit int) ([]Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query(`
		SELECT r.id, r.mode, r.dry_run, r.args, r.status, r.renamed, r.skipped,
		       r.started_at, COALESCE(r.finished_at, 0),
		       (SELECT COUNT(*) FROM renames e WHERE e.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRun resolves a full run id or a unique prefix of one.
func (j *Journal) FindRun(idOrPrefix string) (Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	prefix := strings.ToLower(strings.TrimSpace(idOrPrefix))
	if prefix == "" {
		return Run{}, ErrRunNotFound
	}

	rows, err := j.db.Query(`
		SELECT r.id, r.mode, r.dry_run, r.args, r.status, r.renamed, r.skipped,
		       r.started_at, COALESCE(r.finished_at, 0),
		       (SELECT COUNT(*) FROM renames e WHERE e.run_id = r.id)
		FROM runs r
		WHERE substr(r.id, 1, ?) = ?
		LIMIT 2
	`, len(prefix), prefix)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousRun, idOrPrefix)
	}
}

// RunEntries returns a run's renames newest first, the order undo needs.
func (j *Journal) RunEntries(runID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query(`
		SELECT id, run_id, source_path, target_path, show_name, season, episodes,
		       provider, renamed_at, COALESCE(undone_at, 0)
		FROM renames
		WHERE run_id = ?
		ORDER BY id DESC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var season sql.NullInt64
		var episodes string
		var renamedAt, undoneAt int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.SourcePath, &e.TargetPath, &e.ShowName,
			&season, &episodes, &e.Provider, &renamedAt, &undoneAt); err != nil {
			return nil, err
		}
		if season.Valid {
			s := int(season.Int64)
			e.Season = &s
		}
		e.Episodes = splitInts(episodes)
		e.RenamedAt = time.UnixMilli(renamedAt)
		if undoneAt > 0 {
			e.UndoneAt = time.UnixMilli(undoneAt)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var dryRun int
	var started, finished int64
	if err := s.Scan(&r.ID, &r.Mode, &dryRun, &r.Args, &r.Status, &r.Renamed, &r.Skipped,
		&started, &finished, &r.Entries); err != nil {
		return Run{}, err
	}
	r.DryRun = dryRun != 0
	r.StartedAt = time.UnixMilli(started)
	if finished > 0 {
		r.FinishedAt = time.UnixMilli(finished)
	}
	return r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}
