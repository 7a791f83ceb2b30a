// Package organizer commits accepted rename decisions to the filesystem
// without ever replacing an existing file.
package organizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/decision"
)

// ErrDestinationExists means a different file already occupies the target.
var ErrDestinationExists = errors.New("destination exists")

type CommitStatus int

const (
	Renamed CommitStatus = iota
	NoOp
	Skipped
)

func (s CommitStatus) String() string {
	switch s {
	case Renamed:
		return "renamed"
	case NoOp:
		return "no-op"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("commit(%d)", int(s))
	}
}

type CommitResult struct {
	Status      CommitStatus
	SourcePath  string
	TargetPath  string
	Reason      string
	DryRun      bool
	CrossDevice bool
	BytesCopied int64
	Duration    time.Duration
}

type Organizer struct {
	dryRun  bool
	dirMode os.FileMode
}

func NewOrganizer(options ...func(*Organizer)) *Organizer {
	org := &Organizer{
		dryRun:  false,
		dirMode: 0755,
	}

	for _, opt := range options {
		opt(org)
	}

	return org
}

// WithDryRun sets dry run mode
func WithDryRun(dryRun bool) func(*Organizer) {
	return func(o *Organizer) {
		o.dryRun = dryRun
	}
}

// WithDirMode sets the permissions of destination directories created on demand.
func WithDirMode(mode os.FileMode) func(*Organizer) {
	return func(o *Organizer) {
		o.dirMode = mode
	}
}

func (o *Organizer) DryRun() bool {
	return o.dryRun
}

// Commit applies an accepted decision. An empty destinationDir renames in
// place. Skipped decisions pass through untouched.
func (o *Organizer) Commit(d decision.Decision, destinationDir string) (*CommitResult, error) {
	if d.Status != decision.Accepted {
		return &CommitResult{
			Status:     Skipped,
			SourcePath: d.SourcePath,
			Reason:     d.Reason,
		}, nil
	}
	if d.DestinationName == "" || strings.ContainsRune(d.DestinationName, filepath.Separator) {
		return nil, fmt.Errorf("invalid destination name %q", d.DestinationName)
	}

	dir := destinationDir
	if dir == "" {
		dir = filepath.Dir(d.SourcePath)
	}
	return o.Move(d.SourcePath, filepath.Join(dir, d.DestinationName))
}

// Move renames sourcePath to targetPath. The move either completes or leaves
// the source exactly as it was.
func (o *Organizer) Move(sourcePath, targetPath string) (*CommitResult, error) {
	start := time.Now()
	result := &CommitResult{
		SourcePath: sourcePath,
		TargetPath: targetPath,
		DryRun:     o.dryRun,
	}

	if filepath.Clean(sourcePath) == filepath.Clean(targetPath) {
		result.Status = NoOp
		result.Reason = decision.ReasonAlreadyNamed
		return result, nil
	}

	srcInfo, err := os.Lstat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("unable to stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("source %s is not a regular file", sourcePath)
	}

	caseOnly := false
	if dstInfo, err := os.Lstat(targetPath); err == nil {
		if !os.SameFile(srcInfo, dstInfo) {
			result.Status = Skipped
			result.Reason = decision.ReasonDestinationExists
			return result, nil
		}
		caseOnly = filepath.Dir(sourcePath) == filepath.Dir(targetPath) &&
			strings.EqualFold(filepath.Base(sourcePath), filepath.Base(targetPath))
		if !caseOnly {
			result.Status = NoOp
			result.Reason = decision.ReasonAlreadyNamed
			return result, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to stat destination: %w", err)
	}

	if o.dryRun {
		result.Status = Renamed
		return result, nil
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), o.dirMode); err != nil {
		return nil, fmt.Errorf("unable to create directory: %w", err)
	}

	if caseOnly {
		// Same inode under a case-insensitive name; nothing can be lost.
		if err := os.Rename(sourcePath, targetPath); err != nil {
			return nil, fmt.Errorf("case-only rename failed: %w", err)
		}
		result.Status = Renamed
		result.Duration = time.Since(start)
		return result, nil
	}

	m, err := moveNoReplace(sourcePath, targetPath, srcInfo)
	result.CrossDevice = m.crossDevice
	result.BytesCopied = m.bytesCopied
	result.Duration = time.Since(start)
	if errors.Is(err, ErrDestinationExists) {
		result.Status = Skipped
		result.Reason = decision.ReasonDestinationExists
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("move failed: %w", err)
	}

	result.Status = Renamed
	return result, nil
}
