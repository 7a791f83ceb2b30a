package organizer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

type moveStats struct {
	crossDevice bool
	bytesCopied int64
}

// moveNoReplace links src at dst and then unlinks src. Link refuses an
// existing dst atomically, which a plain rename would silently replace.
func moveNoReplace(src, dst string, srcInfo os.FileInfo) (moveStats, error) {
	err := os.Link(src, dst)
	switch {
	case err == nil:
		if err := os.Remove(src); err != nil {
			os.Remove(dst)
			return moveStats{}, fmt.Errorf("unable to remove source: %w", err)
		}
		return moveStats{}, nil
	case errors.Is(err, fs.ErrExist):
		return moveStats{}, ErrDestinationExists
	case errors.Is(err, syscall.EXDEV):
		return copyAcross(src, dst, srcInfo)
	}

	// No hard link support on this filesystem.
	if _, statErr := os.Lstat(dst); statErr == nil {
		return moveStats{}, ErrDestinationExists
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, syscall.EXDEV) {
			return copyAcross(src, dst, srcInfo)
		}
		return moveStats{}, err
	}
	return moveStats{}, nil
}

// copyAcross copies src into a temporary file beside dst, syncs it, places
// it at dst without replacement and finally removes src.
func copyAcross(src, dst string, srcInfo os.FileInfo) (moveStats, error) {
	stats := moveStats{crossDevice: true}

	srcFile, err := os.Open(src)
	if err != nil {
		return stats, fmt.Errorf("failed to open source: %w", err)
	}
	defer srcFile.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".jellyrename-*")
	if err != nil {
		return stats, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := io.Copy(tmp, srcFile)
	stats.bytesCopied = n
	if err != nil {
		tmp.Close()
		return stats, fmt.Errorf("copy error: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return stats, fmt.Errorf("sync error: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return stats, fmt.Errorf("close error: %w", err)
	}
	if err := os.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		return stats, fmt.Errorf("chmod failed: %w", err)
	}
	os.Chtimes(tmpPath, srcInfo.ModTime(), srcInfo.ModTime())

	if err := os.Link(tmpPath, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return stats, ErrDestinationExists
		}
		if _, statErr := os.Lstat(dst); statErr == nil {
			return stats, ErrDestinationExists
		}
		if err := os.Rename(tmpPath, dst); err != nil {
			return stats, fmt.Errorf("unable to place copy: %w", err)
		}
	}

	if err := os.Remove(src); err != nil {
		os.Remove(dst)
		return stats, fmt.Errorf("unable to remove source: %w", err)
	}
	return stats, nil
}
