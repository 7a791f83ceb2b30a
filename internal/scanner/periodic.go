package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
)

// PeriodicScanner rescans watched directories on an interval so files
// missed by filesystem events still reach the handler.
type PeriodicScanner struct {
	interval   time.Duration
	watchPaths []string
	options    Options
	handler    watcher.Handler
	logger     *logging.Logger

	mu           sync.Mutex
	scanning     bool
	lastScan     time.Time
	lastSuccess  time.Time
	lastError    error
	skippedTicks int64
	healthy      bool
}

func NewPeriodicScanner(cfg ScannerConfig) *PeriodicScanner {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &PeriodicScanner{
		interval:   cfg.Interval,
		watchPaths: cfg.WatchPaths,
		options:    Options{Recursive: cfg.Recursive, Extensions: cfg.Extensions},
		handler:    cfg.Handler,
		logger:     logger,
		healthy:    true,
	}
}

// Status reports the outcome of the most recent scans.
func (s *PeriodicScanner) Status() ScannerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := ScannerStatus{
		Healthy:      s.healthy,
		LastScan:     s.lastScan,
		LastSuccess:  s.lastSuccess,
		SkippedTicks: s.skippedTicks,
		Scanning:     s.scanning,
	}
	if s.lastError != nil {
		status.LastError = s.lastError.Error()
	}
	return status
}

// Start runs the scan loop until ctx is cancelled. A zero interval disables
// periodic scanning.
func (s *PeriodicScanner) Start(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	s.logger.Info("scanner", "Periodic scanner starting",
		logging.F("interval", s.interval.String()),
		logging.F("watch_paths", len(s.watchPaths)))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner", "Periodic scanner stopped")
			return nil
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *PeriodicScanner) tick() {
	s.mu.Lock()
	if s.scanning {
		s.skippedTicks++
		s.mu.Unlock()
		s.logger.Warn("scanner", "Periodic scan skipped - previous scan still running",
			logging.F("skipped_ticks", s.skippedTicks))
		return
	}
	s.scanning = true
	s.mu.Unlock()

	err := s.runScan()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanning = false
	s.lastScan = time.Now()
	if err != nil {
		s.lastError = err
		s.healthy = false
		s.logger.Error("scanner", "Periodic scan failed", err)
		return
	}
	s.lastSuccess = s.lastScan
	s.lastError = nil
	s.healthy = true
}

func (s *PeriodicScanner) runScan() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panic: %v", r)
		}
	}()

	start := time.Now()
	processed, failed := s.scanWatchDirectories()
	s.logger.Info("scanner", "Periodic scan complete",
		logging.F("duration_ms", time.Since(start).Milliseconds()),
		logging.F("processed", processed),
		logging.F("errors", failed))
	return nil
}

func (s *PeriodicScanner) scanWatchDirectories() (processed int, failed int) {
	files, err := Collect(s.watchPaths, s.options)
	if err != nil {
		s.logger.Warn("scanner", "Some watch paths were inaccessible", logging.F("error", err.Error()))
	}

	for _, path := range files {
		if !s.handler.IsMediaFile(path) {
			continue
		}
		event := watcher.FileEvent{Type: watcher.EventCreate, Path: path}
		if err := s.handler.HandleFileEvent(event); err != nil {
			s.logger.Warn("scanner", "Failed to process file during scan",
				logging.F("path", path),
				logging.F("error", err.Error()))
			failed++
			continue
		}
		processed++
	}
	return processed, failed
}
