package scanner

import (
	"time"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
)

// ScannerConfig holds configuration for periodic scanner
type ScannerConfig struct {
	Interval   time.Duration
	WatchPaths []string
	Recursive  bool
	Extensions []string
	Handler    watcher.Handler
	Logger     *logging.Logger
}

// ScannerStatus holds the current state for health reporting
type ScannerStatus struct {
	Healthy      bool      `json:"healthy"`
	LastScan     time.Time `json:"last_scan,omitempty"`
	LastSuccess  time.Time `json:"last_success,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	SkippedTicks int64     `json:"skipped_ticks"`
	Scanning     bool      `json:"scanning"`
}
