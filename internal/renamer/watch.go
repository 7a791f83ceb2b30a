package renamer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
)

const defaultSettleDelay = 10 * time.Second

type Stats struct {
	mu            sync.RWMutex
	Renamed       int64
	Unchanged     int64
	Skipped       int64
	Errors        int64
	LastProcessed time.Time
	StartTime     time.Time
}

func NewStats() *Stats {
	return &Stats{
		StartTime: time.Now(),
	}
}

func (s *Stats) Record(r FileResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Outcome {
	case OutcomeRenamed:
		s.Renamed++
	case OutcomeNoOp:
		s.Unchanged++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Errors++
	}
	s.LastProcessed = time.Now()
}

func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors++
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatsSnapshot{
		Renamed:       s.Renamed,
		Unchanged:     s.Unchanged,
		Skipped:       s.Skipped,
		Errors:        s.Errors,
		LastProcessed: s.LastProcessed,
		Uptime:        time.Since(s.StartTime),
	}
}

type StatsSnapshot struct {
	Renamed       int64
	Unchanged     int64
	Skipped       int64
	Errors        int64
	LastProcessed time.Time
	Uptime        time.Duration
}

type WatchHandlerConfig struct {
	// SettleDelay is how long a file must go without events before it is
	// processed. Downloads still being written keep pushing it back.
	SettleDelay time.Duration
	IsMediaFile func(path string) bool
	Args        []string
	Logger      *logging.Logger
}

// WatchHandler feeds settled files from the watcher and the periodic
// scanner into one unattended session.
type WatchHandler struct {
	pipeline *Pipeline
	settle   time.Duration
	isMedia  func(string) bool
	args     []string
	queue    chan string
	done     chan struct{}
	stopOnce sync.Once
	pending  map[string]*time.Timer
	produced map[string]struct{}
	mu       sync.Mutex
	stats    *Stats
	logger   *logging.Logger
}

func NewWatchHandler(p *Pipeline, cfg WatchHandlerConfig) *WatchHandler {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.IsMediaFile == nil {
		cfg.IsMediaFile = func(string) bool { return true }
	}
	return &WatchHandler{
		pipeline: p,
		settle:   cfg.SettleDelay,
		isMedia:  cfg.IsMediaFile,
		args:     cfg.Args,
		queue:    make(chan string, 256),
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
		produced: make(map[string]struct{}),
		stats:    NewStats(),
		logger:   cfg.Logger,
	}
}

func (h *WatchHandler) IsMediaFile(path string) bool {
	return h.isMedia(path)
}

func (h *WatchHandler) HandleFileEvent(event watcher.FileEvent) error {
	if event.Type == watcher.EventDelete {
		return nil
	}
	if !h.IsMediaFile(event.Path) {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return nil
	default:
	}

	if _, ok := h.produced[event.Path]; ok {
		// our own rename landing
		delete(h.produced, event.Path)
		return nil
	}

	if timer, exists := h.pending[event.Path]; exists {
		timer.Stop()
		delete(h.pending, event.Path)
	}

	path := event.Path
	h.pending[path] = time.AfterFunc(h.settle, func() {
		h.mu.Lock()
		delete(h.pending, path)
		h.mu.Unlock()
		select {
		case h.queue <- path:
		case <-h.done:
		}
	})
	return nil
}

// Run processes settled files until ctx is cancelled. A provider failure
// limit ends it with ErrTooManyProviderFailures.
func (h *WatchHandler) Run(ctx context.Context) error {
	session := h.pipeline.Begin(decision.Batch, h.args)
	h.logger.Info("watch", "Watch session started", logging.F("run_id", session.RunID()), logging.F("settle_delay", h.settle))

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case path := <-h.queue:
			result, err := session.Process(ctx, path)
			if result.Outcome == OutcomeRenamed && !result.DryRun {
				h.mu.Lock()
				h.produced[result.Target] = struct{}{}
				h.mu.Unlock()
			}
			if err != nil {
				if !errors.Is(err, decision.ErrUserAbort) {
					h.stats.RecordError()
				}
				runErr = err
				break loop
			}
			h.stats.Record(result)
			h.logger.Debug("watch", "Processed file",
				logging.F("file", filepath.Base(path)),
				logging.F("outcome", result.Outcome))
		}
	}

	h.Shutdown()
	report := session.Finish(runErr)
	h.logger.Info("watch", "Watch session finished",
		logging.F("renamed", report.Renamed()),
		logging.F("skipped", report.Skipped()))
	return runErr
}

func (h *WatchHandler) Stats() StatsSnapshot {
	return h.stats.Snapshot()
}

// Pending is the number of files waiting to settle.
func (h *WatchHandler) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Shutdown stops pending timers and releases any timer still waiting on a
// full queue. Events arriving afterwards are ignored.
func (h *WatchHandler) Shutdown() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for path, timer := range h.pending {
		timer.Stop()
		delete(h.pending, path)
	}
}
