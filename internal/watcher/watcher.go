// Package watcher forwards filesystem events for media files to a handler.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/fsnotify/fsnotify"
)

type EventType string

const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventMove   EventType = "move"
	EventDelete EventType = "delete"
)

type FileEvent struct {
	Type EventType
	Path string
}

type Handler interface {
	HandleFileEvent(event FileEvent) error
	IsMediaFile(path string) bool
}

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	recursive bool
	logger    *logging.Logger
}

type Option func(*Watcher)

func WithRecursive(recursive bool) Option {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func NewWatcher(handler Handler, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		recursive: false,
		logger:    logging.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("unable to watch %s: not a directory", path)
		}
		if w.recursive {
			if err := w.addRecursive(path); err != nil {
				return err
			}
			continue
		}
		if err := w.add(path); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) add(path string) error {
	if err := w.fsWatcher.Add(path); err != nil {
		return fmt.Errorf("unable to watch %s: %w", path, err)
	}
	w.logger.Info("watcher", "Watching directory", logging.F("path", path))
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.add(path)
	})
}

// Start delivers events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.recursive && !strings.HasPrefix(filepath.Base(event.Name), ".") {
						if err := w.addRecursive(event.Name); err != nil {
							w.logger.Warn("watcher", "Unable to watch new directory",
								logging.F("path", event.Name), logging.F("error", err.Error()))
						}
					}
					continue
				}
			}

			if err := w.handleEvent(event); err != nil {
				w.logger.Error("watcher", "Error handling event", err, logging.F("path", event.Name))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("watcher", "Watcher error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) error {
	if strings.HasPrefix(filepath.Base(event.Name), ".") || !w.handler.IsMediaFile(event.Name) {
		return nil
	}

	fileEvent := FileEvent{Type: eventType(event.Op), Path: event.Name}
	w.logger.Debug("watcher", "Event", logging.F("type", fileEvent.Type), logging.F("file", filepath.Base(event.Name)))

	return w.handler.HandleFileEvent(fileEvent)
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return EventCreate
	case op&fsnotify.Write == fsnotify.Write:
		return EventWrite
	case op&fsnotify.Rename == fsnotify.Rename:
		return EventMove
	case op&fsnotify.Remove == fsnotify.Remove:
		return EventDelete
	default:
		return EventWrite
	}
}
