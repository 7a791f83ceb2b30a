// Package logging is the leveled, component-tagged logger used across
// jellyrename. Entries are JSON lines written by zerolog; the log file is
// rotated by size with lumberjack.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel maps a config value to a Level. Unknown names give LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Field is one key/value pair attached to an entry.
type Field struct {
	Key   string
	Value interface{}
}

func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

type Config struct {
	Level      string `mapstructure:"level" toml:"level"`             // debug, info, warn, error
	File       string `mapstructure:"file" toml:"file"`               // log file path; "-" disables the file
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb"` // rotate after this many megabytes (default: 10)
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"` // rotated files to keep (default: 5)
	Console    bool   `mapstructure:"console" toml:"console"`         // mirror entries to stderr
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		File:       "", // ~/.config/jellyrename/logs/jellyrename.log
		MaxSizeMB:  10,
		MaxBackups: 5,
	}
}

type Logger struct {
	mu       sync.RWMutex
	zl       zerolog.Logger
	file     *lumberjack.Logger
	filePath string
}

// New builds a logger from cfg. The file sink is created on first write.
func New(cfg Config) (*Logger, error) {
	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}

	var file *lumberjack.Logger
	var filePath string
	if cfg.File != "-" {
		path := cfg.File
		if path == "" {
			logPath, err := paths.LogPath()
			if err != nil {
				return nil, fmt.Errorf("unable to resolve log path: %w", err)
			}
			path = logPath
		}
		expanded, err := paths.ExpandHome(path)
		if err != nil {
			return nil, fmt.Errorf("unable to get home dir: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}

		maxSize, maxBackups := cfg.MaxSizeMB, cfg.MaxBackups
		if maxSize <= 0 {
			maxSize = 10
		}
		if maxBackups <= 0 {
			maxBackups = 5
		}
		file = &lumberjack.Logger{
			Filename:   expanded,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
		filePath = expanded
		writers = append(writers, file)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	l := newLogger(out, ParseLevel(cfg.Level))
	l.file = file
	l.filePath = filePath
	return l, nil
}

func newLogger(w io.Writer, level Level) *Logger {
	return &Logger{
		zl: zerolog.New(w).Level(level.zerologLevel()).With().Timestamp().Logger(),
	}
}

func (l *Logger) logger() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	zl := l.zl
	return &zl
}

func (l *Logger) log(e *zerolog.Event, component, msg string, fields []Field) {
	if e == nil {
		return
	}
	e = e.Str("component", component)
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case int64:
			e = e.Int64(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		case time.Duration:
			e = e.Str(f.Key, v.String())
		case error:
			e = e.AnErr(f.Key, v)
		case fmt.Stringer:
			e = e.Stringer(f.Key, v)
		default:
			e = e.Interface(f.Key, v)
		}
	}
	e.Msg(msg)
}

func (l *Logger) Debug(component, msg string, fields ...Field) {
	l.log(l.logger().Debug(), component, msg, fields)
}

func (l *Logger) Info(component, msg string, fields ...Field) {
	l.log(l.logger().Info(), component, msg, fields)
}

func (l *Logger) Warn(component, msg string, fields ...Field) {
	l.log(l.logger().Warn(), component, msg, fields)
}

// Error logs msg with err under the "error" key.
func (l *Logger) Error(component, msg string, err error, fields ...Field) {
	l.log(l.logger().Error().Err(err), component, msg, fields)
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = l.zl.Level(level.zerologLevel())
}

// FilePath is the log file in use, or "" when file logging is disabled.
func (l *Logger) FilePath() string {
	return l.filePath
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}
