// Package logging holds the process-wide zerolog logger.
//
// Components take a tagged child with Component; one-off messages use the
// level helpers. The CLI sends everything to a file under the state
// directory unless --print-logs is given.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Level is a zerolog level.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

var levelNames = map[string]Level{
	"DEBUG":   DebugLevel,
	"INFO":    InfoLevel,
	"WARN":    WarnLevel,
	"WARNING": WarnLevel,
	"ERROR":   ErrorLevel,
	"FATAL":   FatalLevel,
}

// Config holds logger configuration.
type Config struct {
	Level Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// Pretty switches Output to zerolog's console format.
	Pretty bool
	// TimeFormat defaults to RFC3339.
	TimeFormat string
	// LogToFile tees JSON records into morpheus-<timestamp>.log under LogDir.
	LogToFile bool
	LogDir    string
}

// DefaultConfig logs INFO and above to stderr as JSON.
func DefaultConfig() Config {
	return Config{
		Level:      InfoLevel,
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
		LogDir:     os.TempDir(),
	}
}

// fileSink owns the log file opened by the last Init.
type fileSink struct {
	mu sync.Mutex
	f  *os.File
}

var sink fileSink

func (s *fileSink) swap(f *os.File) {
	s.mu.Lock()
	old := s.f
	s.f = f
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

func (s *fileSink) path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return ""
	}
	return s.f.Name()
}

// Init replaces the global logger. A log file opened by a previous call is
// closed; failing to open a new one is reported on Output and logging
// continues without it.
func Init(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	out := cfg.Output
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: cfg.TimeFormat}
	}

	var file *os.File
	if cfg.LogToFile {
		f, err := createLogFile(cfg.LogDir)
		if err != nil {
			fmt.Fprintf(cfg.Output, "logging: %v\n", err)
		} else {
			file = f
			out = zerolog.MultiLevelWriter(out, f)
		}
	}
	sink.swap(file)

	Logger = zerolog.New(out).Level(cfg.Level).With().Timestamp().Logger()
}

func createLogFile(dir string) (*os.File, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := "morpheus-" + time.Now().Format("20060102-150405") + ".log"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// FilePath returns the active log file, or "" when logging only to Output.
func FilePath() string {
	return sink.path()
}

// Close closes the active log file, if any.
func Close() {
	sink.swap(nil)
}

// ParseLevel maps DEBUG, INFO, WARN(ING), ERROR and FATAL, in any case, to
// a Level. Anything else is InfoLevel.
func ParseLevel(level string) Level {
	if l, ok := levelNames[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return l
	}
	return InfoLevel
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return Logger.Debug() }

func Info() *zerolog.Event { return Logger.Info() }

func Warn() *zerolog.Event { return Logger.Warn() }

func Error() *zerolog.Event { return Logger.Error() }

// Fatal exits the process with status 1 once the event is sent.
func Fatal() *zerolog.Event { return Logger.Fatal() }

// With creates a child logger context on the global logger.
func With() zerolog.Context { return Logger.With() }

func init() {
	Init(DefaultConfig())
}
