// Package logger wraps zerolog with process-wide defaults.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // console or json
	Writer io.Writer
}

// Logger is the project-wide logging type.
type Logger = zerolog.Logger

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Init builds the root logger. Only the first call has an effect.
func Init(opt Options) {
	once.Do(func() {
		root.Store(build(opt))
	})
}

func build(opt Options) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.ToLower(opt.Format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	l := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp().Logger()
	return &l
}

// Get returns the root logger, initialising it with info level if needed.
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(Options{Level: "info"})
	return root.Load()
}

// With returns a child logger tagged with a component name.
func With(component string) Logger {
	return Get().With().Str("component", component).Logger()
}

// Nop returns a logger that discards everything, for tests.
func Nop() Logger {
	return zerolog.Nop()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
