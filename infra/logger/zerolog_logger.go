package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/lineloss/config"
)

var (
	outMu   sync.RWMutex
	fileOut io.WriteCloser
)

// Configure sets the global level and, when cfg.Path is set, tees every
// logger created afterwards into a rotated file.
func Configure(cfg config.LoggingConfig) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)

	outMu.Lock()
	defer outMu.Unlock()
	if fileOut != nil {
		_ = fileOut.Close()
		fileOut = nil
	}
	if cfg.Path != "" {
		fileOut = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
	}
	return nil
}

// Close flushes and closes the log file opened by Configure.
func Close() error {
	outMu.Lock()
	defer outMu.Unlock()
	if fileOut == nil {
		return nil
	}
	err := fileOut.Close()
	fileOut = nil
	return err
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger using the APP_ENV environment variable
// to determine the output format. All logs include the provided component field.
func NewZerologLogger(component string) Logger {
	var console io.Writer = os.Stdout
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	outMu.RLock()
	var w io.Writer = console
	if fileOut != nil {
		w = zerolog.MultiLevelWriter(console, fileOut)
	}
	outMu.RUnlock()
	z := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
