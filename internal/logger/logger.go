package logger

import (
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // console, json
	Color  bool   // enable color output for console
}

// Init configures the process-wide default logger. Everything in the daemon
// logs through log.DefaultLogger after this call.
func Init(cfg LogConfig) {
	level := ParseLevel(cfg.Level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.DefaultLogger = log.Logger{
			Level:      level,
			TimeFormat: time.RFC3339,
			Writer: &log.IOWriter{
				Writer: os.Stdout,
			},
		}
	default:
		log.DefaultLogger = log.Logger{
			Level:      level,
			TimeFormat: "15:04:05.000",
			Writer: &log.ConsoleWriter{
				ColorOutput:    cfg.Color && isTerminal(),
				QuoteString:    true,
				EndWithMessage: true,
				Writer:         os.Stdout,
			},
		}
	}
}

// ParseLevel converts a level name to a log.Level, defaulting to INFO.
func ParseLevel(level string) log.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
