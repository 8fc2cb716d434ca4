package logger

import (
	"testing"

	"github.com/phuslu/log"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want log.Level
	}{
		{"DEBUG", log.DebugLevel},
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"WARN", log.WarnLevel},
		{"WARNING", log.WarnLevel},
		{"ERROR", log.ErrorLevel},
		{"FATAL", log.FatalLevel},
		{"", log.InfoLevel},
		{"bogus", log.InfoLevel},
	}

	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInit(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		Init(LogConfig{Level: "DEBUG", Format: "json"})
		if log.DefaultLogger.Level != log.DebugLevel {
			t.Errorf("expected DebugLevel, got %v", log.DefaultLogger.Level)
		}
		if _, ok := log.DefaultLogger.Writer.(*log.IOWriter); !ok {
			t.Errorf("expected IOWriter for json format, got %T", log.DefaultLogger.Writer)
		}
	})

	t.Run("console format", func(t *testing.T) {
		Init(LogConfig{Level: "WARN", Format: "console"})
		if log.DefaultLogger.Level != log.WarnLevel {
			t.Errorf("expected WarnLevel, got %v", log.DefaultLogger.Level)
		}
		if _, ok := log.DefaultLogger.Writer.(*log.ConsoleWriter); !ok {
			t.Errorf("expected ConsoleWriter for console format, got %T", log.DefaultLogger.Writer)
		}
	})
}
