package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, format and destination.
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text, json
	Output     string `yaml:"output"` // stdout, stderr, file
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
	Caller     bool   `yaml:"caller"`
}

// DefaultConfig is used for any field left empty.
var DefaultConfig = Config{
	Level:      "info",
	Format:     "text",
	Output:     "stdout",
	Filename:   "logs/sentinel.log",
	MaxSizeMB:  50,
	MaxAgeDays: 14,
	MaxBackups: 5,
	Compress:   true,
}

// New builds a logrus logger from cfg. An unknown level falls back to info.
func New(cfg Config) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	prettyCaller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}
	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: prettyCaller,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: prettyCaller,
		})
	}

	l.SetOutput(output(cfg))
	l.SetReportCaller(cfg.Caller)
	return l
}

func output(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "file":
		filename := cfg.Filename
		if filename == "" {
			filename = DefaultConfig.Filename
		}
		if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "create log directory: %v, logging to stdout\n", err)
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
	default:
		return os.Stdout
	}
}

// Component returns an entry tagged with the component name.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
