// Package logger is the process-wide structured logger. Everything goes to a
// rotating file under the config dir; debug and console modes mirror it to
// stderr.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/unfilled/internal/constants"
)

// Logger is nil until Init runs; the package helpers are no-ops until then.
var Logger *log.Logger

type Config struct {
	Debug     bool
	ConfigDir string
	// Console mirrors info and above to stderr. serve turns this on.
	Console bool
	// JSON switches both outputs to one JSON object per line.
	JSON bool
}

// LogFile is the path Init writes to for configDir.
func LogFile(configDir string) string {
	return filepath.Join(configDir, "logs", constants.AppName+".log")
}

func level(cfg Config) log.Level {
	switch {
	case cfg.Debug:
		return log.DebugLevel
	case cfg.Console:
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}

func Init(cfg Config) error {
	path := LogFile(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var w io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	if cfg.Debug || cfg.Console {
		w = io.MultiWriter(os.Stderr, w)
	}

	formatter := log.TextFormatter
	if cfg.JSON {
		formatter = log.JSONFormatter
	}

	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level(cfg),
		Prefix:          constants.AppName,
		Formatter:       formatter,
	})
	return nil
}

// With returns a child logger carrying keyvals, or a discard logger before
// Init.
func With(keyvals ...any) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With(keyvals...)
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs msg and exits with status 1.
func Fatal(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
