// Package logging builds the prefixed loggers used by every component.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nixxel-company-limited/thermal-printer-bridge/config"
)

// Flags are the standard flags for bridge loggers.
const Flags = log.LstdFlags | log.Lmsgprefix

// Output returns the writer for cfg: stdout, or a size-rotated file.
func Output(cfg config.Log) io.Writer {
	if cfg.File == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// New creates a logger with a "[NAME] " prefix writing to out.
func New(out io.Writer, name string) *log.Logger {
	return log.New(out, "["+name+"] ", Flags)
}

// Notifier shows operator messages on a logger. It satisfies both
// printer.Notifier and connection.Notifier.
type Notifier struct {
	Logger *log.Logger
}

// Notify logs message
func (n Notifier) Notify(message string) {
	if n.Logger == nil || message == "" {
		return
	}
	n.Logger.Println(message)
}
