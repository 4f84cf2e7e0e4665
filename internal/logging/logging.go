// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process logger: readable output on stderr,
// with warnings and errors mirrored to a log file for later inspection.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr at Info (or Debug when verbose).
// When errorLog is non-empty, Warn and above are appended to that file as
// well. A file that cannot be opened degrades to stderr-only with a warning
// rather than failing the command.
func New(verbose bool, errorLog string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "01/02/2006 03:04:05 PM",
	})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if errorLog != "" {
		f, err := os.OpenFile(errorLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.WithError(err).Warnf("cannot open %s, errors will only go to stderr", errorLog)
		} else {
			log.AddHook(&fileHook{w: f, formatter: log.Formatter})
		}
	}
	return log
}

// fileHook mirrors Warn-and-above entries to a file.
type fileHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
	}
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return fmt.Errorf("formatting log entry: %w", err)
	}
	_, err = h.w.Write(line)
	return err
}
