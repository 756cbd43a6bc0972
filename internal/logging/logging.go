package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus with size-based rotation of the log file.
type Logger struct {
	*logrus.Logger
	rotator *lumberjack.Logger
}

// New builds a logger writing to stdout and, when file is non-empty, to a
// rotated log file as well. Unknown levels default to info.
func New(level, file string) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	var rotator *lumberjack.Logger
	if file != "" {
		rotator = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // MB
			MaxBackups: 7,
			MaxAge:     28, // days
		}
		l.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return &Logger{Logger: l, rotator: rotator}
}

// Close flushes and closes the rotated log file, if any.
func (l *Logger) Close() error {
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}
