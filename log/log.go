// Package log provides a structured logging infrastructure with filesystem-based persistence.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cardsweep/cardsweep/filesystem"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/where"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	// enabled indicates the persistent logging state for the active application instance.
	enabled bool

	// file is the daily log file receiving every entry while enabled.
	file io.Writer

	discard = func() *logrus.Logger {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}()
)

// Setup initializes the logging subsystem, including file handles, formatting, and severity levels based on global configuration.
// Inoperative state: If logging is disabled, all subsequent log emissions are silently discarded.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))

	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	file = f
	logrus.SetOutput(f)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

// SetVerbose raises the level to debug and mirrors every entry to stderr, whether or not file logging is enabled.
func SetVerbose() {
	enabled = true
	if file != nil {
		logrus.SetOutput(io.MultiWriter(file, os.Stderr))
	} else {
		logrus.SetOutput(os.Stderr)
	}
	logrus.SetLevel(logrus.DebugLevel)
}

// Entry returns a field logger for callers that attach page or item context.
// When logging is disabled the returned logger discards everything.
func Entry() logrus.FieldLogger {
	if !enabled {
		return discard
	}
	return logrus.StandardLogger()
}

// Severity-Specific Log Emissions - these functions proxy messages to the configured backend when logging is enabled.

func Error(args ...interface{}) {
	if enabled {
		logrus.Error(args...)
	}
}
func Errorf(format string, args ...interface{}) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}
func Warn(args ...interface{}) {
	if enabled {
		logrus.Warn(args...)
	}
}
func Warnf(format string, args ...interface{}) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}
func Info(args ...interface{}) {
	if enabled {
		logrus.Info(args...)
	}
}
func Infof(format string, args ...interface{}) {
	if enabled {
		logrus.Infof(format, args...)
	}
}
func Debug(args ...interface{}) {
	if enabled {
		logrus.Debug(args...)
	}
}
func Debugf(format string, args ...interface{}) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
