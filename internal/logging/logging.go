// Package logging provides pre-configured loggers for rustbridge components.
//
// Log output goes to stderr: stdout may carry protocol traffic when the
// adapter is embedded in a host that multiplexes streams.
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger returns a logger tagged with the given component name.
// Loggers are cached per component so repeated calls share configuration.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if entry, exists := loggers[component]; exists {
		return entry
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	levelStr := os.Getenv("RUSTBRIDGE_LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}
