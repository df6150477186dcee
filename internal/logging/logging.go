// Package logging configures the structured event log. One event per line on
// stdout, JSON by default for log aggregation tooling, key=value text when
// LOG_PLAIN_TEXT is set. Every event carries a component, a flow and a meta
// field bag.
package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Meta is the open attribute bag attached to an event.
type Meta = logrus.Fields

// Setup configures the process-wide logger. level is one of the logrus level
// names (case-insensitive); unknown levels fall back to info.
func Setup(level string, plainText bool) {
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	if plainText {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}
}

func entry(component, flow string, meta Meta) *logrus.Entry {
	if meta == nil {
		meta = Meta{}
	}
	return logrus.WithFields(logrus.Fields{
		"component": component,
		"flow":      flow,
		"meta":      meta,
	})
}

// Debug logs event at debug level.
func Debug(event, component, flow string, meta Meta) {
	entry(component, flow, meta).Debug(event)
}

// Info logs event at info level.
func Info(event, component, flow string, meta Meta) {
	entry(component, flow, meta).Info(event)
}

// Warn logs event at warning level.
func Warn(event, component, flow string, meta Meta) {
	entry(component, flow, meta).Warn(event)
}

// Error logs event at error level, attaching err.
func Error(event, component, flow string, err error, meta Meta) {
	entry(component, flow, meta).WithError(err).Error(event)
}
