// Package logger configures the server's JSON logrus output and the
// request, audit and security entries built on it.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with the fields this server logs with.
type Logger struct {
	*logrus.Logger
}

// New creates a JSON logger on stdout at the given level, falling back to
// info.
func New(level string) *Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput is New writing to w.
func NewWithOutput(level string, w io.Writer) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(w)

	return &Logger{Logger: log}
}

// Discard returns a logger that writes nowhere. Used by tests.
func Discard() *Logger {
	return NewWithOutput("panic", io.Discard)
}

// WithComponent tags entries with the subsystem that wrote them.
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithRequest starts an entry for one HTTP request. userID is omitted for
// anonymous callers.
func (l *Logger) WithRequest(requestID, userID string) *logrus.Entry {
	fields := logrus.Fields{"request_id": requestID}
	if userID != "" {
		fields["user_id"] = userID
	}
	return l.Logger.WithFields(fields)
}

// Audit records a state change made on behalf of an account. The action is
// the message so log searches can match on it directly.
func (l *Logger) Audit(userID, action, resource string, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"audit":    true,
		"user_id":  userID,
		"action":   action,
		"resource": resource,
		"success":  success,
	})
	if len(details) > 0 {
		entry = entry.WithField("details", details)
	}

	if success {
		entry.Info("audit: " + action)
		return
	}
	entry.Warn("audit failed: " + action)
}

// Security records rejected credentials and ownership violations.
func (l *Logger) Security(event string, userID string, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"security": true,
		"event":    event,
		"user_id":  userID,
	})
	if len(details) > 0 {
		entry = entry.WithField("details", details)
	}
	entry.Warn("security: " + event)
}
