package log

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type contextLoggerKey struct{}

var stdEntry = logrus.NewEntry(logrus.StandardLogger())

// Setup configures the standard logger. format is "json" or "text".
func Setup(level, format string) {
	logrus.SetOutput(os.Stdout)
	if strings.EqualFold(format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// WithFields creates a new logger with merged fields if
// there is already a logger in context.
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	return context.WithValue(ctx, contextLoggerKey{}, GetLogger(ctx).WithFields(fields))
}

// WithLogger returns a new context with the provided logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, contextLoggerKey{}, logger)
}

// GetLogger retrieves the current logger from the context. If no logger is
// available, the standard logger is returned.
func GetLogger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(contextLoggerKey{}).(*logrus.Entry)
	if !ok || logger == nil {
		return stdEntry
	}
	return logger
}
