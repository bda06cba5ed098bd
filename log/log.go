// Package log builds logrus loggers for scopes and command line tools.
// Registries and scopes only emit debug records: registered and released
// tokens, leftovers claimed by teardown.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv is the environment variable that enables debug output.
const DebugEnv = "STREAM_DEBUG"

// debugEnabled reports if STREAM_DEBUG holds a true value.
func debugEnabled() bool {
	debug, err := strconv.ParseBool(os.Getenv(DebugEnv))
	return err == nil && debug
}

// GetLogger returns logger that writes to stderr, so command output
// stays clean. Records of registry lifecycle are visible only if
// STREAM_DEBUG is set.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if debugEnabled() {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// WithScope returns entry that tags every record with scope name.
func WithScope(l *logrus.Logger, scope string) *logrus.Entry {
	return l.WithField("scope", scope)
}
