package logger

import corelogger "github.com/takaflow/dispatch/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods. Useful in tests.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. Environment detection
// happens through the APP_ENV and LOG_LEVEL variables.
func New(component string) Logger {
	return NewZerologLogger(component)
}
