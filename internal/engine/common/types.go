package common

// Logger is the minimal logging interface the engine packages depend on.
// It decouples the engine from any concrete logging framework; the
// application layer adapts its structured logger to this interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// noopLogger is a Logger that discards all messages.
type noopLogger struct{}

func (noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// NewNoopLogger returns a Logger that does nothing. Useful as a default
// when no logger is injected.
func NewNoopLogger() Logger {
	return noopLogger{}
}

// Truncate shortens s to at most max runes, appending "..." when truncated.
// Used when logging matched values so that multi-page extracts do not
// flood the log stream.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
