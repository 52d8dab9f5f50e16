package pluglogin

import "log"

// Logger receives progress lines from a login flow.
type Logger interface {
	Log(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Log(string, ...any) {}

type stdLogger struct {
	logger *log.Logger
}

// NewStdLogger adapts a *log.Logger to Logger.
func NewStdLogger(logger *log.Logger) Logger {
	return &stdLogger{logger: logger}
}

func (s *stdLogger) Log(format string, args ...any) {
	s.logger.Printf(format, args...)
}

// flowLogger prefixes every line with the flow id.
type flowLogger struct {
	id   string
	base Logger
}

func (f *flowLogger) Log(format string, args ...any) {
	f.base.Log("[%s] "+format, append([]any{f.id}, args...)...)
}
