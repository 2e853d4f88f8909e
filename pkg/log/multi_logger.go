package log

// MultiLogger fans events out to several loggers, e.g. a SlogAdapter for the
// console and a FileLogger for the on-device trace.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log sends the event to all configured loggers in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Syncer is implemented by loggers that buffer to stable storage.
type Syncer interface {
	Sync() error
}

// Sync flushes every logger that supports it and returns the first error.
func (m *MultiLogger) Sync() error {
	var first error
	for _, l := range m.loggers {
		if s, ok := l.(Syncer); ok {
			if err := s.Sync(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
