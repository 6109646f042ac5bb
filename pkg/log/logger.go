package log

// Logger receives protocol events from the framing, codec and session
// layers. Implementations must tolerate concurrent calls; a Log call sits
// on the hot path of every frame, so sinks should hand off or return
// quickly rather than block.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use; it is the
// default sink wherever logging is optional.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// MultiLogger duplicates each event to every sink in order, so a session
// can stream to a file for trellis-decode and to slog at the same time.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger fans events out to the given sinks.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

// Log forwards the event to every sink.
func (m *MultiLogger) Log(event Event) {
	for _, sink := range m.sinks {
		sink.Log(event)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
