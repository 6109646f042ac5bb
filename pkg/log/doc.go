// Package log provides structured protocol event logging for the Trellis
// stack.
//
// Events are captured at the framing, codec and establishment layers and
// handed to a Logger implementation chosen by the application: NoopLogger
// discards them, SlogAdapter forwards them to log/slog, FileLogger writes
// a CBOR event stream for later inspection, and MultiLogger fans out to
// several sinks at once. Reader plays a recorded stream back with optional
// filtering.
package log
