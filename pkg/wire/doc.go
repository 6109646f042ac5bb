// Package wire implements the Trellis binary wire format.
//
// The package covers the one-byte message header shared by every message
// family, the chained-extension mechanism, the wire-expression codec, the
// declaration control-message family (declare/undeclare for key
// expressions, subscribers, queryables and tokens), and the transport
// messages exchanged during session establishment (Init, Open, Close,
// KeepAlive).
//
// All codec operations are stateless pure functions over caller-owned
// buffers: encoding appends to a Writer, decoding consumes from a Reader,
// and neither retains references to the other's memory. Errors are
// returned as typed sentinel values (ErrTruncated, ErrInvalidHeader,
// ErrMandatoryExtension) so callers can decide whether to drop a message,
// close a link, or abort a handshake.
package wire
