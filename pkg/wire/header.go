package wire

// Message header layout. The low five bits carry the message id; the
// remaining three are flags whose meaning is message-specific but whose
// bit roles are consistent within a family:
//
//	 7   6   5   4   3   2   1   0
//	+---+---+---+-------------------+
//	| Z | M | N |    message id     |
//	+---+---+---+-------------------+
//
// Z: one or more extensions follow.
// N: the accompanying wire expression carries a literal suffix.
// M: the numeric id in this message was assigned by the sender.
const (
	midBits = 5
	midMask = byte(1<<midBits - 1)

	// FlagN marks a wire expression with a literal suffix.
	FlagN = byte(1 << 5)

	// FlagM marks a sender-assigned numeric id.
	FlagM = byte(1 << 6)

	// FlagZ marks the presence of a chained extension block.
	FlagZ = byte(1 << 7)
)

// Transport-family message ids and the declaration envelope id.
const (
	MidInit      = byte(0x01)
	MidOpen      = byte(0x02)
	MidClose     = byte(0x03)
	MidKeepAlive = byte(0x04)
	MidDeclare   = byte(0x19)
)

// Declaration-body message ids.
const (
	MidDeclareKeyExpr      = byte(0x00)
	MidUndeclareKeyExpr    = byte(0x01)
	MidDeclareSubscriber   = byte(0x02)
	MidUndeclareSubscriber = byte(0x03)
	MidDeclareQueryable    = byte(0x04)
	MidUndeclareQueryable  = byte(0x05)
	MidDeclareToken        = byte(0x06)
	MidUndeclareToken      = byte(0x07)
)

// MessageID extracts the message id from a header byte.
func MessageID(header byte) byte {
	return header & midMask
}

// Flags extracts the flag bits from a header byte.
func Flags(header byte) byte {
	return header &^ midMask
}

// HasFlag reports whether flag is set in header.
func HasFlag(header, flag byte) bool {
	return header&flag != 0
}

// Extension header layout:
//
//	 7   6   5   4   3   2   1   0
//	+---+-------+---+---------------+
//	| X |  ENC  | M |  extension id |
//	+---+-------+---+---------------+
//
// X: another extension follows this one.
// ENC: payload encoding (Unit, Z64 or ZBuf).
// M: mandatory-to-understand; decoding fails if the kind is unknown.
const (
	extIDMask = byte(0x0f)

	// ExtMandatory marks an extension that may not be skipped.
	ExtMandatory = byte(1 << 4)

	// Extension payload encodings.
	ExtEncUnit = byte(0b00 << 5)
	ExtEncZ64  = byte(0b01 << 5)
	ExtEncZBuf = byte(0b10 << 5)
	extEncMask = byte(0b11 << 5)

	// ExtMore is the continuation bit: set on every extension in a chain
	// except the last.
	ExtMore = byte(1 << 7)
)

// ExtKind extracts the extension kind (id plus encoding) from an extension
// header byte. Decoders dispatch on the kind; the mandatory and
// continuation bits are orthogonal to it.
func ExtKind(header byte) byte {
	return header & (extIDMask | extEncMask)
}

// extHeader packs an extension kind with its continuation bit.
func extHeader(kind byte, more bool) byte {
	if more {
		return kind | ExtMore
	}
	return kind
}
