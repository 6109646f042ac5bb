package log

import "time"

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// LinkID uniquely identifies the link (UUID).
	LinkID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port), when known.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// PeerID is the peer's node identity (hex), populated once the
	// handshake has learned it.
	PeerID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame     *FrameEvent     `cbor:"10,keyasint,omitempty"` // Framing layer
	Message   *MessageEvent   `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	Handshake *HandshakeEvent `cbor:"12,keyasint,omitempty"` // Establishment stages
	Error     *ErrorEventData `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerFraming is the batch framing layer (raw bytes).
	LayerFraming Layer = 0
	// LayerWire is the message codec layer (decoded messages).
	LayerWire Layer = 1
	// LayerSession is the establishment/session layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerFraming:
		return "FRAMING"
	case LayerWire:
		return "WIRE"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message.
	CategoryMessage Category = 0
	// CategoryHandshake indicates an establishment stage transition.
	CategoryHandshake Category = 1
	// CategoryState indicates a link state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryHandshake:
		return "HANDSHAKE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent describes one batch frame at the framing layer.
type FrameEvent struct {
	// Size is the total frame size including the length prefix.
	Size int `cbor:"1,keyasint"`

	// Data is the frame payload, possibly truncated for large frames.
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates Data was cut off at the capture limit.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent describes one decoded wire message.
type MessageEvent struct {
	// Kind is the message kind name (e.g. "InitSyn", "Declare").
	Kind string `cbor:"1,keyasint"`

	// Size is the encoded size in bytes.
	Size int `cbor:"2,keyasint,omitempty"`
}

// HandshakeEvent describes one establishment stage transition.
type HandshakeEvent struct {
	// Stage is the stage name (e.g. "init_syn", "established").
	Stage string `cbor:"1,keyasint"`

	// Reason is the failure description when the stage failed.
	Reason string `cbor:"2,keyasint,omitempty"`
}

// ErrorEventData describes an error at any layer.
type ErrorEventData struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`
}
