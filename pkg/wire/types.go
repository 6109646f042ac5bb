package wire

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Mapping indicates whether a numeric id in a message was assigned by the
// sender or is to be resolved by the receiver. Receiver is the default and
// is encoded as an absent M flag.
type Mapping uint8

const (
	MappingReceiver Mapping = 0
	MappingSender   Mapping = 1
)

// String returns the mapping name.
func (m Mapping) String() string {
	switch m {
	case MappingReceiver:
		return "RECEIVER"
	case MappingSender:
		return "SENDER"
	default:
		return "UNKNOWN"
	}
}

// Role is the role a peer declares during establishment.
type Role uint8

const (
	RoleRouter Role = 0
	RolePeer   Role = 1
	RoleClient Role = 2
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleRouter:
		return "ROUTER"
	case RolePeer:
		return "PEER"
	case RoleClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r <= RoleClient
}

// NodeID is the 16-byte identity of a peer.
type NodeID [16]byte

// NewNodeID generates a random node identity.
func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

// NodeIDFromBytes builds a NodeID from 1 to 16 bytes, zero-padding short
// identities on the right.
func NodeIDFromBytes(b []byte) (NodeID, error) {
	var id NodeID
	if len(b) == 0 || len(b) > len(id) {
		return id, fmt.Errorf("%w: node id length %d", ErrInvalidHeader, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String returns the identity as lowercase hex.
func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the identity is all zeros.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

// Width is a negotiated integer width code for numeric id and
// sequence-number spaces.
type Width uint8

const (
	Width8  Width = 0
	Width16 Width = 1
	Width32 Width = 2
	Width64 Width = 3
)

// Max returns the largest value representable at this width.
func (w Width) Max() uint64 {
	switch w {
	case Width8:
		return 1<<8 - 1
	case Width16:
		return 1<<16 - 1
	case Width32:
		return 1<<32 - 1
	default:
		return 1<<64 - 1
	}
}

// String returns the width in bits.
func (w Width) String() string {
	switch w {
	case Width8:
		return "8"
	case Width16:
		return "16"
	case Width32:
		return "32"
	default:
		return "64"
	}
}

// Resolution packs the negotiated width codes for the id space (bits 0-1)
// and the sequence-number space (bits 2-3) into one byte.
type Resolution uint8

// NewResolution packs two width codes into a Resolution.
func NewResolution(id, sn Width) Resolution {
	return Resolution(byte(id&0b11) | byte(sn&0b11)<<2)
}

// DefaultResolution is 32-bit ids and 32-bit sequence numbers.
func DefaultResolution() Resolution {
	return NewResolution(Width32, Width32)
}

// ID returns the width code of the numeric-id space.
func (r Resolution) ID() Width {
	return Width(r & 0b11)
}

// SN returns the width code of the sequence-number space.
func (r Resolution) SN() Width {
	return Width(r >> 2 & 0b11)
}

// Intersect returns the narrowest of each peer's widths, which both sides
// can serve.
func (r Resolution) Intersect(other Resolution) Resolution {
	return NewResolution(min(r.ID(), other.ID()), min(r.SN(), other.SN()))
}

// String renders the resolution as "id/sn" bit widths.
func (r Resolution) String() string {
	return r.ID().String() + "/" + r.SN().String()
}

// Priority orders traffic classes from most to least urgent.
type Priority uint8

const (
	PriorityControl         Priority = 0
	PriorityRealTime        Priority = 1
	PriorityInteractiveHigh Priority = 2
	PriorityInteractiveLow  Priority = 3
	PriorityDataHigh        Priority = 4
	PriorityData            Priority = 5
	PriorityDataLow         Priority = 6
	PriorityBackground      Priority = 7
)

// Congestion selects the behavior under congestion.
type Congestion uint8

const (
	CongestionDrop  Congestion = 0
	CongestionBlock Congestion = 1
)

// QoS carries the quality-of-service attributes of a message. The zero
// value is NOT the default; use DefaultQoS.
type QoS struct {
	Priority   Priority
	Congestion Congestion
	Express    bool
}

// DefaultQoS is data priority, drop on congestion, not express. Messages
// carrying the default omit the QoS extension entirely.
func DefaultQoS() QoS {
	return QoS{Priority: PriorityData, Congestion: CongestionDrop}
}

// IsDefault reports whether q equals DefaultQoS.
func (q QoS) IsDefault() bool {
	return q == DefaultQoS()
}

// z64 packs the QoS attributes for the Z64 extension payload:
// priority in bits 0-2, congestion in bit 3, express in bit 4.
func (q QoS) z64() uint64 {
	v := uint64(q.Priority & 0b111)
	v |= uint64(q.Congestion&0b1) << 3
	if q.Express {
		v |= 1 << 4
	}
	return v
}

// qosFromZ64 unpacks a Z64 extension payload into a QoS value.
func qosFromZ64(v uint64) QoS {
	return QoS{
		Priority:   Priority(v & 0b111),
		Congestion: Congestion(v >> 3 & 0b1),
		Express:    v&(1<<4) != 0,
	}
}

// Timestamp is an NTP64 instant stamped with the identity of the node that
// produced it.
type Timestamp struct {
	Time uint64
	ID   NodeID
}

// CloseReason explains why a link or session was torn down.
type CloseReason uint8

const (
	CloseGeneric     CloseReason = 0x00
	CloseUnsupported CloseReason = 0x01
	CloseInvalid     CloseReason = 0x02
	CloseMaxSessions CloseReason = 0x03
	CloseMaxLinks    CloseReason = 0x04
	CloseExpired     CloseReason = 0x05
)

// String returns the close reason name.
func (c CloseReason) String() string {
	switch c {
	case CloseGeneric:
		return "GENERIC"
	case CloseUnsupported:
		return "UNSUPPORTED"
	case CloseInvalid:
		return "INVALID"
	case CloseMaxSessions:
		return "MAX_SESSIONS"
	case CloseMaxLinks:
		return "MAX_LINKS"
	case CloseExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}
