package wire

import (
	"fmt"
	"time"
)

// Init/Open header flags. These reuse the flag bit positions of the
// declaration family with transport-specific meanings.
const (
	// flagAck distinguishes the ack form (InitAck, OpenAck) from the syn
	// form of the same message id.
	flagAck = byte(1 << 5)

	// flagSize marks the presence of the resolution/batch-size block in an
	// Init message.
	flagSize = byte(1 << 6)
)

// Init extension kinds.
const (
	extInitQoS = byte(0x01) | ExtEncUnit
)

// DefaultBatchSize is assumed when an Init message omits the size block.
const DefaultBatchSize = uint16(65535)

// TransportBody is the closed set of transport-message payloads.
type TransportBody interface {
	isTransportBody()
}

// InitSyn opens establishment: the connecting peer declares its protocol
// version, role, identity and the parameters it can serve.
type InitSyn struct {
	Version    uint8
	Role       Role
	ZID        NodeID
	Resolution Resolution
	BatchSize  uint16

	// QoS advertises QoS support via a unit extension; presence on the
	// wire is the capability marker.
	QoS bool
}

// InitAck answers an InitSyn with the acceptor's identity, the negotiated
// parameters and a stateless cookie the peer must echo in OpenSyn.
type InitAck struct {
	Version    uint8
	Role       Role
	ZID        NodeID
	Resolution Resolution
	BatchSize  uint16
	QoS        bool
	Cookie     []byte
}

// OpenSyn finalizes establishment: lease, initial sequence number and the
// echoed cookie.
type OpenSyn struct {
	Lease     time.Duration
	InitialSN uint64
	Cookie    []byte
}

// OpenAck confirms establishment with the acceptor's lease and initial
// sequence number.
type OpenAck struct {
	Lease     time.Duration
	InitialSN uint64
}

// Close tears down a link or session with a reason code.
type Close struct {
	Reason CloseReason
}

// KeepAlive refreshes the lease. It has no payload.
type KeepAlive struct{}

func (InitSyn) isTransportBody()   {}
func (InitAck) isTransportBody()   {}
func (OpenSyn) isTransportBody()   {}
func (OpenAck) isTransportBody()   {}
func (Close) isTransportBody()     {}
func (KeepAlive) isTransportBody() {}

// TransportMessage is one transport-family message.
type TransportMessage struct {
	Body TransportBody
}

// EncodeTransportMessage dispatches to the codec of the concrete body.
func EncodeTransportMessage(w *Writer, m TransportMessage) error {
	switch b := m.Body.(type) {
	case InitSyn:
		return encodeInit(w, b.Version, b.Role, b.ZID, b.Resolution, b.BatchSize, b.QoS, nil, false)
	case InitAck:
		return encodeInit(w, b.Version, b.Role, b.ZID, b.Resolution, b.BatchSize, b.QoS, b.Cookie, true)
	case OpenSyn:
		return encodeOpen(w, b.Lease, b.InitialSN, b.Cookie, false)
	case OpenAck:
		return encodeOpen(w, b.Lease, b.InitialSN, nil, true)
	case Close:
		if err := w.WriteU8(MidClose); err != nil {
			return err
		}
		return w.WriteU8(byte(b.Reason))
	case KeepAlive:
		return w.WriteU8(MidKeepAlive)
	default:
		return fmt.Errorf("%w: unknown transport body %T", ErrInvalidHeader, m.Body)
	}
}

// DecodeTransportMessage reads one transport message, dispatching on the
// header's message id and ack flag.
func DecodeTransportMessage(r *Reader) (TransportMessage, error) {
	header, err := r.ReadU8()
	if err != nil {
		return TransportMessage{}, err
	}
	switch MessageID(header) {
	case MidInit:
		body, err := decodeInit(r, header)
		return TransportMessage{Body: body}, err
	case MidOpen:
		body, err := decodeOpen(r, header)
		return TransportMessage{Body: body}, err
	case MidClose:
		reason, err := r.ReadU8()
		if err != nil {
			return TransportMessage{}, err
		}
		if HasFlag(header, FlagZ) {
			if err := SkipAllExtensions(r); err != nil {
				return TransportMessage{}, err
			}
		}
		return TransportMessage{Body: Close{Reason: CloseReason(reason)}}, nil
	case MidKeepAlive:
		if HasFlag(header, FlagZ) {
			if err := SkipAllExtensions(r); err != nil {
				return TransportMessage{}, err
			}
		}
		return TransportMessage{Body: KeepAlive{}}, nil
	default:
		return TransportMessage{}, fmt.Errorf("%w: unknown transport id 0x%02x", ErrInvalidHeader, MessageID(header))
	}
}

// Init body layout: version byte; one byte packing the role (bits 0-1) and
// the identity length minus one (bits 4-7); the identity bytes; when the
// size flag is set, the resolution byte and batch size; for the ack form,
// the varint-length-prefixed cookie.
func encodeInit(w *Writer, version uint8, role Role, zid NodeID, res Resolution, batch uint16, qos bool, cookie []byte, ack bool) error {
	var exts []pendingExt
	if qos {
		exts = append(exts, pendingExt{kind: extInitQoS})
	}

	header := MidInit
	if ack {
		header |= flagAck
	}
	hasSize := res != DefaultResolution() || batch != DefaultBatchSize
	if hasSize {
		header |= flagSize
	}
	if len(exts) > 0 {
		header |= FlagZ
	}
	if err := w.WriteU8(header); err != nil {
		return err
	}

	if err := w.WriteU8(version); err != nil {
		return err
	}
	if err := w.WriteU8(byte(role&0b11) | byte(len(zid)-1)<<4); err != nil {
		return err
	}
	if err := w.WriteBytes(zid[:]); err != nil {
		return err
	}
	if hasSize {
		if err := w.WriteU8(byte(res)); err != nil {
			return err
		}
		if err := w.WriteU16LE(batch); err != nil {
			return err
		}
	}
	if ack {
		if err := w.WriteVarint(uint64(len(cookie))); err != nil {
			return err
		}
		if err := w.WriteBytes(cookie); err != nil {
			return err
		}
	}
	return writeExtensions(w, exts)
}

func decodeInit(r *Reader, header byte) (TransportBody, error) {
	version, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	meta, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	role := Role(meta & 0b11)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: role %d", ErrInvalidHeader, role)
	}
	zidBytes, err := r.ReadBytes(int(meta>>4) + 1)
	if err != nil {
		return nil, err
	}
	zid, err := NodeIDFromBytes(zidBytes)
	if err != nil {
		return nil, err
	}

	res := DefaultResolution()
	batch := DefaultBatchSize
	if HasFlag(header, flagSize) {
		resByte, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		res = Resolution(resByte)
		batch, err = r.ReadU16LE()
		if err != nil {
			return nil, err
		}
	}

	var cookie []byte
	ack := HasFlag(header, flagAck)
	if ack {
		n, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		cookie, err = r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
	}

	qos := false
	for more := HasFlag(header, FlagZ); more; {
		ext, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		switch ExtKind(ext) {
		case extInitQoS:
			qos = true
			more = HasFlag(ext, ExtMore)
		default:
			more, err = SkipExtension(r, ext)
			if err != nil {
				return nil, err
			}
		}
	}

	if ack {
		return InitAck{
			Version:    version,
			Role:       role,
			ZID:        zid,
			Resolution: res,
			BatchSize:  batch,
			QoS:        qos,
			Cookie:     cookie,
		}, nil
	}
	return InitSyn{
		Version:    version,
		Role:       role,
		ZID:        zid,
		Resolution: res,
		BatchSize:  batch,
		QoS:        qos,
	}, nil
}

// Open body layout: varint lease in milliseconds, varint initial sequence
// number, and for the syn form the varint-length-prefixed cookie.
func encodeOpen(w *Writer, lease time.Duration, initialSN uint64, cookie []byte, ack bool) error {
	header := MidOpen
	if ack {
		header |= flagAck
	}
	if err := w.WriteU8(header); err != nil {
		return err
	}
	if err := w.WriteVarint(uint64(lease / time.Millisecond)); err != nil {
		return err
	}
	if err := w.WriteVarint(initialSN); err != nil {
		return err
	}
	if !ack {
		if err := w.WriteVarint(uint64(len(cookie))); err != nil {
			return err
		}
		return w.WriteBytes(cookie)
	}
	return nil
}

func decodeOpen(r *Reader, header byte) (TransportBody, error) {
	leaseMS, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	initialSN, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	lease := time.Duration(leaseMS) * time.Millisecond

	if HasFlag(header, flagAck) {
		if HasFlag(header, FlagZ) {
			if err := SkipAllExtensions(r); err != nil {
				return nil, err
			}
		}
		return OpenAck{Lease: lease, InitialSN: initialSN}, nil
	}

	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	cookie, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	if HasFlag(header, FlagZ) {
		if err := SkipAllExtensions(r); err != nil {
			return nil, err
		}
	}
	return OpenSyn{Lease: lease, InitialSN: initialSN, Cookie: cookie}, nil
}
