package transport

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/trellis-protocol/trellis-go/pkg/log"
	"github.com/trellis-protocol/trellis-go/pkg/wire"
)

// ErrHandshakeInvalid indicates the peer violated the establishment
// protocol. The link is closed with reason INVALID before this is returned.
var ErrHandshakeInvalid = errors.New("invalid handshake")

// Established summarizes a completed handshake. It is the input to the
// session layer above.
type Established struct {
	// PeerZID is the remote peer's identity.
	PeerZID wire.NodeID

	// PeerRole is the role the remote peer declared.
	PeerRole wire.Role

	// Resolution is the negotiated id and sequence-number widths.
	Resolution wire.Resolution

	// BatchSize is the negotiated maximum batch in bytes.
	BatchSize uint16

	// QoS reports whether both sides support quality of service.
	QoS bool

	// Lease is the keep-alive lease granted by the remote peer.
	Lease time.Duration

	// InitialSN is the remote peer's first sequence number.
	InitialSN uint64
}

// negotiation is the parameter set the acceptor computes from an InitSyn
// and its own configuration.
type negotiation struct {
	resolution wire.Resolution
	batchSize  uint16
	qos        bool
}

// initSynOutput carries the fields of a validated InitSyn into the
// following pipeline stages.
type initSynOutput struct {
	role       wire.Role
	zid        wire.NodeID
	resolution wire.Resolution
	batchSize  uint16
	isQoS      bool
}

// Accept runs the accept-side establishment pipeline on link: await
// InitSyn, send InitAck, await OpenSyn, send OpenAck. Any protocol
// violation closes the link with reason INVALID and returns
// ErrHandshakeInvalid. On success the link's batch limit is set to the
// negotiated size.
func (m *Manager) Accept(ctx context.Context, link *Link) (Established, error) {
	syn, err := m.recvInitSyn(ctx, link)
	if err != nil {
		return Established{}, m.fail(ctx, link, "init_syn", err)
	}

	negotiated, nonce, err := m.sendInitAck(ctx, link, syn)
	if err != nil {
		return Established{}, m.fail(ctx, link, "init_ack", err)
	}

	open, err := m.recvOpenSyn(ctx, link, syn, negotiated, nonce)
	if err != nil {
		return Established{}, m.fail(ctx, link, "open_syn", err)
	}

	if err := m.sendOpenAck(ctx, link); err != nil {
		return Established{}, m.fail(ctx, link, "open_ack", err)
	}

	link.framer.SetMaxBatchSize(negotiated.batchSize)
	m.logHandshake(link, log.DirectionIn, "established", "")

	return Established{
		PeerZID:    syn.zid,
		PeerRole:   syn.role,
		Resolution: negotiated.resolution,
		BatchSize:  negotiated.batchSize,
		QoS:        negotiated.qos,
		Lease:      open.Lease,
		InitialSN:  open.InitialSN,
	}, nil
}

// fail closes the link with reason INVALID when the peer violated the
// protocol, and bare-closes it otherwise. Genuine I/O errors pass through
// unchanged so callers can distinguish a misbehaving peer from a dead
// link.
func (m *Manager) fail(ctx context.Context, link *Link, stage string, err error) error {
	m.logHandshake(link, log.DirectionIn, stage, err.Error())
	if isProtocolViolation(err) {
		link.CloseWithReason(ctx, wire.CloseInvalid)
	} else {
		link.Close()
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// isProtocolViolation reports whether err means the peer sent something
// malformed, as opposed to the link itself failing. Malformed frames and
// undecodable messages warrant a diagnostic Close just like semantic
// handshake violations.
func isProtocolViolation(err error) bool {
	return errors.Is(err, ErrHandshakeInvalid) ||
		errors.Is(err, ErrCookieInvalid) ||
		errors.Is(err, ErrBatchTooLarge) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrFrameTruncated) ||
		errors.Is(err, wire.ErrInvalidHeader) ||
		errors.Is(err, wire.ErrTruncated) ||
		errors.Is(err, wire.ErrMandatoryExtension) ||
		errors.Is(err, wire.ErrVarintOverflow)
}

// recvInitSyn reads the opening message of the handshake. The batch must
// contain exactly one message, it must be an InitSyn, and its protocol
// version must match ours exactly.
func (m *Manager) recvInitSyn(ctx context.Context, link *Link) (initSynOutput, error) {
	msgs, err := link.ReadBatch(ctx)
	if err != nil {
		return initSynOutput{}, err
	}
	if len(msgs) != 1 {
		return initSynOutput{}, fmt.Errorf("%w: expected one message, got %d", ErrHandshakeInvalid, len(msgs))
	}
	syn, ok := msgs[0].Body.(wire.InitSyn)
	if !ok {
		return initSynOutput{}, fmt.Errorf("%w: expected InitSyn, got %s", ErrHandshakeInvalid, messageKind(msgs[0].Body))
	}
	if syn.Version != ProtocolVersion {
		return initSynOutput{}, fmt.Errorf("%w: version %d, want %d", ErrHandshakeInvalid, syn.Version, ProtocolVersion)
	}
	return initSynOutput{
		role:       syn.Role,
		zid:        syn.ZID,
		resolution: syn.Resolution,
		batchSize:  syn.BatchSize,
		isQoS:      syn.QoS,
	}, nil
}

// sendInitAck negotiates the session parameters and answers with an
// InitAck carrying a sealed cookie.
func (m *Manager) sendInitAck(ctx context.Context, link *Link, syn initSynOutput) (negotiation, uint64, error) {
	negotiated := negotiation{
		resolution: m.resolution.Intersect(syn.resolution),
		batchSize:  min(m.batchSize, syn.batchSize),
		qos:        m.qos && syn.isQoS,
	}

	var nonceBuf [8]byte
	if _, err := rand.Read(nonceBuf[:]); err != nil {
		return negotiation{}, 0, fmt.Errorf("failed to generate cookie nonce: %w", err)
	}
	nonce := binary.LittleEndian.Uint64(nonceBuf[:])

	sealed, err := sealCookie(m.cookieKey, cookie{
		ZID:        syn.zid[:],
		Role:       uint8(syn.role),
		Resolution: uint8(negotiated.resolution),
		BatchSize:  negotiated.batchSize,
		QoS:        negotiated.qos,
		Nonce:      nonce,
	})
	if err != nil {
		return negotiation{}, 0, err
	}

	ack := wire.InitAck{
		Version:    ProtocolVersion,
		Role:       m.role,
		ZID:        m.zid,
		Resolution: negotiated.resolution,
		BatchSize:  negotiated.batchSize,
		QoS:        negotiated.qos,
		Cookie:     sealed,
	}
	if err := link.WriteMessage(ctx, wire.TransportMessage{Body: ack}); err != nil {
		return negotiation{}, 0, err
	}
	return negotiated, nonce, nil
}

// recvOpenSyn verifies the echoed cookie against what was sent in InitAck
// and validates the peer's initial sequence number against the negotiated
// width.
func (m *Manager) recvOpenSyn(ctx context.Context, link *Link, syn initSynOutput, negotiated negotiation, nonce uint64) (wire.OpenSyn, error) {
	msgs, err := link.ReadBatch(ctx)
	if err != nil {
		return wire.OpenSyn{}, err
	}
	if len(msgs) != 1 {
		return wire.OpenSyn{}, fmt.Errorf("%w: expected one message, got %d", ErrHandshakeInvalid, len(msgs))
	}
	open, ok := msgs[0].Body.(wire.OpenSyn)
	if !ok {
		return wire.OpenSyn{}, fmt.Errorf("%w: expected OpenSyn, got %s", ErrHandshakeInvalid, messageKind(msgs[0].Body))
	}

	c, err := openCookie(m.cookieKey, open.Cookie)
	if err != nil {
		return wire.OpenSyn{}, err
	}
	zid, err := wire.NodeIDFromBytes(c.ZID)
	if err != nil || zid != syn.zid || c.Nonce != nonce ||
		wire.Resolution(c.Resolution) != negotiated.resolution ||
		c.BatchSize != negotiated.batchSize || c.QoS != negotiated.qos {
		return wire.OpenSyn{}, fmt.Errorf("%w: cookie does not match this handshake", ErrCookieInvalid)
	}

	if open.InitialSN > negotiated.resolution.SN().Max() {
		return wire.OpenSyn{}, fmt.Errorf("%w: initial sn %d exceeds %s-bit space",
			ErrHandshakeInvalid, open.InitialSN, negotiated.resolution.SN())
	}
	return open, nil
}

// sendOpenAck confirms establishment with our lease and initial sequence
// number.
func (m *Manager) sendOpenAck(ctx context.Context, link *Link) error {
	ack := wire.OpenAck{
		Lease:     m.lease,
		InitialSN: 0,
	}
	return link.WriteMessage(ctx, wire.TransportMessage{Body: ack})
}
