package transport

import (
	"context"
	"fmt"

	"github.com/trellis-protocol/trellis-go/pkg/log"
	"github.com/trellis-protocol/trellis-go/pkg/wire"
)

// Connect runs the opening-side establishment pipeline on link: send
// InitSyn, await InitAck, send OpenSyn echoing the acceptor's cookie,
// await OpenAck. Any protocol violation closes the link with reason
// INVALID and returns ErrHandshakeInvalid. On success the link's batch
// limit is set to the negotiated size.
func (m *Manager) Connect(ctx context.Context, link *Link) (Established, error) {
	if err := m.sendInitSyn(ctx, link); err != nil {
		return Established{}, m.fail(ctx, link, "init_syn", err)
	}

	ack, err := m.recvInitAck(ctx, link)
	if err != nil {
		return Established{}, m.fail(ctx, link, "init_ack", err)
	}

	if err := m.sendOpenSyn(ctx, link, ack.Cookie); err != nil {
		return Established{}, m.fail(ctx, link, "open_syn", err)
	}

	open, err := m.recvOpenAck(ctx, link)
	if err != nil {
		return Established{}, m.fail(ctx, link, "open_ack", err)
	}

	link.framer.SetMaxBatchSize(ack.BatchSize)
	m.logHandshake(link, log.DirectionOut, "established", "")

	return Established{
		PeerZID:    ack.ZID,
		PeerRole:   ack.Role,
		Resolution: ack.Resolution,
		BatchSize:  ack.BatchSize,
		QoS:        ack.QoS,
		Lease:      open.Lease,
		InitialSN:  open.InitialSN,
	}, nil
}

// sendInitSyn declares our version, role, identity and capabilities.
func (m *Manager) sendInitSyn(ctx context.Context, link *Link) error {
	syn := wire.InitSyn{
		Version:    ProtocolVersion,
		Role:       m.role,
		ZID:        m.zid,
		Resolution: m.resolution,
		BatchSize:  m.batchSize,
		QoS:        m.qos,
	}
	return link.WriteMessage(ctx, wire.TransportMessage{Body: syn})
}

// recvInitAck validates the acceptor's answer. The negotiated parameters
// must be servable by us: the acceptor may only narrow what we offered.
func (m *Manager) recvInitAck(ctx context.Context, link *Link) (wire.InitAck, error) {
	msgs, err := link.ReadBatch(ctx)
	if err != nil {
		return wire.InitAck{}, err
	}
	if len(msgs) != 1 {
		return wire.InitAck{}, fmt.Errorf("%w: expected one message, got %d", ErrHandshakeInvalid, len(msgs))
	}
	if c, ok := msgs[0].Body.(wire.Close); ok {
		return wire.InitAck{}, fmt.Errorf("%w: peer closed with reason %s", ErrHandshakeInvalid, c.Reason)
	}
	ack, ok := msgs[0].Body.(wire.InitAck)
	if !ok {
		return wire.InitAck{}, fmt.Errorf("%w: expected InitAck, got %s", ErrHandshakeInvalid, messageKind(msgs[0].Body))
	}
	if ack.Version != ProtocolVersion {
		return wire.InitAck{}, fmt.Errorf("%w: version %d, want %d", ErrHandshakeInvalid, ack.Version, ProtocolVersion)
	}
	if ack.Resolution != m.resolution.Intersect(ack.Resolution) {
		return wire.InitAck{}, fmt.Errorf("%w: resolution %s exceeds offered %s", ErrHandshakeInvalid, ack.Resolution, m.resolution)
	}
	if ack.BatchSize > m.batchSize {
		return wire.InitAck{}, fmt.Errorf("%w: batch size %d exceeds offered %d", ErrHandshakeInvalid, ack.BatchSize, m.batchSize)
	}
	if ack.QoS && !m.qos {
		return wire.InitAck{}, fmt.Errorf("%w: peer negotiated qos we did not offer", ErrHandshakeInvalid)
	}
	if len(ack.Cookie) == 0 {
		return wire.InitAck{}, fmt.Errorf("%w: empty cookie", ErrHandshakeInvalid)
	}
	return ack, nil
}

// sendOpenSyn echoes the cookie with our lease and initial sequence
// number.
func (m *Manager) sendOpenSyn(ctx context.Context, link *Link, cookie []byte) error {
	syn := wire.OpenSyn{
		Lease:     m.lease,
		InitialSN: 0,
		Cookie:    cookie,
	}
	return link.WriteMessage(ctx, wire.TransportMessage{Body: syn})
}

// recvOpenAck reads the final confirmation.
func (m *Manager) recvOpenAck(ctx context.Context, link *Link) (wire.OpenAck, error) {
	msgs, err := link.ReadBatch(ctx)
	if err != nil {
		return wire.OpenAck{}, err
	}
	if len(msgs) != 1 {
		return wire.OpenAck{}, fmt.Errorf("%w: expected one message, got %d", ErrHandshakeInvalid, len(msgs))
	}
	if c, ok := msgs[0].Body.(wire.Close); ok {
		return wire.OpenAck{}, fmt.Errorf("%w: peer closed with reason %s", ErrHandshakeInvalid, c.Reason)
	}
	ack, ok := msgs[0].Body.(wire.OpenAck)
	if !ok {
		return wire.OpenAck{}, fmt.Errorf("%w: expected OpenAck, got %s", ErrHandshakeInvalid, messageKind(msgs[0].Body))
	}
	return ack, nil
}
