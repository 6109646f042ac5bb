package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/trellis-protocol/trellis-go/pkg/log"
	"github.com/trellis-protocol/trellis-go/pkg/wire"
)

// deadliner is implemented by connections that support I/O deadlines
// (net.Conn, net.Pipe). Links over plain readers run without deadlines.
type deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Link is a bidirectional byte link carrying framed batches of transport
// messages. Reads and writes suspend on I/O only; decoding and encoding
// are synchronous.
type Link struct {
	id     string
	conn   io.ReadWriter
	framer *Framer
	logger log.Logger
}

// NewLink wraps rw in a link with the default batch size.
func NewLink(rw io.ReadWriter) *Link {
	return NewLinkWithMaxSize(rw, DefaultMaxBatchSize)
}

// NewLinkWithMaxSize wraps rw in a link bounded by maxBatch.
func NewLinkWithMaxSize(rw io.ReadWriter, maxBatch uint16) *Link {
	return &Link{
		id:     uuid.New().String(),
		conn:   rw,
		framer: NewFramerWithMaxSize(rw, maxBatch),
	}
}

// ID returns the link's unique identifier.
func (l *Link) ID() string {
	return l.id
}

// SetLogger configures protocol-event logging for this link.
// Pass nil to disable logging.
func (l *Link) SetLogger(logger log.Logger) {
	l.logger = logger
	l.framer.SetLogger(logger, l.id)
}

// RemoteAddr returns the peer address when the underlying connection is a
// net.Conn, and the empty string otherwise.
func (l *Link) RemoteAddr() string {
	if conn, ok := l.conn.(net.Conn); ok {
		return conn.RemoteAddr().String()
	}
	return ""
}

// applyDeadline maps the context deadline onto the connection, when the
// connection supports deadlines.
func (l *Link) applyDeadline(ctx context.Context) {
	d, ok := l.conn.(deadliner)
	if !ok {
		return
	}
	if deadline, has := ctx.Deadline(); has {
		d.SetReadDeadline(deadline)
		d.SetWriteDeadline(deadline)
	} else {
		d.SetReadDeadline(time.Time{})
		d.SetWriteDeadline(time.Time{})
	}
}

// ReadBatch reads one frame and decodes every transport message in it.
// Returns at least one message; an undecodable or empty batch is an error.
func (l *Link) ReadBatch(ctx context.Context) ([]wire.TransportMessage, error) {
	l.applyDeadline(ctx)

	frame, err := l.framer.ReadFrame()
	if err != nil {
		return nil, err
	}

	var msgs []wire.TransportMessage
	r := wire.NewReader(frame)
	for r.CanRead() {
		msg, err := wire.DecodeTransportMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode batch: %w", err)
		}
		l.logMessage(msg, log.DirectionIn, len(frame))
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// WriteMessage encodes and writes a single message as one frame.
func (l *Link) WriteMessage(ctx context.Context, msg wire.TransportMessage) error {
	w := wire.NewBoundedWriter(int(l.framer.MaxBatchSize()))
	if err := wire.EncodeTransportMessage(w, msg); err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	l.applyDeadline(ctx)
	if err := l.framer.WriteFrame(w.Bytes()); err != nil {
		return err
	}
	l.logMessage(msg, log.DirectionOut, w.Len())
	return nil
}

// WriteBatch encodes and writes several messages as one frame.
func (l *Link) WriteBatch(ctx context.Context, msgs []wire.TransportMessage) error {
	w := wire.NewBoundedWriter(int(l.framer.MaxBatchSize()))
	for _, msg := range msgs {
		if err := wire.EncodeTransportMessage(w, msg); err != nil {
			return fmt.Errorf("failed to encode batch: %w", err)
		}
	}

	l.applyDeadline(ctx)
	if err := l.framer.WriteFrame(w.Bytes()); err != nil {
		return err
	}
	for _, msg := range msgs {
		l.logMessage(msg, log.DirectionOut, 0)
	}
	return nil
}

// CloseWithReason sends a Close message with the given reason, then closes
// the underlying connection when it is closable. The send is best-effort:
// a write failure must not keep a misbehaving link open.
func (l *Link) CloseWithReason(ctx context.Context, reason wire.CloseReason) error {
	l.WriteMessage(ctx, wire.TransportMessage{Body: wire.Close{Reason: reason}})
	return l.Close()
}

// Close closes the underlying connection when it is closable.
func (l *Link) Close() error {
	if closer, ok := l.conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// logMessage emits a wire-layer event for one decoded or encoded message.
func (l *Link) logMessage(msg wire.TransportMessage, direction log.Direction, size int) {
	if l.logger == nil {
		return
	}
	l.logger.Log(log.Event{
		Timestamp:  time.Now(),
		LinkID:     l.id,
		Direction:  direction,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		RemoteAddr: l.RemoteAddr(),
		Message: &log.MessageEvent{
			Kind: messageKind(msg.Body),
			Size: size,
		},
	})
}

// messageKind names a transport body for logging.
func messageKind(body wire.TransportBody) string {
	switch body.(type) {
	case wire.InitSyn:
		return "InitSyn"
	case wire.InitAck:
		return "InitAck"
	case wire.OpenSyn:
		return "OpenSyn"
	case wire.OpenAck:
		return "OpenAck"
	case wire.Close:
		return "Close"
	case wire.KeepAlive:
		return "KeepAlive"
	default:
		return "Unknown"
	}
}
