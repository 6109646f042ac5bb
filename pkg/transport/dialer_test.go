package transport

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trellis-protocol/trellis-go/pkg/wire"
)

func TestDialWithRetryStopsOnRejection(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	// Misbehaving acceptor: answers every InitSyn with a KeepAlive, which
	// the opener must reject deterministically.
	var dials atomic.Int32
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			dials.Add(1)
			go func() {
				ctx := context.Background()
				link := NewLink(conn)
				link.ReadBatch(ctx)
				link.WriteMessage(ctx, wire.TransportMessage{Body: wire.KeepAlive{}})
				link.ReadBatch(ctx)
				link.Close()
			}()
		}
	}()

	dialer := NewDialer(testManager(t, DefaultConfig()))
	_, _, err = dialer.DialWithRetry(testContext(t), "tcp", listener.Addr().String())
	require.ErrorIs(t, err, ErrHandshakeInvalid)
	require.Equal(t, int32(1), dials.Load(), "a rejected handshake must not be redialed")
}
