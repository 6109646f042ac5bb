package transport

import (
	"context"
	"errors"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
)

// AcceptHandler receives each successfully established link.
type AcceptHandler func(link *Link, est Established)

// Acceptor listens for incoming connections and runs the accept-side
// handshake on each, concurrently. Failed handshakes are dropped; only
// established links reach the handler.
type Acceptor struct {
	manager *Manager
	handler AcceptHandler

	// HandshakeTimeout bounds each incoming establishment attempt.
	HandshakeTimeout time.Duration

	// MaxConcurrent limits the number of in-flight handshakes.
	MaxConcurrent int
}

// NewAcceptor creates an acceptor backed by manager.
func NewAcceptor(manager *Manager, handler AcceptHandler) *Acceptor {
	return &Acceptor{
		manager:          manager,
		handler:          handler,
		HandshakeTimeout: 10 * time.Second,
		MaxConcurrent:    64,
	}
}

// Serve accepts connections from listener until the context is canceled
// or the listener fails. It closes the listener on context cancellation
// and returns after all in-flight handshakes finish.
func (a *Acceptor) Serve(ctx context.Context, listener net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	// The shutdown watcher and the accept loop occupy two slots for the
	// whole run; the limit must leave MaxConcurrent slots for handshakes.
	g.SetLimit(a.MaxConcurrent + 2)

	g.Go(func() error {
		<-ctx.Done()
		listener.Close()
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
			g.Go(func() error {
				a.handleConn(ctx, conn)
				return nil
			})
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// handleConn runs one accept-side handshake. Handshake errors are logged
// by the manager and otherwise swallowed: one bad peer must not stop the
// acceptor.
func (a *Acceptor) handleConn(ctx context.Context, conn net.Conn) {
	link := NewLink(conn)
	link.SetLogger(a.manager.logger)

	hctx := ctx
	if a.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, a.HandshakeTimeout)
		defer cancel()
	}

	est, err := a.manager.Accept(hctx, link)
	if err != nil {
		return
	}
	if a.handler != nil {
		a.handler(link, est)
	}
}
