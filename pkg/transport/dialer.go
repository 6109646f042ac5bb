package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Dialer establishes outgoing sessions, redialing with exponential
// backoff until the context is canceled.
type Dialer struct {
	manager *Manager

	// HandshakeTimeout bounds each establishment attempt. Zero means no
	// per-attempt bound beyond the caller's context.
	HandshakeTimeout time.Duration
}

// NewDialer creates a dialer backed by manager.
func NewDialer(manager *Manager) *Dialer {
	return &Dialer{
		manager:          manager,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Dial connects to addr and runs the opening-side handshake once.
func (d *Dialer) Dial(ctx context.Context, network, addr string) (*Link, Established, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, network, addr)
	if err != nil {
		return nil, Established{}, err
	}

	link := NewLink(conn)
	link.SetLogger(d.manager.logger)

	hctx := ctx
	if d.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, d.HandshakeTimeout)
		defer cancel()
	}

	est, err := d.manager.Connect(hctx, link)
	if err != nil {
		return nil, Established{}, fmt.Errorf("handshake with %s: %w", addr, err)
	}
	return link, est, nil
}

// DialWithRetry dials until a handshake succeeds or the context ends.
// A handshake the peer rejected as invalid is not retried: the peer will
// reject it again.
func (d *Dialer) DialWithRetry(ctx context.Context, network, addr string) (*Link, Established, error) {
	backoff := NewBackoff()
	for {
		link, est, err := d.Dial(ctx, network, addr)
		if err == nil {
			return link, est, nil
		}
		if errors.Is(err, ErrHandshakeInvalid) || errors.Is(err, ErrCookieInvalid) {
			return nil, Established{}, err
		}
		if ctx.Err() != nil {
			return nil, Established{}, ctx.Err()
		}

		select {
		case <-time.After(backoff.Next()):
		case <-ctx.Done():
			return nil, Established{}, ctx.Err()
		}
	}
}
