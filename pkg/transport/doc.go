// Package transport implements batch framing over a bidirectional byte
// link and the unicast session-establishment handshake.
//
// A Link frames and decodes batches of transport messages over any
// io.ReadWriter. A Manager holds the process-wide, read-only configuration
// (protocol version, identity, resolution, batch size, QoS support) and
// drives the handshake: Accept runs the accept-side pipeline
// (AwaitInitSyn, SendInitAck, AwaitOpenSyn, SendOpenAck), Connect runs the
// opening side. Each link's handshake is an independent sequence of
// blocking reads and writes; validation failures close the link with an
// explicit reason code and are never retried on the same link. The caller
// retries, if at all, by establishing a fresh link.
package transport
