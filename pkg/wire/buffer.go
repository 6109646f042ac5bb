package wire

import (
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrTruncated indicates fewer bytes were available than a field requires.
	ErrTruncated = errors.New("truncated message")

	// ErrWriteOverflow indicates a write would exceed the writer's size bound.
	ErrWriteOverflow = errors.New("write exceeds size bound")

	// ErrInvalidHeader indicates a header whose message id or discriminant
	// does not match what the decoder expects.
	ErrInvalidHeader = errors.New("invalid header")

	// ErrMandatoryExtension indicates an unrecognized extension that is
	// marked mandatory-to-understand.
	ErrMandatoryExtension = errors.New("unknown mandatory extension")

	// ErrVarintOverflow indicates a variable-length integer that does not
	// fit in 64 bits.
	ErrVarintOverflow = errors.New("varint overflows 64 bits")
)

// Reader consumes bytes from a caller-owned buffer.
// The zero value is an empty reader.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a reader over buf. The reader does not copy buf;
// the caller must not mutate it while decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// CanRead reports whether at least one byte is left.
func (r *Reader) CanRead() bool {
	return r.pos < len(r.buf)
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrTruncated
	}
	return r.buf[r.pos], nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrTruncated
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadU16LE reads a little-endian 16-bit integer.
func (r *Reader) ReadU16LE() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, ErrTruncated
	}
	v := uint16(r.buf[r.pos]) | uint16(r.buf[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

// ReadBytes reads n bytes into a freshly-owned slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// Skip discards n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.Remaining() < n {
		return ErrTruncated
	}
	r.pos += n
	return nil
}

// Writer appends bytes to a growable buffer, optionally bounded by a
// maximum size. A zero maximum means unbounded.
type Writer struct {
	buf []byte
	max int
}

// NewWriter creates an unbounded writer.
func NewWriter() *Writer {
	return &Writer{}
}

// NewBoundedWriter creates a writer that fails with ErrWriteOverflow once
// more than max bytes have been written. Used to enforce the negotiated
// batch size at encode time.
func NewBoundedWriter(max int) *Writer {
	return &Writer{max: max}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) grow(n int) error {
	if w.max > 0 && len(w.buf)+n > w.max {
		return fmt.Errorf("%w: %d > %d", ErrWriteOverflow, len(w.buf)+n, w.max)
	}
	return nil
}

// WriteU8 appends one byte.
func (w *Writer) WriteU8(b byte) error {
	if err := w.grow(1); err != nil {
		return err
	}
	w.buf = append(w.buf, b)
	return nil
}

// WriteU16LE appends a little-endian 16-bit integer.
func (w *Writer) WriteU16LE(v uint16) error {
	if err := w.grow(2); err != nil {
		return err
	}
	w.buf = append(w.buf, byte(v), byte(v>>8))
	return nil
}

// WriteBytes appends p.
func (w *Writer) WriteBytes(p []byte) error {
	if err := w.grow(len(p)); err != nil {
		return err
	}
	w.buf = append(w.buf, p...)
	return nil
}
