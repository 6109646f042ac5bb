package wire

import (
	"errors"
	"testing"
)

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})

	if _, err := r.ReadU16LE(); err != nil {
		t.Fatalf("ReadU16LE failed: %v", err)
	}
	if _, err := r.ReadU8(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if _, err := r.ReadBytes(1); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestReaderPeek(t *testing.T) {
	r := NewReader([]byte{0x19})

	b, err := r.Peek()
	if err != nil || b != 0x19 {
		t.Fatalf("Peek = %#x, %v", b, err)
	}
	if b, err := r.ReadU8(); err != nil || b != 0x19 {
		t.Fatalf("ReadU8 after Peek = %#x, %v", b, err)
	}
	if _, err := r.Peek(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated at end, got %v", err)
	}
}

func TestReadBytesOwnership(t *testing.T) {
	src := []byte{0xaa, 0xbb, 0xcc}
	r := NewReader(src)

	out, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	src[0] = 0x00
	if out[0] != 0xaa {
		t.Error("decoded bytes alias the source buffer")
	}
}

func TestBoundedWriterOverflow(t *testing.T) {
	w := NewBoundedWriter(2)

	if err := w.WriteU16LE(0x1234); err != nil {
		t.Fatalf("WriteU16LE failed: %v", err)
	}
	if err := w.WriteU8(0x01); !errors.Is(err, ErrWriteOverflow) {
		t.Errorf("expected ErrWriteOverflow, got %v", err)
	}
}

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0x7f, 0x80, 0x3fff, 0x4000, 1<<32 - 1, 1 << 32, 1<<64 - 1}

	for _, v := range values {
		w := NewWriter()
		if err := w.WriteVarint(v); err != nil {
			t.Fatalf("WriteVarint(%d) failed: %v", v, err)
		}
		if got := VarintLen(v); got != w.Len() {
			t.Errorf("VarintLen(%d) = %d, encoded %d bytes", v, got, w.Len())
		}

		r := NewReader(w.Bytes())
		decoded, err := r.ReadVarint()
		if err != nil {
			t.Fatalf("ReadVarint(%d) failed: %v", v, err)
		}
		if decoded != v {
			t.Errorf("round trip mismatch: got %d, want %d", decoded, v)
		}
		if r.CanRead() {
			t.Errorf("trailing bytes after decoding %d", v)
		}
	}
}

func TestVarintOverflow(t *testing.T) {
	// Tenth byte carries more than the two bits left in a u64.
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}
	if _, err := NewReader(buf).ReadVarint(); !errors.Is(err, ErrVarintOverflow) {
		t.Errorf("expected ErrVarintOverflow, got %v", err)
	}
}

func TestVarintTruncated(t *testing.T) {
	if _, err := NewReader([]byte{0x80}).ReadVarint(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}
