package wire

import (
	"errors"
	"testing"
)

func TestSkipExtensionUnknownKinds(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{
			name: "unit",
			buf:  []byte{0x0e | ExtEncUnit},
		},
		{
			name: "z64",
			buf:  []byte{0x0e | ExtEncZ64, 0x85, 0x01},
		},
		{
			name: "zbuf",
			buf:  []byte{0x0e | ExtEncZBuf, 0x03, 0xaa, 0xbb, 0xcc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.buf)
			header, _ := r.ReadU8()
			more, err := SkipExtension(r, header)
			if err != nil {
				t.Fatalf("SkipExtension failed: %v", err)
			}
			if more {
				t.Error("continuation bit reported set")
			}
			if r.CanRead() {
				t.Errorf("%d bytes left after skip", r.Remaining())
			}
		})
	}
}

func TestSkipExtensionMandatory(t *testing.T) {
	r := NewReader([]byte{0x05})
	header := byte(0x0e) | ExtEncZ64 | ExtMandatory
	if _, err := SkipExtension(r, header); !errors.Is(err, ErrMandatoryExtension) {
		t.Errorf("expected ErrMandatoryExtension, got %v", err)
	}
}

func TestSkipExtensionTruncated(t *testing.T) {
	// ZBuf announcing three payload bytes but carrying one.
	r := NewReader([]byte{0x03, 0xaa})
	if _, err := SkipExtension(r, 0x0e|ExtEncZBuf); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestWriteExtensionsContinuationBits(t *testing.T) {
	w := NewWriter()
	err := writeExtensions(w, []pendingExt{
		{kind: 0x01 | ExtEncZ64, z64: 7},
		{kind: 0x02 | ExtEncUnit},
		{kind: 0x03 | ExtEncZBuf, payload: []byte{0xff}},
	})
	if err != nil {
		t.Fatalf("writeExtensions failed: %v", err)
	}

	buf := w.Bytes()
	if !HasFlag(buf[0], ExtMore) {
		t.Error("first extension missing continuation bit")
	}
	if !HasFlag(buf[2], ExtMore) {
		t.Error("middle extension missing continuation bit")
	}
	last := buf[3]
	if HasFlag(last, ExtMore) {
		t.Error("last extension has continuation bit set")
	}
}

func TestSkipAllExtensionsStopsAtChainEnd(t *testing.T) {
	w := NewWriter()
	if err := writeExtensions(w, []pendingExt{
		{kind: 0x0a | ExtEncZ64, z64: 1},
		{kind: 0x0b | ExtEncZBuf, payload: []byte{1, 2, 3}},
	}); err != nil {
		t.Fatalf("writeExtensions failed: %v", err)
	}
	w.WriteU8(0x42) // first byte after the chain

	r := NewReader(w.Bytes())
	if err := SkipAllExtensions(r); err != nil {
		t.Fatalf("SkipAllExtensions failed: %v", err)
	}
	b, err := r.ReadU8()
	if err != nil {
		t.Fatalf("read after skip failed: %v", err)
	}
	if b != 0x42 {
		t.Errorf("skip misframed the chain: next byte 0x%02x, want 0x42", b)
	}
}
