package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	fr := NewFrameReader(&buf)

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	if err := fw.WriteFrame(payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if buf.Len() != FrameSize(len(payload)) {
		t.Errorf("frame size %d, want %d", buf.Len(), FrameSize(len(payload)))
	}

	got, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: got %x, want %x", got, payload)
	}
}

func TestFrameMultipleSequential(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	fr := NewFrameReader(&buf)

	frames := [][]byte{{0xaa}, {0xbb, 0xcc}, {0xdd, 0xee, 0xff}}
	for _, f := range frames {
		if err := fw.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	for i, want := range frames {
		got, err := fr.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d: got %x, want %x", i, got, want)
		}
	}
	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestFrameWriteEmpty(t *testing.T) {
	fw := NewFrameWriter(&bytes.Buffer{})
	if err := fw.WriteFrame(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestFrameWriteTooLarge(t *testing.T) {
	fw := NewFrameWriterWithMaxSize(&bytes.Buffer{}, 8)
	if err := fw.WriteFrame(make([]byte, 9)); !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("expected ErrBatchTooLarge, got %v", err)
	}
}

func TestFrameReadTooLarge(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	if err := fw.WriteFrame(make([]byte, 64)); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	fr := NewFrameReaderWithMaxSize(&buf, 16)
	if _, err := fr.ReadFrame(); !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("expected ErrBatchTooLarge, got %v", err)
	}
}

func TestFrameReadTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"mid prefix", []byte{0x04}, ErrFrameTruncated},
		{"mid payload", []byte{0x04, 0x00, 0x01, 0x02}, ErrFrameTruncated},
		{"zero length", []byte{0x00, 0x00}, ErrEmptyBatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := NewFrameReader(bytes.NewReader(tt.data))
			if _, err := fr.ReadFrame(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFramerRenegotiatedSize(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	if err := fw.WriteFrame(make([]byte, 32)); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if err := fw.WriteFrame(make([]byte, 32)); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	fr := NewFrameReader(&buf)
	if _, err := fr.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	fr.SetMaxBatchSize(16)
	if _, err := fr.ReadFrame(); !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("expected ErrBatchTooLarge after renegotiation, got %v", err)
	}
}
