package wire

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestTransportMessageRoundTrip(t *testing.T) {
	zid := NewNodeID()

	tests := []struct {
		name string
		body TransportBody
	}{
		{
			name: "init syn defaults",
			body: InitSyn{
				Version:    8,
				Role:       RolePeer,
				ZID:        zid,
				Resolution: DefaultResolution(),
				BatchSize:  DefaultBatchSize,
			},
		},
		{
			name: "init syn with qos and size",
			body: InitSyn{
				Version:    8,
				Role:       RoleClient,
				ZID:        zid,
				Resolution: NewResolution(Width16, Width32),
				BatchSize:  16384,
				QoS:        true,
			},
		},
		{
			name: "init ack with cookie",
			body: InitAck{
				Version:    8,
				Role:       RoleRouter,
				ZID:        zid,
				Resolution: NewResolution(Width32, Width32),
				BatchSize:  32768,
				QoS:        true,
				Cookie:     []byte{0xde, 0xad, 0xbe, 0xef},
			},
		},
		{
			name: "open syn",
			body: OpenSyn{
				Lease:     10 * time.Second,
				InitialSN: 12345,
				Cookie:    []byte{0x01, 0x02},
			},
		},
		{
			name: "open ack",
			body: OpenAck{Lease: 10 * time.Second, InitialSN: 54321},
		},
		{
			name: "close",
			body: Close{Reason: CloseInvalid},
		},
		{
			name: "keepalive",
			body: KeepAlive{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			if err := EncodeTransportMessage(w, TransportMessage{Body: tt.body}); err != nil {
				t.Fatalf("EncodeTransportMessage failed: %v", err)
			}

			r := NewReader(w.Bytes())
			decoded, err := DecodeTransportMessage(r)
			if err != nil {
				t.Fatalf("DecodeTransportMessage failed: %v", err)
			}
			if !reflect.DeepEqual(decoded.Body, tt.body) {
				t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", decoded.Body, tt.body)
			}
			if r.CanRead() {
				t.Errorf("%d bytes left after decoding", r.Remaining())
			}
		})
	}
}

func TestInitSynOmitsDefaultSizeBlock(t *testing.T) {
	zid := NewNodeID()
	w := NewWriter()
	err := EncodeTransportMessage(w, TransportMessage{Body: InitSyn{
		Version:    8,
		Role:       RolePeer,
		ZID:        zid,
		Resolution: DefaultResolution(),
		BatchSize:  DefaultBatchSize,
	}})
	if err != nil {
		t.Fatalf("EncodeTransportMessage failed: %v", err)
	}
	if HasFlag(w.Bytes()[0], flagSize) {
		t.Error("size flag set although resolution and batch size are defaults")
	}
	// header + version + meta + 16 identity bytes
	if want := 1 + 1 + 1 + 16; w.Len() != want {
		t.Errorf("encoded length %d, want %d", w.Len(), want)
	}
}

func TestInitQoSExtensionPresence(t *testing.T) {
	for _, qos := range []bool{true, false} {
		w := NewWriter()
		err := EncodeTransportMessage(w, TransportMessage{Body: InitSyn{
			Version: 8,
			Role:    RolePeer,
			ZID:     NewNodeID(),
			QoS:     qos,
		}})
		if err != nil {
			t.Fatalf("EncodeTransportMessage failed: %v", err)
		}
		if got := HasFlag(w.Bytes()[0], FlagZ); got != qos {
			t.Errorf("Z flag = %v, want %v", got, qos)
		}

		decoded, err := DecodeTransportMessage(NewReader(w.Bytes()))
		if err != nil {
			t.Fatalf("DecodeTransportMessage failed: %v", err)
		}
		if got := decoded.Body.(InitSyn).QoS; got != qos {
			t.Errorf("decoded QoS = %v, want %v", got, qos)
		}
	}
}

func TestDecodeTransportMessageUnknownID(t *testing.T) {
	if _, err := DecodeTransportMessage(NewReader([]byte{0x1f})); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestDecodeInitInvalidRole(t *testing.T) {
	w := NewWriter()
	w.WriteU8(MidInit)
	w.WriteU8(8)            // version
	w.WriteU8(0b11 | 0<<4)  // role 3 is out of range
	w.WriteBytes([]byte{0}) // one identity byte

	if _, err := DecodeTransportMessage(NewReader(w.Bytes())); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}
