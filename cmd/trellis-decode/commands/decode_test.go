package commands

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/trellis-protocol/trellis-go/pkg/transport"
	"github.com/trellis-protocol/trellis-go/pkg/wire"
)

func encodeDeclare(t *testing.T, body wire.DeclareBody) []byte {
	t.Helper()
	w := wire.NewWriter()
	if err := wire.EncodeDeclare(w, wire.NewDeclare(body)); err != nil {
		t.Fatalf("EncodeDeclare failed: %v", err)
	}
	return w.Bytes()
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
		ok    bool
	}{
		{"plain", "1902", []byte{0x19, 0x02}, true},
		{"spaced", "19 02 05", []byte{0x19, 0x02, 0x05}, true},
		{"prefixed", "0x19, 0x02", []byte{0x19, 0x02}, true},
		{"multiline", "19\n02", []byte{0x19, 0x02}, true},
		{"odd length", "190", nil, false},
		{"not hex", "zz", nil, false},
		{"empty", "  ", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.ok != (err == nil) {
				t.Fatalf("err = %v, ok = %t", err, tt.ok)
			}
			if tt.ok && !bytes.Equal(got, tt.want) {
				t.Errorf("got %x, want %x", got, tt.want)
			}
		})
	}
}

func TestDecodeAllDeclare(t *testing.T) {
	data := encodeDeclare(t, wire.DeclareSubscriber{
		ID:       7,
		WireExpr: wire.WireExpr{Scope: 0, Suffix: "demo/test"},
		Info:     wire.SubscriberInfo{Reliability: wire.ReliabilityReliable},
	})

	lines, err := DecodeAll(data)
	if err != nil {
		t.Fatalf("DecodeAll failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	for _, want := range []string{"DeclareSubscriber", "id=7", `"demo/test"`, "RELIABLE"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("output %q missing %q", lines[0], want)
		}
	}
}

func TestDecodeAllMixedStream(t *testing.T) {
	w := wire.NewWriter()
	if err := wire.EncodeTransportMessage(w, wire.TransportMessage{Body: wire.KeepAlive{}}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := wire.EncodeTransportMessage(w, wire.TransportMessage{Body: wire.Close{Reason: wire.CloseInvalid}}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	data := append(w.Bytes(), encodeDeclare(t, wire.UndeclareToken{ID: 3})...)

	lines, err := DecodeAll(data)
	if err != nil {
		t.Fatalf("DecodeAll failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[0], "KeepAlive") {
		t.Errorf("line 0: %q", lines[0])
	}
	if !strings.Contains(lines[1], "reason=INVALID") {
		t.Errorf("line 1: %q", lines[1])
	}
	if !strings.Contains(lines[2], "UndeclareToken{id=3}") {
		t.Errorf("line 2: %q", lines[2])
	}
}

func TestDecodeAllTruncated(t *testing.T) {
	data := encodeDeclare(t, wire.UndeclareKeyExpr{ID: 300})
	if _, err := DecodeAll(data[:len(data)-1]); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestRunHexFromArgs(t *testing.T) {
	data := encodeDeclare(t, wire.DeclareKeyExpr{
		ID:       5,
		WireExpr: wire.WireExpr{Suffix: "demo/test"},
	})

	var out bytes.Buffer
	err := RunHex([]string{hex.EncodeToString(data)}, false, nil, &out)
	if err != nil {
		t.Fatalf("RunHex failed: %v", err)
	}
	if !strings.Contains(out.String(), "DeclareKeyExpr{id=5") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestRunHexFramed(t *testing.T) {
	var framed bytes.Buffer
	fw := transport.NewFrameWriter(&framed)
	if err := fw.WriteFrame(encodeDeclare(t, wire.UndeclareSubscriber{ID: 9})); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if err := fw.WriteFrame(encodeDeclare(t, wire.UndeclareQueryable{ID: 10})); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	var out bytes.Buffer
	err := RunHex([]string{hex.EncodeToString(framed.Bytes())}, true, nil, &out)
	if err != nil {
		t.Fatalf("RunHex failed: %v", err)
	}
	for _, want := range []string{"frame 1", "UndeclareSubscriber{id=9}", "frame 2", "UndeclareQueryable{id=10}"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
