package wire

import "testing"

func TestWireExprRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		expr WireExpr
	}{
		{
			name: "numeric only",
			expr: WireExpr{Scope: 42},
		},
		{
			name: "literal only",
			expr: WireExpr{Suffix: "demo/test"},
		},
		{
			name: "numeric with suffix",
			expr: WireExpr{Scope: 7, Suffix: "sensors/**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			if err := EncodeWireExpr(w, tt.expr, tt.expr.HasSuffix()); err != nil {
				t.Fatalf("EncodeWireExpr failed: %v", err)
			}

			decoded, err := DecodeWireExpr(NewReader(w.Bytes()), tt.expr.HasSuffix())
			if err != nil {
				t.Fatalf("DecodeWireExpr failed: %v", err)
			}
			if decoded != tt.expr {
				t.Errorf("round trip mismatch: got %+v, want %+v", decoded, tt.expr)
			}
		})
	}
}

func TestWireExprSuffixConditionControlsDecoding(t *testing.T) {
	w := NewWriter()
	if err := EncodeWireExpr(w, WireExpr{Scope: 3}, false); err != nil {
		t.Fatalf("EncodeWireExpr failed: %v", err)
	}

	// Without the suffix condition the same bytes decode as a pure
	// numeric reference and the reader is fully consumed.
	r := NewReader(w.Bytes())
	decoded, err := DecodeWireExpr(r, false)
	if err != nil {
		t.Fatalf("DecodeWireExpr failed: %v", err)
	}
	if decoded.Scope != 3 || decoded.HasSuffix() {
		t.Errorf("unexpected decode result: %+v", decoded)
	}
	if r.CanRead() {
		t.Error("reader not fully consumed")
	}
}
