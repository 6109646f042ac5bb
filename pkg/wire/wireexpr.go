package wire

// WireExpr references a key expression on the wire: a numeric scope id, a
// literal suffix, or both. Scope 0 means the suffix alone names the key;
// the scope of a non-zero id is the declaring session.
type WireExpr struct {
	Scope  uint32
	Suffix string
}

// HasSuffix reports whether the expression carries a literal suffix. The
// caller derives the N flag of the enclosing message from this.
func (e WireExpr) HasSuffix() bool {
	return e.Suffix != ""
}

// EncodeWireExpr writes the scope id and, when hasSuffix, the
// length-prefixed literal suffix. hasSuffix must equal e.HasSuffix(); it
// is passed explicitly because the bit travels in the enclosing message's
// header, not here.
func EncodeWireExpr(w *Writer, e WireExpr, hasSuffix bool) error {
	if err := w.WriteVarint(uint64(e.Scope)); err != nil {
		return err
	}
	if hasSuffix {
		if err := w.WriteVarint(uint64(len(e.Suffix))); err != nil {
			return err
		}
		return w.WriteBytes([]byte(e.Suffix))
	}
	return nil
}

// DecodeWireExpr reads a wire expression. hasSuffix is derived from the
// enclosing message's N flag.
func DecodeWireExpr(r *Reader, hasSuffix bool) (WireExpr, error) {
	scope, err := r.ReadVarint()
	if err != nil {
		return WireExpr{}, err
	}
	e := WireExpr{Scope: uint32(scope)}
	if hasSuffix {
		n, err := r.ReadVarint()
		if err != nil {
			return WireExpr{}, err
		}
		buf, err := r.ReadBytes(int(n))
		if err != nil {
			return WireExpr{}, err
		}
		e.Suffix = string(buf)
	}
	return e, nil
}
