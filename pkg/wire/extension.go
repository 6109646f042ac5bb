package wire

import "fmt"

// pendingExt is one extension scheduled for encoding. Encoders collect the
// non-default extensions of a message into an ordered slice first, then
// write them with a simple is-this-the-last check, so no running counter
// is needed while writing.
type pendingExt struct {
	kind    byte
	z64     uint64 // payload when kind encodes Z64
	payload []byte // payload when kind encodes ZBuf
}

// writeExtensions writes a chain of extensions, setting the continuation
// bit on every entry except the last.
func writeExtensions(w *Writer, exts []pendingExt) error {
	for i, e := range exts {
		if err := w.WriteU8(extHeader(e.kind, i+1 < len(exts))); err != nil {
			return err
		}
		switch e.kind & extEncMask {
		case ExtEncUnit:
			// No payload.
		case ExtEncZ64:
			if err := w.WriteVarint(e.z64); err != nil {
				return err
			}
		case ExtEncZBuf:
			if err := w.WriteVarint(uint64(len(e.payload))); err != nil {
				return err
			}
			if err := w.WriteBytes(e.payload); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: extension kind 0x%02x", ErrInvalidHeader, e.kind)
		}
	}
	return nil
}

// readExtZ64 decodes the payload of a Z64 extension whose header byte has
// already been consumed. Returns the value and the continuation bit.
func readExtZ64(r *Reader, header byte) (uint64, bool, error) {
	v, err := r.ReadVarint()
	return v, HasFlag(header, ExtMore), err
}

// readExtZBuf decodes the payload of a ZBuf extension whose header byte
// has already been consumed.
func readExtZBuf(r *Reader, header byte) ([]byte, bool, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, false, err
	}
	buf, err := r.ReadBytes(int(n))
	return buf, HasFlag(header, ExtMore), err
}

// SkipExtension consumes the payload of an unrecognized extension using
// its self-describing encoding, so decoding can continue past kinds this
// build does not understand. Fails with ErrMandatoryExtension when the
// extension is marked mandatory-to-understand. Returns the continuation
// bit.
func SkipExtension(r *Reader, header byte) (bool, error) {
	if HasFlag(header, ExtMandatory) {
		return false, fmt.Errorf("%w: kind 0x%02x", ErrMandatoryExtension, ExtKind(header))
	}
	switch header & extEncMask {
	case ExtEncUnit:
		// No payload.
	case ExtEncZ64:
		if _, err := r.ReadVarint(); err != nil {
			return false, err
		}
	case ExtEncZBuf:
		n, err := r.ReadVarint()
		if err != nil {
			return false, err
		}
		if err := r.Skip(int(n)); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("%w: extension encoding 0x%02x", ErrInvalidHeader, header&extEncMask)
	}
	return HasFlag(header, ExtMore), nil
}

// SkipAllExtensions consumes an entire extension chain. Used by messages
// that declare no extensions of their own but must still honor the Z flag
// for forward compatibility.
func SkipAllExtensions(r *Reader) error {
	for more := true; more; {
		header, err := r.ReadU8()
		if err != nil {
			return err
		}
		more, err = SkipExtension(r, header)
		if err != nil {
			return err
		}
	}
	return nil
}
