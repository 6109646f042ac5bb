package wire

// Variable-length integers ("zints") are unsigned LEB128: seven value bits
// per byte, most-significant bit set on every byte except the last. A u64
// needs at most ten bytes.
const maxVarintLen = 10

// WriteVarint appends v as an unsigned LEB128 varint.
func (w *Writer) WriteVarint(v uint64) error {
	for v >= 0x80 {
		if err := w.WriteU8(byte(v) | 0x80); err != nil {
			return err
		}
		v >>= 7
	}
	return w.WriteU8(byte(v))
}

// ReadVarint reads an unsigned LEB128 varint.
func (r *Reader) ReadVarint() (uint64, error) {
	var v uint64
	for i := 0; i < maxVarintLen; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		if i == maxVarintLen-1 && b > 0x01 {
			return 0, ErrVarintOverflow
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			return v, nil
		}
	}
	return 0, ErrVarintOverflow
}

// VarintLen returns the encoded size of v in bytes.
func VarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
