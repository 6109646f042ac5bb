package wire

import "fmt"

// Extension kinds of the declaration family. Kinds are scoped to the
// message that carries them, so the subscriber and queryable info
// extensions may share an id.
const (
	extDeclareQoS       = byte(0x01) | ExtEncZ64
	extDeclareTimestamp = byte(0x02) | ExtEncZBuf
	extSubscriberInfo   = byte(0x01) | ExtEncZ64
	extQueryableInfo    = byte(0x01) | ExtEncZ64
)

// DeclareBody is the closed set of declaration payloads a Declare envelope
// can carry.
type DeclareBody interface {
	isDeclareBody()
}

// DeclareKeyExpr binds a numeric id to a key expression for the declaring
// session.
type DeclareKeyExpr struct {
	ID       uint32
	WireExpr WireExpr
}

// UndeclareKeyExpr releases a previously declared key-expression id.
type UndeclareKeyExpr struct {
	ID uint32
}

// DeclareSubscriber registers interest in a key expression.
type DeclareSubscriber struct {
	ID       uint32
	WireExpr WireExpr
	Mapping  Mapping
	Info     SubscriberInfo
}

// UndeclareSubscriber removes a subscriber registration.
type UndeclareSubscriber struct {
	ID uint32
}

// DeclareQueryable registers a queryable over a key expression.
type DeclareQueryable struct {
	ID       uint32
	WireExpr WireExpr
	Mapping  Mapping
	Info     QueryableInfo
}

// UndeclareQueryable removes a queryable registration.
type UndeclareQueryable struct {
	ID uint32
}

// DeclareToken registers a liveliness token on a key expression.
type DeclareToken struct {
	ID       uint32
	WireExpr WireExpr
	Mapping  Mapping
}

// UndeclareToken removes a liveliness token.
type UndeclareToken struct {
	ID uint32
}

func (DeclareKeyExpr) isDeclareBody()      {}
func (UndeclareKeyExpr) isDeclareBody()    {}
func (DeclareSubscriber) isDeclareBody()   {}
func (UndeclareSubscriber) isDeclareBody() {}
func (DeclareQueryable) isDeclareBody()    {}
func (UndeclareQueryable) isDeclareBody()  {}
func (DeclareToken) isDeclareBody()        {}
func (UndeclareToken) isDeclareBody()      {}

// Reliability is the delivery guarantee a subscriber asks for.
type Reliability uint8

const (
	ReliabilityBestEffort Reliability = 0
	ReliabilityReliable   Reliability = 1
)

// String returns the reliability name.
func (r Reliability) String() string {
	switch r {
	case ReliabilityBestEffort:
		return "BEST_EFFORT"
	case ReliabilityReliable:
		return "RELIABLE"
	default:
		return "UNKNOWN"
	}
}

// SubscriberInfo is the capability extension of DeclareSubscriber. The
// zero value is the well-defined default; a default-valued info is omitted
// from the wire entirely.
type SubscriberInfo struct {
	Reliability Reliability
}

// IsDefault reports whether the info equals its wire default.
func (i SubscriberInfo) IsDefault() bool {
	return i == SubscriberInfo{}
}

func (i SubscriberInfo) z64() uint64 {
	return uint64(i.Reliability & 0b1)
}

func subscriberInfoFromZ64(v uint64) SubscriberInfo {
	return SubscriberInfo{Reliability: Reliability(v & 0b1)}
}

// QueryableInfo is the capability extension of DeclareQueryable. The zero
// value is the wire default.
type QueryableInfo struct {
	// Complete is non-zero when the queryable claims completeness over its
	// key expression.
	Complete uint8

	// Distance is the routing distance advertised for replies.
	Distance uint16
}

// IsDefault reports whether the info equals its wire default.
func (i QueryableInfo) IsDefault() bool {
	return i == QueryableInfo{}
}

func (i QueryableInfo) z64() uint64 {
	return uint64(i.Complete) | uint64(i.Distance)<<8
}

func queryableInfoFromZ64(v uint64) QueryableInfo {
	return QueryableInfo{
		Complete: uint8(v),
		Distance: uint16(v >> 8),
	}
}

// Declare is the envelope wrapping one declaration body. QoS defaults to
// DefaultQoS when absent on the wire; Timestamp is truly optional and nil
// means absent.
type Declare struct {
	QoS       QoS
	Timestamp *Timestamp
	Body      DeclareBody
}

// NewDeclare wraps body in an envelope with default QoS and no timestamp.
func NewDeclare(body DeclareBody) *Declare {
	return &Declare{QoS: DefaultQoS(), Body: body}
}

// EncodeDeclare writes the envelope header, its non-default extensions and
// the body. The body self-delimits via its own header, so it is the
// terminal, non-length-prefixed payload.
func EncodeDeclare(w *Writer, d *Declare) error {
	var exts []pendingExt
	if !d.QoS.IsDefault() {
		exts = append(exts, pendingExt{kind: extDeclareQoS, z64: d.QoS.z64()})
	}
	if d.Timestamp != nil {
		exts = append(exts, pendingExt{kind: extDeclareTimestamp, payload: encodeTimestamp(d.Timestamp)})
	}

	header := MidDeclare
	if len(exts) > 0 {
		header |= FlagZ
	}
	if err := w.WriteU8(header); err != nil {
		return err
	}
	if err := writeExtensions(w, exts); err != nil {
		return err
	}
	return EncodeDeclareBody(w, d.Body)
}

// DecodeDeclare reads one envelope.
func DecodeDeclare(r *Reader) (*Declare, error) {
	header, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	return decodeDeclare(r, header)
}

func decodeDeclare(r *Reader, header byte) (*Declare, error) {
	if MessageID(header) != MidDeclare {
		return nil, fmt.Errorf("%w: expected Declare (0x%02x), got 0x%02x", ErrInvalidHeader, MidDeclare, MessageID(header))
	}

	d := &Declare{QoS: DefaultQoS()}
	for more := HasFlag(header, FlagZ); more; {
		ext, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		switch ExtKind(ext) {
		case extDeclareQoS:
			var v uint64
			v, more, err = readExtZ64(r, ext)
			if err != nil {
				return nil, err
			}
			d.QoS = qosFromZ64(v)
		case extDeclareTimestamp:
			var buf []byte
			buf, more, err = readExtZBuf(r, ext)
			if err != nil {
				return nil, err
			}
			ts, err := decodeTimestamp(buf)
			if err != nil {
				return nil, err
			}
			d.Timestamp = &ts
		default:
			more, err = SkipExtension(r, ext)
			if err != nil {
				return nil, err
			}
		}
	}

	body, err := DecodeDeclareBody(r)
	if err != nil {
		return nil, err
	}
	d.Body = body
	return d, nil
}

// encodeTimestamp packs a timestamp for the ZBuf extension payload:
// varint NTP64 time, one byte of id length, then the id bytes.
func encodeTimestamp(ts *Timestamp) []byte {
	w := NewWriter()
	w.WriteVarint(ts.Time)
	w.WriteU8(byte(len(ts.ID)))
	w.WriteBytes(ts.ID[:])
	return w.Bytes()
}

func decodeTimestamp(buf []byte) (Timestamp, error) {
	r := NewReader(buf)
	t, err := r.ReadVarint()
	if err != nil {
		return Timestamp{}, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return Timestamp{}, err
	}
	idBytes, err := r.ReadBytes(int(n))
	if err != nil {
		return Timestamp{}, err
	}
	id, err := NodeIDFromBytes(idBytes)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Time: t, ID: id}, nil
}

// EncodeDeclareBody dispatches to the codec of the concrete body kind.
func EncodeDeclareBody(w *Writer, body DeclareBody) error {
	switch b := body.(type) {
	case DeclareKeyExpr:
		return encodeDeclareKeyExpr(w, b)
	case UndeclareKeyExpr:
		return encodeUndeclare(w, MidUndeclareKeyExpr, b.ID)
	case DeclareSubscriber:
		return encodeDeclareSubscriber(w, b)
	case UndeclareSubscriber:
		return encodeUndeclare(w, MidUndeclareSubscriber, b.ID)
	case DeclareQueryable:
		return encodeDeclareQueryable(w, b)
	case UndeclareQueryable:
		return encodeUndeclare(w, MidUndeclareQueryable, b.ID)
	case DeclareToken:
		return encodeDeclareToken(w, b)
	case UndeclareToken:
		return encodeUndeclare(w, MidUndeclareToken, b.ID)
	default:
		return fmt.Errorf("%w: unknown declaration body %T", ErrInvalidHeader, body)
	}
}

// DecodeDeclareBody reads the body header and dispatches on its id.
func DecodeDeclareBody(r *Reader) (DeclareBody, error) {
	header, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	switch MessageID(header) {
	case MidDeclareKeyExpr:
		return decodeDeclareKeyExpr(r, header)
	case MidUndeclareKeyExpr:
		id, err := decodeUndeclare(r, header, MidUndeclareKeyExpr)
		return UndeclareKeyExpr{ID: id}, err
	case MidDeclareSubscriber:
		return decodeDeclareSubscriber(r, header)
	case MidUndeclareSubscriber:
		id, err := decodeUndeclare(r, header, MidUndeclareSubscriber)
		return UndeclareSubscriber{ID: id}, err
	case MidDeclareQueryable:
		return decodeDeclareQueryable(r, header)
	case MidUndeclareQueryable:
		id, err := decodeUndeclare(r, header, MidUndeclareQueryable)
		return UndeclareQueryable{ID: id}, err
	case MidDeclareToken:
		return decodeDeclareToken(r, header)
	case MidUndeclareToken:
		id, err := decodeUndeclare(r, header, MidUndeclareToken)
		return UndeclareToken{ID: id}, err
	default:
		return nil, fmt.Errorf("%w: unknown declaration id 0x%02x", ErrInvalidHeader, MessageID(header))
	}
}

// DeclareKeyExpr

func encodeDeclareKeyExpr(w *Writer, x DeclareKeyExpr) error {
	header := MidDeclareKeyExpr
	if x.WireExpr.HasSuffix() {
		header |= FlagN
	}
	if err := w.WriteU8(header); err != nil {
		return err
	}
	if err := w.WriteVarint(uint64(x.ID)); err != nil {
		return err
	}
	return EncodeWireExpr(w, x.WireExpr, x.WireExpr.HasSuffix())
}

// DecodeDeclareKeyExpr reads one DeclareKeyExpr, rejecting any other kind.
func DecodeDeclareKeyExpr(r *Reader) (DeclareKeyExpr, error) {
	header, err := r.ReadU8()
	if err != nil {
		return DeclareKeyExpr{}, err
	}
	return decodeDeclareKeyExpr(r, header)
}

func decodeDeclareKeyExpr(r *Reader, header byte) (DeclareKeyExpr, error) {
	if MessageID(header) != MidDeclareKeyExpr {
		return DeclareKeyExpr{}, fmt.Errorf("%w: expected DeclareKeyExpr (0x%02x), got 0x%02x", ErrInvalidHeader, MidDeclareKeyExpr, MessageID(header))
	}
	id, err := r.ReadVarint()
	if err != nil {
		return DeclareKeyExpr{}, err
	}
	expr, err := DecodeWireExpr(r, HasFlag(header, FlagN))
	if err != nil {
		return DeclareKeyExpr{}, err
	}
	if HasFlag(header, FlagZ) {
		if err := SkipAllExtensions(r); err != nil {
			return DeclareKeyExpr{}, err
		}
	}
	return DeclareKeyExpr{ID: uint32(id), WireExpr: expr}, nil
}

// DeclareSubscriber

func encodeDeclareSubscriber(w *Writer, x DeclareSubscriber) error {
	var exts []pendingExt
	if !x.Info.IsDefault() {
		exts = append(exts, pendingExt{kind: extSubscriberInfo, z64: x.Info.z64()})
	}

	header := MidDeclareSubscriber
	if len(exts) > 0 {
		header |= FlagZ
	}
	if x.Mapping != MappingReceiver {
		header |= FlagM
	}
	if x.WireExpr.HasSuffix() {
		header |= FlagN
	}
	if err := w.WriteU8(header); err != nil {
		return err
	}
	if err := w.WriteVarint(uint64(x.ID)); err != nil {
		return err
	}
	if err := EncodeWireExpr(w, x.WireExpr, x.WireExpr.HasSuffix()); err != nil {
		return err
	}
	return writeExtensions(w, exts)
}

// DecodeDeclareSubscriber reads one DeclareSubscriber, rejecting any other
// kind.
func DecodeDeclareSubscriber(r *Reader) (DeclareSubscriber, error) {
	header, err := r.ReadU8()
	if err != nil {
		return DeclareSubscriber{}, err
	}
	return decodeDeclareSubscriber(r, header)
}

func decodeDeclareSubscriber(r *Reader, header byte) (DeclareSubscriber, error) {
	if MessageID(header) != MidDeclareSubscriber {
		return DeclareSubscriber{}, fmt.Errorf("%w: expected DeclareSubscriber (0x%02x), got 0x%02x", ErrInvalidHeader, MidDeclareSubscriber, MessageID(header))
	}
	id, err := r.ReadVarint()
	if err != nil {
		return DeclareSubscriber{}, err
	}
	expr, err := DecodeWireExpr(r, HasFlag(header, FlagN))
	if err != nil {
		return DeclareSubscriber{}, err
	}
	x := DeclareSubscriber{ID: uint32(id), WireExpr: expr, Mapping: mappingFromFlag(header)}

	for more := HasFlag(header, FlagZ); more; {
		ext, err := r.ReadU8()
		if err != nil {
			return DeclareSubscriber{}, err
		}
		switch ExtKind(ext) {
		case extSubscriberInfo:
			var v uint64
			v, more, err = readExtZ64(r, ext)
			if err != nil {
				return DeclareSubscriber{}, err
			}
			x.Info = subscriberInfoFromZ64(v)
		default:
			more, err = SkipExtension(r, ext)
			if err != nil {
				return DeclareSubscriber{}, err
			}
		}
	}
	return x, nil
}

// DeclareQueryable

func encodeDeclareQueryable(w *Writer, x DeclareQueryable) error {
	var exts []pendingExt
	if !x.Info.IsDefault() {
		exts = append(exts, pendingExt{kind: extQueryableInfo, z64: x.Info.z64()})
	}

	header := MidDeclareQueryable
	if len(exts) > 0 {
		header |= FlagZ
	}
	if x.Mapping != MappingReceiver {
		header |= FlagM
	}
	if x.WireExpr.HasSuffix() {
		header |= FlagN
	}
	if err := w.WriteU8(header); err != nil {
		return err
	}
	if err := w.WriteVarint(uint64(x.ID)); err != nil {
		return err
	}
	if err := EncodeWireExpr(w, x.WireExpr, x.WireExpr.HasSuffix()); err != nil {
		return err
	}
	return writeExtensions(w, exts)
}

// DecodeDeclareQueryable reads one DeclareQueryable, rejecting any other
// kind.
func DecodeDeclareQueryable(r *Reader) (DeclareQueryable, error) {
	header, err := r.ReadU8()
	if err != nil {
		return DeclareQueryable{}, err
	}
	return decodeDeclareQueryable(r, header)
}

func decodeDeclareQueryable(r *Reader, header byte) (DeclareQueryable, error) {
	if MessageID(header) != MidDeclareQueryable {
		return DeclareQueryable{}, fmt.Errorf("%w: expected DeclareQueryable (0x%02x), got 0x%02x", ErrInvalidHeader, MidDeclareQueryable, MessageID(header))
	}
	id, err := r.ReadVarint()
	if err != nil {
		return DeclareQueryable{}, err
	}
	expr, err := DecodeWireExpr(r, HasFlag(header, FlagN))
	if err != nil {
		return DeclareQueryable{}, err
	}
	x := DeclareQueryable{ID: uint32(id), WireExpr: expr, Mapping: mappingFromFlag(header)}

	for more := HasFlag(header, FlagZ); more; {
		ext, err := r.ReadU8()
		if err != nil {
			return DeclareQueryable{}, err
		}
		switch ExtKind(ext) {
		case extQueryableInfo:
			var v uint64
			v, more, err = readExtZ64(r, ext)
			if err != nil {
				return DeclareQueryable{}, err
			}
			x.Info = queryableInfoFromZ64(v)
		default:
			more, err = SkipExtension(r, ext)
			if err != nil {
				return DeclareQueryable{}, err
			}
		}
	}
	return x, nil
}

// DeclareToken

func encodeDeclareToken(w *Writer, x DeclareToken) error {
	header := MidDeclareToken
	if x.Mapping != MappingReceiver {
		header |= FlagM
	}
	if x.WireExpr.HasSuffix() {
		header |= FlagN
	}
	if err := w.WriteU8(header); err != nil {
		return err
	}
	if err := w.WriteVarint(uint64(x.ID)); err != nil {
		return err
	}
	return EncodeWireExpr(w, x.WireExpr, x.WireExpr.HasSuffix())
}

// DecodeDeclareToken reads one DeclareToken, rejecting any other kind.
func DecodeDeclareToken(r *Reader) (DeclareToken, error) {
	header, err := r.ReadU8()
	if err != nil {
		return DeclareToken{}, err
	}
	return decodeDeclareToken(r, header)
}

func decodeDeclareToken(r *Reader, header byte) (DeclareToken, error) {
	if MessageID(header) != MidDeclareToken {
		return DeclareToken{}, fmt.Errorf("%w: expected DeclareToken (0x%02x), got 0x%02x", ErrInvalidHeader, MidDeclareToken, MessageID(header))
	}
	id, err := r.ReadVarint()
	if err != nil {
		return DeclareToken{}, err
	}
	expr, err := DecodeWireExpr(r, HasFlag(header, FlagN))
	if err != nil {
		return DeclareToken{}, err
	}
	if HasFlag(header, FlagZ) {
		if err := SkipAllExtensions(r); err != nil {
			return DeclareToken{}, err
		}
	}
	return DeclareToken{ID: uint32(id), WireExpr: expr, Mapping: mappingFromFlag(header)}, nil
}

// Undeclare* variants carry only the id. They declare no extensions of
// their own but still honor the Z flag via the generic skip path.

func encodeUndeclare(w *Writer, mid byte, id uint32) error {
	if err := w.WriteU8(mid); err != nil {
		return err
	}
	return w.WriteVarint(uint64(id))
}

func decodeUndeclare(r *Reader, header, mid byte) (uint32, error) {
	if MessageID(header) != mid {
		return 0, fmt.Errorf("%w: expected undeclare id 0x%02x, got 0x%02x", ErrInvalidHeader, mid, MessageID(header))
	}
	id, err := r.ReadVarint()
	if err != nil {
		return 0, err
	}
	if HasFlag(header, FlagZ) {
		if err := SkipAllExtensions(r); err != nil {
			return 0, err
		}
	}
	return uint32(id), nil
}

// mappingFromFlag derives the id mapping from the M flag.
func mappingFromFlag(header byte) Mapping {
	if HasFlag(header, FlagM) {
		return MappingSender
	}
	return MappingReceiver
}
