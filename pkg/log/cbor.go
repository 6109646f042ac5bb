package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Event streams are CBOR sequences: one deterministic, integer-keyed map
// per event, concatenated with no outer framing. Deterministic encoding
// keeps recorded streams byte-stable across runs of the same session;
// timestamps travel as RFC3339 with nanoseconds so replay keeps event
// ordering exact.
var (
	eventEnc cbor.EncMode
	eventDec cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano

	var err error
	if eventEnc, err = opts.EncMode(); err != nil {
		panic(fmt.Sprintf("event encoder mode: %v", err))
	}
	if eventDec, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(fmt.Sprintf("event decoder mode: %v", err))
	}
}

// EncodeEvent serializes one event.
func EncodeEvent(event Event) ([]byte, error) {
	return eventEnc.Marshal(event)
}

// DecodeEvent deserializes one event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDec.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder streams events to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return eventEnc.NewEncoder(w)
}

// NewDecoder streams events from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return eventDec.NewDecoder(r)
}
