package transport

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Cookie sizing. The MAC is appended to the CBOR body.
const (
	cookieKeySize = 32
	cookieMACSize = 16
)

// ErrCookieInvalid indicates a cookie that fails authentication or decoding.
var ErrCookieInvalid = errors.New("invalid handshake cookie")

// cookie is the state the acceptor hands the opening peer inside InitAck
// and verifies when it returns in OpenSyn. It makes the accept side
// stateless between the two round trips.
type cookie struct {
	ZID        []byte `cbor:"1,keyasint"`
	Role       uint8  `cbor:"2,keyasint"`
	Resolution uint8  `cbor:"3,keyasint"`
	BatchSize  uint16 `cbor:"4,keyasint"`
	QoS        bool   `cbor:"5,keyasint"`
	Nonce      uint64 `cbor:"6,keyasint"`
}

var (
	cookieEncMode cbor.EncMode
	cookieDecMode cbor.DecMode
)

func init() {
	var err error

	opts := cbor.CoreDetEncOptions()
	cookieEncMode, err = opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create cookie CBOR encoder: %v", err))
	}

	cookieDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create cookie CBOR decoder: %v", err))
	}
}

// sealCookie serializes c and appends a keyed MAC over the body.
func sealCookie(key []byte, c cookie) ([]byte, error) {
	body, err := cookieEncMode.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cookie: %w", err)
	}
	mac, err := cookieMAC(key, body)
	if err != nil {
		return nil, err
	}
	return append(body, mac...), nil
}

// openCookie verifies the MAC and decodes the body. The comparison is
// constant-time.
func openCookie(key, sealed []byte) (cookie, error) {
	var c cookie
	if len(sealed) <= cookieMACSize {
		return c, ErrCookieInvalid
	}
	body := sealed[:len(sealed)-cookieMACSize]
	mac := sealed[len(sealed)-cookieMACSize:]

	expected, err := cookieMAC(key, body)
	if err != nil {
		return c, err
	}
	if subtle.ConstantTimeCompare(mac, expected) != 1 {
		return c, ErrCookieInvalid
	}
	if err := cookieDecMode.Unmarshal(body, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrCookieInvalid, err)
	}
	return c, nil
}

// cookieMAC computes a keyed BLAKE2b digest over body.
func cookieMAC(key, body []byte) ([]byte, error) {
	h, err := blake2b.New(cookieMACSize, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie MAC: %w", err)
	}
	h.Write(body)
	return h.Sum(nil), nil
}
