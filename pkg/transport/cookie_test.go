package transport

import (
	"bytes"
	"errors"
	"testing"
)

func testCookieKey() []byte {
	key := make([]byte, cookieKeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestCookieSealOpen(t *testing.T) {
	key := testCookieKey()
	c := cookie{
		ZID:        []byte{0x01, 0x02, 0x03},
		Role:       2,
		Resolution: 0b1010,
		BatchSize:  16384,
		QoS:        true,
		Nonce:      0xdeadbeef,
	}

	sealed, err := sealCookie(key, c)
	if err != nil {
		t.Fatalf("sealCookie failed: %v", err)
	}

	got, err := openCookie(key, sealed)
	if err != nil {
		t.Fatalf("openCookie failed: %v", err)
	}
	if !bytes.Equal(got.ZID, c.ZID) || got.Role != c.Role || got.Resolution != c.Resolution ||
		got.BatchSize != c.BatchSize || got.QoS != c.QoS || got.Nonce != c.Nonce {
		t.Errorf("cookie mismatch: got %+v, want %+v", got, c)
	}
}

func TestCookieTamperedBody(t *testing.T) {
	key := testCookieKey()
	sealed, err := sealCookie(key, cookie{ZID: []byte{0xaa}, Nonce: 7})
	if err != nil {
		t.Fatalf("sealCookie failed: %v", err)
	}

	sealed[0] ^= 0x01
	if _, err := openCookie(key, sealed); !errors.Is(err, ErrCookieInvalid) {
		t.Errorf("expected ErrCookieInvalid, got %v", err)
	}
}

func TestCookieTamperedMAC(t *testing.T) {
	key := testCookieKey()
	sealed, err := sealCookie(key, cookie{ZID: []byte{0xaa}, Nonce: 7})
	if err != nil {
		t.Fatalf("sealCookie failed: %v", err)
	}

	sealed[len(sealed)-1] ^= 0x01
	if _, err := openCookie(key, sealed); !errors.Is(err, ErrCookieInvalid) {
		t.Errorf("expected ErrCookieInvalid, got %v", err)
	}
}

func TestCookieWrongKey(t *testing.T) {
	sealed, err := sealCookie(testCookieKey(), cookie{ZID: []byte{0xaa}})
	if err != nil {
		t.Fatalf("sealCookie failed: %v", err)
	}

	other := testCookieKey()
	other[0] ^= 0xff
	if _, err := openCookie(other, sealed); !errors.Is(err, ErrCookieInvalid) {
		t.Errorf("expected ErrCookieInvalid, got %v", err)
	}
}

func TestCookieTooShort(t *testing.T) {
	for _, n := range []int{0, 1, cookieMACSize} {
		if _, err := openCookie(testCookieKey(), make([]byte, n)); !errors.Is(err, ErrCookieInvalid) {
			t.Errorf("length %d: expected ErrCookieInvalid, got %v", n, err)
		}
	}
}
