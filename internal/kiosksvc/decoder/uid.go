package decoder

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NormalizeUID turns a raw identifier read from a serial or NFC frame into a
// canonical hex string.
//
// Purely numeric input is converted to hex and byte-reversed, matching the
// little-endian UID convention of NFC readers. Hex-like input keeps whichever
// byte order yields the numerically larger value; the "larger value wins"
// tie-break has no hardware justification and exists only to favor the more
// common byte order observed in the field. Anything else is rejected.
func NormalizeUID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrDecode)
	}

	if isDecimal(raw) {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: numeric identifier out of range: %q", ErrDecode, raw)
		}
		return reverseBytePairs(toEvenHex(n)), nil
	}

	if isHex(raw) {
		h := strings.ToUpper(raw)
		if len(h)%2 != 0 {
			h = "0" + h
		}
		reversed := reverseBytePairs(h)
		if hexValue(reversed) > hexValue(h) {
			return reversed, nil
		}
		return h, nil
	}

	return "", fmt.Errorf("%w: identifier is neither decimal nor hex: %q", ErrDecode, raw)
}

// HashIdentifier maps a normalized hex UID to a stable UUIDv5 surrogate
// identifier for card formats the backend has no native key for.
func HashIdentifier(hexUID string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(hexUID)).String()
}

// CardUIDToDecimal converts the last four UID bytes to the fixed-width
// decimal form the card readers print: bytes are reversed (little-endian),
// read as a 32-bit value and zero padded to ten digits.
func CardUIDToDecimal(raw []byte) (string, error) {
	if len(raw) < 4 {
		return "", fmt.Errorf("%w: card UID shorter than 4 bytes", ErrDecode)
	}
	last := raw[len(raw)-4:]
	reversed := []byte{last[3], last[2], last[1], last[0]}
	value := binary.BigEndian.Uint32(reversed)
	return fmt.Sprintf("%010d", value), nil
}

func isDecimal(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func toEvenHex(n uint64) string {
	h := strings.ToUpper(strconv.FormatUint(n, 16))
	if len(h)%2 != 0 {
		h = "0" + h
	}
	return h
}

// reverseBytePairs reverses a hex string two characters at a time, i.e. it
// reverses the underlying byte order. Input must have even length.
func reverseBytePairs(h string) string {
	var b strings.Builder
	b.Grow(len(h))
	for i := len(h) - 2; i >= 0; i -= 2 {
		b.WriteString(h[i : i+2])
	}
	return b.String()
}

func hexValue(h string) uint64 {
	n, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return 0
	}
	return n
}
