// Package parser converts the JSON envelope wire format to structured types
// and vice-versa, including the hex-float number encoding used to keep
// frames small on the radio link.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToHexFloat encodes a float as an IEEE-754 single-precision value rendered
// as "0x" + 8 hex digits, big-endian byte order.
func ToHexFloat(f float64) string {
	return fmt.Sprintf("0x%08x", math.Float32bits(float32(f)))
}

// ToFloat decodes a hex float string produced by ToHexFloat (the "0x" prefix
// is optional, matching what vehicle firmware emits).
func ToFloat(hex string) (float64, error) {
	s := strings.TrimPrefix(hex, "0x")
	bits, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex float %q: %w", hex, err)
	}
	return float64(math.Float32frombits(uint32(bits))), nil
}

// IsHexFloat reports whether s looks like a hex float. At most 8 digits fit
// in a single-precision value; longer strings would fail to decode later.
func IsHexFloat(s string) bool {
	t := strings.TrimPrefix(s, "0x")
	if t == "" || len(t) > 8 {
		return false
	}
	for _, c := range t {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
