// Package normalize canonicalizes the heterogeneous numeric representations
// found in reports, settings files and workbook cells (hex strings, decimal
// strings, mixed case, zero padding, byte groups like "00 1A") into a single
// comparable form.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnparseable reports that a raw text held no recognizable hexadecimal or
// decimal integer token.
var ErrUnparseable = errors.New("no recognizable integer value")

// Format hints how a raw token should be interpreted when it is ambiguous.
type Format int

const (
	FormatAuto Format = iota // infer from prefix and digits
	FormatHex
	FormatDec
)

// Value is the canonical representation of a field value. Hex and Dec always
// render the same underlying integer, so equality is independent of leading
// zeros, case, and the original radix.
type Value struct {
	n   uint64
	Hex string
	Dec string
}

// Normalize canonicalizes a raw value text. Separators (spaces, dots, dashes,
// underscores) are stripped first; a 0x prefix or the presence of hex letters
// marks the token as hexadecimal, otherwise it is read as decimal unless the
// hint says hex. Normalizing an already-normalized rendering yields an equal
// Value.
func Normalize(raw string, hint Format) (Value, error) {
	token, isHex := tokenize(raw)
	if token == "" {
		return Value{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}

	base := 10
	switch {
	case hint == FormatHex, isHex && hint == FormatAuto:
		base = 16
	case hint == FormatDec && isHex:
		// Hex letters cannot be a decimal number.
		return Value{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}

	n, err := strconv.ParseUint(token, base, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}
	return fromInt(n), nil
}

// FromInt builds the canonical Value for an integer.
func FromInt(n uint64) Value {
	return fromInt(n)
}

func fromInt(n uint64) Value {
	return Value{
		n:   n,
		Hex: fmt.Sprintf("0x%X", n),
		Dec: strconv.FormatUint(n, 10),
	}
}

// Int returns the underlying integer value.
func (v Value) Int() uint64 { return v.n }

// Equal reports whether two values denote the same integer, regardless of
// their original representation.
func (v Value) Equal(o Value) bool { return v.n == o.n }

// tokenize strips separators and reports whether the remaining token must be
// hexadecimal (0x prefix or hex letters present). A token containing any
// letter outside a-f is rejected as empty.
func tokenize(raw string) (token string, isHex bool) {
	s := strings.TrimSpace(raw)
	if h, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		s, isHex = h, true
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			isHex = true
			b.WriteRune(r)
		case r >= 'g' && r <= 'z', r >= 'G' && r <= 'Z':
			// Not a number at all.
			return "", false
		case r == ' ', r == '.', r == '-', r == '_', r == ':', r == '\t':
			// separator
		default:
			return "", false
		}
	}
	return b.String(), isHex
}
