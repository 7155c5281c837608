package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		hint    Format
		want    uint64
		wantErr bool
	}{
		{name: "Decimal", raw: "26", want: 26},
		{name: "Hex With Prefix", raw: "0x1A", want: 26},
		{name: "Hex Lowercase Prefix", raw: "0x0c", want: 12},
		{name: "Hex Letters No Prefix", raw: "FF", want: 255},
		{name: "Zero Padded Decimal", raw: "0012", want: 12},
		{name: "Zero Padded Hex", raw: "0x000FF", want: 255},
		{name: "Byte Group", raw: "00 1A", hint: FormatHex, want: 26},
		{name: "Dotted Separators", raw: "0.1.2", hint: FormatHex, want: 18},
		{name: "Hex Hint On Digits", raw: "12", hint: FormatHex, want: 18},
		{name: "Dec Hint On Digits", raw: "12", hint: FormatDec, want: 12},
		{name: "Whitespace Trimmed", raw: "  254 ", want: 254},
		{name: "Empty", raw: "", wantErr: true},
		{name: "Only Separators", raw: " - . ", wantErr: true},
		{name: "Prose", raw: "N/A", wantErr: true},
		{name: "Dec Hint On Hex Letters", raw: "FF", hint: FormatDec, wantErr: true},
		{name: "Overflow", raw: "0xFFFFFFFFFFFFFFFFF", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Normalize(tt.raw, tt.hint)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnparseable))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Int())
		})
	}
}

// Hex and decimal renderings of the same integer must compare equal.
func TestNormalize_HexDecEquivalence(t *testing.T) {
	for _, n := range []uint64{0, 1, 12, 26, 254, 255, 4096, 0xDEADBEEF} {
		v := FromInt(n)

		fromHex, err := Normalize(v.Hex, FormatAuto)
		require.NoError(t, err)
		fromDec, err := Normalize(v.Dec, FormatAuto)
		require.NoError(t, err)

		assert.True(t, fromHex.Equal(fromDec), "n=%d hex=%s dec=%s", n, v.Hex, v.Dec)
		assert.Equal(t, n, fromHex.Int())
		assert.Equal(t, n, fromDec.Int())
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"0x1A", "26", "00 1a", "0012", "FF"} {
		first, err := Normalize(raw, FormatAuto)
		require.NoError(t, err)

		again, err := Normalize(first.Hex, FormatAuto)
		require.NoError(t, err)

		assert.Equal(t, first, again, "raw=%q", raw)
	}
}

func TestValue_EqualIgnoresRepresentation(t *testing.T) {
	a, err := Normalize("0x1A", FormatAuto)
	require.NoError(t, err)
	b, err := Normalize("26", FormatAuto)
	require.NoError(t, err)
	c, err := Normalize("00000026", FormatDec)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(c))

	d, err := Normalize("27", FormatAuto)
	require.NoError(t, err)
	assert.False(t, a.Equal(d))
}
