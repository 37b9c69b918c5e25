package util

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		value    string
		decimals int
		unit     string
		want     string
	}{
		{"0", 8, "BTC", "0 BTC"},
		{"5000", 8, "BTC", "0.00005 BTC"},
		{"150000000", 8, "BTC", "1.5 BTC"},
		{"2100000000000000", 8, "BTC", "21000000 BTC"},
		{"530564000000000000", 18, "ETH", "0.530564 ETH"},
		{"126000000000000", 18, "ETH", "0.000126 ETH"},
		{"1", 18, "", "0.000000000000000001"},
		{"-250", 2, "EUR", "-2.5 EUR"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			v, ok := new(big.Int).SetString(tt.value, 10)
			require.True(t, ok)
			assert.Equal(t, tt.want, FormatAmount(v, tt.decimals, tt.unit))
		})
	}
}

func TestFormatSats(t *testing.T) {
	assert.Equal(t, "0.0001 LTC", FormatSats(10000, "LTC"))
}

func TestKeypath(t *testing.T) {
	kp := []uint32{84 + Hardened, 1 + Hardened, Hardened, 1, 12}
	assert.Equal(t, "m/84'/1'/0'/1/12", FormatKeypath(kp))

	parsed, err := ParseKeypath("m/84'/1'/0h/1/12")
	require.NoError(t, err)
	assert.Equal(t, kp, parsed)

	root, err := ParseKeypath("m")
	require.NoError(t, err)
	assert.Empty(t, root)

	for _, bad := range []string{"", "84'/0'", "m/x", "m/2147483648", "m//1"} {
		_, err := ParseKeypath(bad)
		assert.Error(t, err, bad)
	}
}
