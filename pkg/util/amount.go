package util

import (
	"math/big"
	"strings"
)

// FormatAmount renders value/10^decimals with trailing zeros trimmed,
// followed by unit: FormatAmount(big.NewInt(150000000), 8, "BTC") is
// "1.5 BTC".
func FormatAmount(value *big.Int, decimals int, unit string) string {
	if value == nil {
		value = new(big.Int)
	}
	digits := new(big.Int).Abs(value).String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	whole := digits[:len(digits)-decimals]
	frac := strings.TrimRight(digits[len(digits)-decimals:], "0")

	var b strings.Builder
	if value.Sign() < 0 {
		b.WriteByte('-')
	}
	b.WriteString(whole)
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	if unit != "" {
		b.WriteByte(' ')
		b.WriteString(unit)
	}
	return b.String()
}

// FormatSats is FormatAmount for 8-decimal bitcoin-family amounts.
func FormatSats(sats uint64, unit string) string {
	return FormatAmount(new(big.Int).SetUint64(sats), 8, unit)
}
