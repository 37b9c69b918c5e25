package util

import (
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// Hardened is the BIP32 hardened derivation offset.
const Hardened = hdkeychain.HardenedKeyStart

// FormatKeypath renders a keypath as m/84'/0'/0'/0/5.
func FormatKeypath(keypath []uint32) string {
	var b strings.Builder
	b.WriteString("m")
	for _, el := range keypath {
		b.WriteByte('/')
		if el >= Hardened {
			b.WriteString(strconv.FormatUint(uint64(el-Hardened), 10))
			b.WriteByte('\'')
		} else {
			b.WriteString(strconv.FormatUint(uint64(el), 10))
		}
	}
	return b.String()
}

// ParseKeypath is the inverse of FormatKeypath. Both ' and h mark a
// hardened element.
func ParseKeypath(s string) ([]uint32, error) {
	s = strings.TrimSpace(s)
	if s != "m" && !strings.HasPrefix(s, "m/") {
		return nil, &KeypathError{Path: s, Reason: "must start with m/"}
	}
	if s == "m" {
		return []uint32{}, nil
	}
	parts := strings.Split(s[2:], "/")
	out := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		n, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, &KeypathError{Path: s, Reason: "invalid element " + strconv.Quote(part)}
		}
		el := uint32(n)
		if hardened {
			el += Hardened
		}
		out = append(out, el)
	}
	return out, nil
}

type KeypathError struct {
	Path   string
	Reason string
}

func (e *KeypathError) Error() string {
	return "invalid keypath " + strconv.Quote(e.Path) + ": " + e.Reason
}
