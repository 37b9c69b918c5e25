// Package errkind holds the closed set of failure kinds a device reports to
// the host, and the table mapping each kind to its wire code and message.
package errkind

import "errors"

// MaxMessageLen bounds the message carried in an error response.
const MaxMessageLen = 64

// Kind is a failure category. It implements error so collaborators can
// attach a kind to a wrapped error with fmt.Errorf("%w: ...", kind).
type Kind int

const (
	InvalidInput Kind = iota + 1
	Generic
	UserAbort
	InvalidState
	Disabled
	Duplicate
)

// All returns every kind, in table order.
func All() []Kind {
	return []Kind{InvalidInput, Generic, UserAbort, InvalidState, Disabled, Duplicate}
}

// Lookup returns the wire code and message for k. Unknown values fall back
// to the Generic entry so a response can always be built.
func Lookup(k Kind) (int32, string) {
	switch k {
	case InvalidInput:
		return 101, "invalid input"
	case Generic:
		return 103, "generic error"
	case UserAbort:
		return 104, "aborted by the user"
	case InvalidState:
		return 105, "can't call this endpoint: wrong state"
	case Disabled:
		return 106, "function disabled"
	case Duplicate:
		return 107, "duplicate entry"
	}
	return Lookup(Generic)
}

// Code returns the wire code of k.
func (k Kind) Code() int32 {
	code, _ := Lookup(k)
	return code
}

func (k Kind) Error() string {
	_, msg := Lookup(k)
	return msg
}

// Of returns the first Kind found in err's chain, or Generic.
func Of(err error) Kind {
	var k Kind
	if errors.As(err, &k) && k.valid() {
		return k
	}
	return Generic
}

func (k Kind) valid() bool {
	return k >= InvalidInput && k <= Duplicate
}

// Truncate bounds msg to MaxMessageLen bytes without splitting a UTF-8
// sequence.
func Truncate(msg string) string {
	if len(msg) <= MaxMessageLen {
		return msg
	}
	cut := MaxMessageLen
	for cut > 0 && msg[cut]&0xC0 == 0x80 {
		cut--
	}
	return msg[:cut]
}
