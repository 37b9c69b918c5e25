package errkind

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_CoversEveryKind(t *testing.T) {
	seen := make(map[int32]Kind)
	for _, k := range All() {
		code, msg := Lookup(k)
		require.NotZero(t, code, "kind %d has no code", k)
		require.NotEmpty(t, msg, "kind %d has no message", k)
		require.LessOrEqual(t, len(msg), MaxMessageLen)

		prev, dup := seen[code]
		require.False(t, dup, "code %d shared by kinds %d and %d", code, prev, k)
		seen[code] = k
	}
}

func TestLookup_KnownCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		code int32
		msg  string
	}{
		{InvalidInput, 101, "invalid input"},
		{Generic, 103, "generic error"},
		{UserAbort, 104, "aborted by the user"},
		{InvalidState, 105, "can't call this endpoint: wrong state"},
		{Disabled, 106, "function disabled"},
		{Duplicate, 107, "duplicate entry"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			code, msg := Lookup(tt.kind)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestLookup_UnknownFallsBackToGeneric(t *testing.T) {
	code, msg := Lookup(Kind(999))
	assert.Equal(t, int32(103), code)
	assert.Equal(t, "generic error", msg)
}

func TestOf(t *testing.T) {
	t.Run("nil error is generic", func(t *testing.T) {
		assert.Equal(t, Generic, Of(nil))
	})
	t.Run("plain error is generic", func(t *testing.T) {
		assert.Equal(t, Generic, Of(errors.New("disk on fire")))
	})
	t.Run("bare kind", func(t *testing.T) {
		assert.Equal(t, UserAbort, Of(UserAbort))
	})
	t.Run("wrapped kind", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", fmt.Errorf("%w: keystore is locked", InvalidState))
		assert.Equal(t, InvalidState, Of(err))
	})
	t.Run("invalid kind value", func(t *testing.T) {
		assert.Equal(t, Generic, Of(Kind(0)))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))

	long := strings.Repeat("a", MaxMessageLen+10)
	assert.Len(t, Truncate(long), MaxMessageLen)

	// multi-byte rune straddling the boundary is dropped whole
	s := strings.Repeat("a", MaxMessageLen-1) + "é"
	out := Truncate(s)
	assert.Equal(t, strings.Repeat("a", MaxMessageLen-1), out)
}
