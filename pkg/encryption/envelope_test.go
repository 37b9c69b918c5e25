package encryption

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the tests fast
var testParams = KDFParams{Time: 1, MemoryKB: 64, Threads: 1}

func TestSealOpen(t *testing.T) {
	enc := NewBackupEncryption(testParams)
	seed := bytes.Repeat([]byte{0x42}, 64)

	sealed, err := enc.Seal(seed, []byte("passphrase"), []byte("backup-id"))
	require.NoError(t, err)
	assert.Len(t, sealed, headerSize+len(seed)+16)

	opened, err := enc.Open(sealed, []byte("passphrase"), []byte("backup-id"))
	require.NoError(t, err)
	assert.Equal(t, seed, opened)
}

func TestSeal_FreshSaltAndNonce(t *testing.T) {
	enc := NewBackupEncryption(testParams)
	a, err := enc.Seal([]byte("seed"), []byte("pw"), nil)
	require.NoError(t, err)
	b, err := enc.Seal([]byte("seed"), []byte("pw"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpen_Failures(t *testing.T) {
	enc := NewBackupEncryption(testParams)
	sealed, err := enc.Seal([]byte("seed"), []byte("pw"), []byte("id-1"))
	require.NoError(t, err)

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := enc.Open(sealed, []byte("other"), []byte("id-1"))
		assert.ErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("wrong additional data", func(t *testing.T) {
		_, err := enc.Open(sealed, []byte("pw"), []byte("id-2"))
		assert.ErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := append([]byte{}, sealed...)
		tampered[len(tampered)-1] ^= 0xff
		_, err := enc.Open(tampered, []byte("pw"), []byte("id-1"))
		assert.ErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("tampered header", func(t *testing.T) {
		tampered := append([]byte{}, sealed...)
		tampered[20] ^= 0xff
		_, err := enc.Open(tampered, []byte("pw"), []byte("id-1"))
		assert.ErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("bad magic", func(t *testing.T) {
		tampered := append([]byte{}, sealed...)
		tampered[0] = 'X'
		_, err := enc.Open(tampered, []byte("pw"), []byte("id-1"))
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("excessive memory cost", func(t *testing.T) {
		tampered := append([]byte{}, sealed...)
		tampered[9] = 0xff
		_, err := enc.Open(tampered, []byte("pw"), []byte("id-1"))
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := enc.Open(sealed[:headerSize], []byte("pw"), []byte("id-1"))
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestSeal_InvalidParams(t *testing.T) {
	_, err := NewBackupEncryption(KDFParams{}).Seal([]byte("seed"), []byte("pw"), nil)
	assert.Error(t, err)
}

func FuzzOpen(f *testing.F) {
	enc := NewBackupEncryption(testParams)
	sealed, err := enc.Seal([]byte("seed"), []byte("pw"), nil)
	require.NoError(f, err)
	f.Add(sealed)
	f.Add([]byte{})
	f.Add(envelopeMagic)

	f.Fuzz(func(t *testing.T, data []byte) {
		// keep fuzzed cost parameters cheap
		if len(data) >= 14 {
			data = append([]byte{}, data...)
			copy(data[5:14], sealed[5:14])
		}
		if bytes.Equal(data, sealed) {
			return
		}
		_, err := enc.Open(data, []byte("pw"), nil)
		require.Error(t, err)
	})
}
