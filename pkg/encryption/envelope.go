// Package encryption seals device backups under a passphrase.
//
// An envelope is laid out as
//
//	magic(4) | version(1) | time(4) | memoryKB(4) | threads(1) | salt(16) | nonce(24) | ciphertext
//
// The key is derived with argon2id and the payload is sealed with
// XChaCha20-Poly1305. The header is authenticated together with the
// caller's additional data.
package encryption

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	headerSize      = 4 + 1 + 4 + 4 + 1 + saltSize + chacha20poly1305.NonceSizeX
)

var envelopeMagic = []byte("HWWB")

var (
	ErrAuthFailed = errors.New("backup authentication failed")
	ErrInvalid    = errors.New("backup envelope is invalid")
)

// KDFParams are the argon2id cost parameters.
type KDFParams struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// DefaultKDFParams matches interactive use on a small device host.
var DefaultKDFParams = KDFParams{Time: 2, MemoryKB: 64 * 1024, Threads: 1}

// maxMemoryKB bounds what a stored envelope may ask us to allocate.
const maxMemoryKB = 1024 * 1024

// BackupEncryption seals and opens backup envelopes.
type BackupEncryption struct {
	params KDFParams
}

func NewBackupEncryption(params KDFParams) *BackupEncryption {
	return &BackupEncryption{params: params}
}

// Seal encrypts plaintext. additionalData is bound to the envelope and must
// be presented again to Open.
func (e *BackupEncryption) Seal(plaintext, passphrase, additionalData []byte) ([]byte, error) {
	if e.params.Time == 0 || e.params.MemoryKB == 0 || e.params.Threads == 0 {
		return nil, fmt.Errorf("invalid kdf parameters")
	}

	header := make([]byte, headerSize)
	copy(header, envelopeMagic)
	header[4] = envelopeVersion
	binary.BigEndian.PutUint32(header[5:9], e.params.Time)
	binary.BigEndian.PutUint32(header[9:13], e.params.MemoryKB)
	header[13] = e.params.Threads
	if _, err := rand.Read(header[14:]); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	salt, nonce := header[14:14+saltSize], header[14+saltSize:]

	key := deriveKey(passphrase, salt, e.params)
	defer clear(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aad := append(append([]byte{}, header...), additionalData...)
	return aead.Seal(header, nonce, plaintext, aad), nil
}

// Open decrypts an envelope produced by Seal. A wrong passphrase, wrong
// additional data or any tampering yields ErrAuthFailed.
func (e *BackupEncryption) Open(envelope, passphrase, additionalData []byte) ([]byte, error) {
	if len(envelope) < headerSize+chacha20poly1305.Overhead ||
		!bytes.Equal(envelope[:4], envelopeMagic) ||
		envelope[4] != envelopeVersion {
		return nil, ErrInvalid
	}
	params := KDFParams{
		Time:     binary.BigEndian.Uint32(envelope[5:9]),
		MemoryKB: binary.BigEndian.Uint32(envelope[9:13]),
		Threads:  envelope[13],
	}
	if params.Time == 0 || params.Time > 16 || params.MemoryKB == 0 || params.MemoryKB > maxMemoryKB || params.Threads == 0 {
		return nil, ErrInvalid
	}
	header := envelope[:headerSize]
	salt, nonce := header[14:14+saltSize], header[14+saltSize:]

	key := deriveKey(passphrase, salt, params)
	defer clear(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aad := append(append([]byte{}, header...), additionalData...)
	plaintext, err := aead.Open(nil, nonce, envelope[headerSize:], aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func deriveKey(passphrase, salt []byte, params KDFParams) []byte {
	return argon2.IDKey(passphrase, salt, params.Time, params.MemoryKB, params.Threads, chacha20poly1305.KeySize)
}
