package keystore

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
)

// MaxKeypathDepth bounds derivation requests from the host.
const MaxKeypathDepth = 10

var (
	// ErrLocked is returned by every key operation while no seed is loaded.
	ErrLocked = fmt.Errorf("%w: keystore is locked", errkind.InvalidState)

	ErrInvalidMnemonic = fmt.Errorf("%w: invalid mnemonic", errkind.InvalidInput)
	ErrInvalidKeypath  = fmt.Errorf("%w: invalid keypath", errkind.InvalidInput)
	ErrInvalidDigest   = fmt.Errorf("%w: digest must be 32 bytes", errkind.InvalidInput)
)

// KeyStore holds the wallet seed and provides thread-safe access to keys
// derived from it. Private keys never leave the KeyStore; callers get
// public keys and signatures.
type KeyStore struct {
	mu sync.RWMutex

	seed   []byte
	master *hdkeychain.ExtendedKey

	logger *zap.Logger
}

// NewKeyStore creates a new locked key store
func NewKeyStore(logger *zap.Logger) *KeyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyStore{logger: logger}
}

// GenerateMnemonic returns a fresh 24 word BIP39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	defer clear(entropy)
	return bip39.NewMnemonic(entropy)
}

// LoadMnemonic derives the BIP39 seed from mnemonic and passphrase and
// replaces the current seed.
func (ks *KeyStore) LoadMnemonic(mnemonic, passphrase string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	defer clear(seed)
	return ks.LoadSeed(seed)
}

// LoadSeed replaces the current seed with a copy of seed.
func (ks *KeyStore) LoadSeed(seed []byte) error {
	// Extended key serialization is network independent; the version bytes
	// are swapped per coin when an xpub is rendered.
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return fmt.Errorf("failed to derive master key: %w", err)
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.wipeLocked()
	ks.seed = append([]byte(nil), seed...)
	ks.master = master
	ks.logger.Sugar().Infow("Seed loaded")
	return nil
}

// Lock erases the seed and master key.
func (ks *KeyStore) Lock() {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.wipeLocked()
	ks.logger.Sugar().Infow("Keystore locked")
}

func (ks *KeyStore) wipeLocked() {
	clear(ks.seed)
	ks.seed = nil
	if ks.master != nil {
		ks.master.Zero()
		ks.master = nil
	}
}

// IsSeeded reports whether a seed is loaded.
func (ks *KeyStore) IsSeeded() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return ks.master != nil
}

// CopySeed returns a copy of the seed for backup encryption. The caller
// must clear it when done.
func (ks *KeyStore) CopySeed() ([]byte, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if ks.master == nil {
		return nil, ErrLocked
	}
	return append([]byte(nil), ks.seed...), nil
}

// withKey runs fn with the extended private key at keypath. Every key
// derived on the way, the final one included, is zeroed afterwards.
func (ks *KeyStore) withKey(keypath []uint32, fn func(key *hdkeychain.ExtendedKey) error) error {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if ks.master == nil {
		return ErrLocked
	}
	if len(keypath) > MaxKeypathDepth {
		return ErrInvalidKeypath
	}

	key := ks.master
	for _, el := range keypath {
		child, err := key.Derive(el)
		if key != ks.master {
			key.Zero()
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidKeypath, err)
		}
		key = child
	}
	if key != ks.master {
		defer key.Zero()
	}
	return fn(key)
}

// ExtendedPublicKey returns the neutered extended key at keypath.
func (ks *KeyStore) ExtendedPublicKey(keypath []uint32) (*hdkeychain.ExtendedKey, error) {
	var xpub *hdkeychain.ExtendedKey
	err := ks.withKey(keypath, func(key *hdkeychain.ExtendedKey) error {
		neutered, err := key.Neuter()
		if err != nil {
			return fmt.Errorf("failed to neuter key: %w", err)
		}
		// Neuter shares the chain code with the private key, which is
		// about to be zeroed. Round trip through the serialization to get
		// an independent copy.
		xpub, err = hdkeychain.NewKeyFromString(neutered.String())
		return err
	})
	if err != nil {
		return nil, err
	}
	return xpub, nil
}

// PublicKey returns the compressed secp256k1 public key at keypath.
func (ks *KeyStore) PublicKey(keypath []uint32) (*btcec.PublicKey, error) {
	var pub *btcec.PublicKey
	err := ks.withKey(keypath, func(key *hdkeychain.ExtendedKey) error {
		var err error
		pub, err = key.ECPubKey()
		return err
	})
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// SignDigest signs a 32 byte digest with the key at keypath and returns
// the 64 byte compact signature r || s with low s.
func (ks *KeyStore) SignDigest(keypath []uint32, digest []byte) ([]byte, error) {
	sig, err := ks.signCompact(keypath, digest)
	if err != nil {
		return nil, err
	}
	return sig[1:], nil
}

// SignRecoverable signs a 32 byte digest and returns r || s || recid,
// recid being 0 or 1.
func (ks *KeyStore) SignRecoverable(keypath []uint32, digest []byte) ([]byte, error) {
	sig, err := ks.signCompact(keypath, digest)
	if err != nil {
		return nil, err
	}
	// header byte is 27 + recid + 4 for compressed keys
	recid := sig[0] - 27 - 4
	out := make([]byte, 0, 65)
	out = append(out, sig[1:]...)
	return append(out, recid), nil
}

func (ks *KeyStore) signCompact(keypath []uint32, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidDigest
	}

	var sig []byte
	err := ks.withKey(keypath, func(key *hdkeychain.ExtendedKey) error {
		priv, err := key.ECPrivKey()
		if err != nil {
			return fmt.Errorf("failed to get private key: %w", err)
		}
		defer priv.Zero()

		sig, err = ecdsa.SignCompact(priv, digest, true)
		if err != nil {
			return fmt.Errorf("failed to sign: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// RootFingerprint returns the first four bytes of HASH160 of the master
// public key.
func (ks *KeyStore) RootFingerprint() ([]byte, error) {
	pub, err := ks.PublicKey(nil)
	if err != nil {
		return nil, err
	}
	return btcutil.Hash160(pub.SerializeCompressed())[:4], nil
}
