package btc

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// OutpointSize is a 32 byte transaction hash followed by a 4 byte index.
const OutpointSize = 36

// Outpoint serializes a previous output reference as it appears in a
// transaction. prevHash is in transaction byte order.
func Outpoint(prevHash []byte, index uint32) [OutpointSize]byte {
	var out [OutpointSize]byte
	copy(out[:32], prevHash)
	binary.LittleEndian.PutUint32(out[32:], index)
	return out
}

// Sighasher streams the BIP143 commitments over all inputs and outputs so
// that no full transaction is ever held in memory. Inputs must be added in
// transaction order before outputs, also in order.
type Sighasher struct {
	version  uint32
	locktime uint32

	prevouts  hash.Hash
	sequences hash.Hash
	outputs   hash.Hash
}

// SighashInput is what the per-input signature hash needs besides the
// streamed commitments.
type SighashInput struct {
	Outpoint   [OutpointSize]byte
	Value      uint64
	Sequence   uint32
	PubKeyHash [20]byte
}

func NewSighasher(version, locktime uint32) *Sighasher {
	return &Sighasher{
		version:   version,
		locktime:  locktime,
		prevouts:  sha256.New(),
		sequences: sha256.New(),
		outputs:   sha256.New(),
	}
}

func (s *Sighasher) AddInput(outpoint [OutpointSize]byte, sequence uint32) {
	s.prevouts.Write(outpoint[:])
	var seq [4]byte
	binary.LittleEndian.PutUint32(seq[:], sequence)
	s.sequences.Write(seq[:])
}

func (s *Sighasher) AddOutput(value uint64, pkScript []byte) {
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], value)
	s.outputs.Write(v[:])
	_ = wire.WriteVarBytes(s.outputs, 0, pkScript)
}

// Commitments closes the three streams. The Sighasher must not be fed
// afterwards.
func (s *Sighasher) Commitments() *Commitments {
	c := &Commitments{version: s.version, locktime: s.locktime}
	copy(c.hashPrevouts[:], chainhash.HashB(s.prevouts.Sum(nil)))
	copy(c.hashSequence[:], chainhash.HashB(s.sequences.Sum(nil)))
	copy(c.hashOutputs[:], chainhash.HashB(s.outputs.Sum(nil)))
	return c
}

// Reset drops all streamed data.
func (s *Sighasher) Reset() {
	s.prevouts.Reset()
	s.sequences.Reset()
	s.outputs.Reset()
	s.version, s.locktime = 0, 0
}

// Commitments are the finished hashPrevouts, hashSequence and hashOutputs
// of one transaction.
type Commitments struct {
	version      uint32
	locktime     uint32
	hashPrevouts [32]byte
	hashSequence [32]byte
	hashOutputs  [32]byte
}

// SigHash returns the SIGHASH_ALL digest for spending a P2WPKH (or
// P2SH-wrapped P2WPKH) input.
func (c *Commitments) SigHash(in *SighashInput) []byte {
	var buf bytes.Buffer
	le32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}

	le32(c.version)
	buf.Write(c.hashPrevouts[:])
	buf.Write(c.hashSequence[:])
	buf.Write(in.Outpoint[:])

	// scriptCode of a P2WPKH spend is the P2PKH script of the key hash
	buf.Write([]byte{0x19, txscript.OP_DUP, txscript.OP_HASH160, txscript.OP_DATA_20})
	buf.Write(in.PubKeyHash[:])
	buf.Write([]byte{txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG})

	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], in.Value)
	buf.Write(v[:])
	le32(in.Sequence)
	buf.Write(c.hashOutputs[:])
	le32(c.locktime)
	le32(uint32(txscript.SigHashAll))

	return chainhash.DoubleHashB(buf.Bytes())
}

// Zero clears the commitments.
func (c *Commitments) Zero() {
	*c = Commitments{}
}
