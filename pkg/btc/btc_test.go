package btc

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/keystore"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	h            = 0x80000000
)

func newTestKeystore(t *testing.T) *keystore.KeyStore {
	t.Helper()
	ks := keystore.NewKeyStore(nil)
	require.NoError(t, ks.LoadMnemonic(testMnemonic, ""))
	return ks
}

func TestParamsFor(t *testing.T) {
	tests := []struct {
		coin  types.BtcCoin
		unit  string
		hrp   string
		p2pkh byte
		p2sh  byte
		bip44 uint32
		rbf   bool
	}{
		{types.BtcCoinBTC, "BTC", "bc", 0x00, 0x05, 0 + h, true},
		{types.BtcCoinTBTC, "TBTC", "tb", 0x6f, 0xc4, 1 + h, true},
		{types.BtcCoinLTC, "LTC", "ltc", 0x30, 0x32, 2 + h, false},
		{types.BtcCoinTLTC, "TLTC", "tltc", 0x6f, 0xc4, 1 + h, false},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			p, err := ParamsFor(tt.coin)
			require.NoError(t, err)
			assert.Equal(t, tt.unit, p.Unit)
			assert.Equal(t, tt.hrp, p.Net.Bech32HRPSegwit)
			assert.Equal(t, tt.p2pkh, p.Net.PubKeyHashAddrID)
			assert.Equal(t, tt.p2sh, p.Net.ScriptHashAddrID)
			assert.Equal(t, tt.bip44, p.Bip44Coin)
			assert.Equal(t, tt.rbf, p.RBF)
		})
	}

	_, err := ParamsFor(types.BtcCoin(77))
	assert.ErrorIs(t, err, ErrUnknownCoin)
	assert.Equal(t, errkind.InvalidInput, errkind.Of(err))
}

func TestLitecoinParamsDoNotTouchBitcoin(t *testing.T) {
	btc, err := ParamsFor(types.BtcCoinBTC)
	require.NoError(t, err)
	assert.Equal(t, "bc", btc.Net.Bech32HRPSegwit)
	assert.Equal(t, byte(0x00), btc.Net.PubKeyHashAddrID)
}

func TestValidateKeypaths(t *testing.T) {
	btcParams, _ := ParamsFor(types.BtcCoinBTC)

	assert.NoError(t, ValidateAccountKeypath(btcParams, types.ScriptP2WPKH, []uint32{84 + h, 0 + h, 0 + h}))
	assert.NoError(t, ValidateAccountKeypath(btcParams, types.ScriptP2WPKHP2SH, []uint32{49 + h, 0 + h, 5 + h}))

	bad := map[string][]uint32{
		"wrong purpose":      {49 + h, 0 + h, 0 + h},
		"wrong coin":         {84 + h, 1 + h, 0 + h},
		"unhardened account": {84 + h, 0 + h, 0},
		"account too large":  {84 + h, 0 + h, 100 + h},
		"too short":          {84 + h, 0 + h},
	}
	for name, kp := range bad {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateAccountKeypath(btcParams, types.ScriptP2WPKH, kp), ErrInvalidKeypath)
		})
	}

	account := []uint32{84 + h, 0 + h, 0 + h}
	assert.NoError(t, ValidateInAccount(btcParams, types.ScriptP2WPKH, account, []uint32{84 + h, 0 + h, 0 + h, 1, 9999}))
	assert.Error(t, ValidateInAccount(btcParams, types.ScriptP2WPKH, account, []uint32{84 + h, 0 + h, 1 + h, 0, 0}))
	assert.Error(t, ValidateInAccount(btcParams, types.ScriptP2WPKH, account, []uint32{84 + h, 0 + h, 0 + h, 2, 0}))
	assert.Error(t, ValidateInAccount(btcParams, types.ScriptP2WPKH, account, []uint32{84 + h, 0 + h, 0 + h, 0, 10000}))
}

func TestPkScriptAndAddress(t *testing.T) {
	btcParams, _ := ParamsFor(types.BtcCoinBTC)
	hash20 := bytes.Repeat([]byte{0x11}, 20)
	hash32 := bytes.Repeat([]byte{0x22}, 32)

	tests := []struct {
		name       string
		outputType types.BtcOutputType
		hash       []byte
		script     string
		class      txscript.ScriptClass
	}{
		{"p2pkh", types.OutputP2PKH, hash20, "76a914" + hex.EncodeToString(hash20) + "88ac", txscript.PubKeyHashTy},
		{"p2sh", types.OutputP2SH, hash20, "a914" + hex.EncodeToString(hash20) + "87", txscript.ScriptHashTy},
		{"p2wpkh", types.OutputP2WPKH, hash20, "0014" + hex.EncodeToString(hash20), txscript.WitnessV0PubKeyHashTy},
		{"p2wsh", types.OutputP2WSH, hash32, "0020" + hex.EncodeToString(hash32), txscript.WitnessV0ScriptHashTy},
		{"p2tr", types.OutputP2TR, hash32, "5120" + hex.EncodeToString(hash32), txscript.WitnessV1TaprootTy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := PkScript(tt.outputType, tt.hash)
			require.NoError(t, err)
			assert.Equal(t, tt.script, hex.EncodeToString(script))

			addr, err := Address(btcParams, tt.outputType, tt.hash)
			require.NoError(t, err)

			// the address must decode back to the same script
			decoded, err := btcutil.DecodeAddress(addr, btcParams.Net)
			require.NoError(t, err)
			fromAddr, err := txscript.PayToAddrScript(decoded)
			require.NoError(t, err)
			assert.Equal(t, script, fromAddr)
			assert.Equal(t, tt.class, txscript.GetScriptClass(script))
		})
	}

	_, err := PkScript(types.OutputP2WPKH, hash32)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	_, err = PkScript(types.BtcOutputType(9), hash20)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestLitecoinAddress(t *testing.T) {
	ltc, _ := ParamsFor(types.BtcCoinLTC)
	addr, err := Address(ltc, types.OutputP2WPKH, bytes.Repeat([]byte{0x01}, 20))
	require.NoError(t, err)
	assert.True(t, len(addr) > 4 && addr[:4] == "ltc1", addr)
}

// TestSighashMatchesBtcd computes BIP143 digests with the streaming hasher
// and compares them to btcd's own implementation over the same transaction.
func TestSighashMatchesBtcd(t *testing.T) {
	ks := newTestKeystore(t)

	keypaths := [][]uint32{
		{84 + h, 0 + h, 0 + h, 0, 0},
		{84 + h, 0 + h, 0 + h, 1, 3},
	}
	values := []uint64{100000, 250000}
	sequences := []uint32{0xfffffffd, 0xffffffff}

	tx := wire.NewMsgTx(2)
	tx.LockTime = 812345
	fetcher := txscript.NewMultiPrevOutFetcher(make(map[wire.OutPoint]*wire.TxOut))
	hasher := NewSighasher(2, 812345)

	var inputs []*SighashInput
	for i, kp := range keypaths {
		prevHash := bytes.Repeat([]byte{byte(i + 1)}, 32)
		op := Outpoint(prevHash, uint32(i*3))
		hasher.AddInput(op, sequences[i])

		pkh, err := PubKeyHash(ks, kp)
		require.NoError(t, err)
		inputs = append(inputs, &SighashInput{Outpoint: op, Value: values[i], Sequence: sequences[i], PubKeyHash: pkh})

		ch, err := chainhash.NewHash(prevHash)
		require.NoError(t, err)
		txIn := wire.NewTxIn(wire.NewOutPoint(ch, uint32(i*3)), nil, nil)
		txIn.Sequence = sequences[i]
		tx.AddTxIn(txIn)

		pkScript, err := PkScript(types.OutputP2WPKH, pkh[:])
		require.NoError(t, err)
		fetcher.AddPrevOut(txIn.PreviousOutPoint, wire.NewTxOut(int64(values[i]), pkScript))
	}

	outputs := []struct {
		t    types.BtcOutputType
		hash []byte
		v    uint64
	}{
		{types.OutputP2TR, bytes.Repeat([]byte{0xaa}, 32), 300000},
		{types.OutputP2PKH, bytes.Repeat([]byte{0xbb}, 20), 40000},
	}
	for _, o := range outputs {
		script, err := PkScript(o.t, o.hash)
		require.NoError(t, err)
		hasher.AddOutput(o.v, script)
		tx.AddTxOut(wire.NewTxOut(int64(o.v), script))
	}

	commitments := hasher.Commitments()
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	for i, in := range inputs {
		pkScript, err := PkScript(types.OutputP2WPKH, in.PubKeyHash[:])
		require.NoError(t, err)
		want, err := txscript.CalcWitnessSigHash(pkScript, sigHashes, txscript.SigHashAll, tx, i, int64(values[i]))
		require.NoError(t, err)
		assert.Equal(t, want, commitments.SigHash(in), "input %d", i)
	}
}

func TestPubService(t *testing.T) {
	ks := newTestKeystore(t)
	ctx := context.Background()

	t.Run("bip84 address", func(t *testing.T) {
		svc := NewPubService(ks, workflow.NewAutoConfirmer(true, nil), nil)
		resp, err := svc.Pub(ctx, &types.BtcPubRequest{
			Coin:       types.BtcCoinBTC,
			Keypath:    []uint32{84 + h, 0 + h, 0 + h, 0, 0},
			Kind:       types.PubAddress,
			ScriptType: types.ScriptP2WPKH,
			Display:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", resp.Pub)
	})

	t.Run("testnet xpub uses tpub version", func(t *testing.T) {
		svc := NewPubService(ks, workflow.NewAutoConfirmer(true, nil), nil)
		resp, err := svc.Pub(ctx, &types.BtcPubRequest{
			Coin:       types.BtcCoinTBTC,
			Keypath:    []uint32{84 + h, 1 + h, 0 + h},
			Kind:       types.PubXpub,
			ScriptType: types.ScriptP2WPKH,
		})
		require.NoError(t, err)
		assert.Equal(t, "tpub", resp.Pub[:4])
	})

	t.Run("rejected display", func(t *testing.T) {
		svc := NewPubService(ks, workflow.NewAutoConfirmer(false, nil), nil)
		_, err := svc.Pub(ctx, &types.BtcPubRequest{
			Coin:       types.BtcCoinBTC,
			Keypath:    []uint32{84 + h, 0 + h, 0 + h, 0, 0},
			Kind:       types.PubAddress,
			ScriptType: types.ScriptP2WPKH,
			Display:    true,
		})
		assert.Equal(t, errkind.UserAbort, errkind.Of(err))
	})

	t.Run("keypath for another coin", func(t *testing.T) {
		svc := NewPubService(ks, workflow.NewAutoConfirmer(true, nil), nil)
		_, err := svc.Pub(ctx, &types.BtcPubRequest{
			Coin:    types.BtcCoinLTC,
			Keypath: []uint32{84 + h, 0 + h, 0 + h, 0, 0},
			Kind:    types.PubAddress,
		})
		assert.Equal(t, errkind.InvalidInput, errkind.Of(err))
	})
}
