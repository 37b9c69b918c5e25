package btc

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

var ErrInvalidOutput = fmt.Errorf("%w: invalid output", errkind.InvalidInput)

// HashSize returns the payload size an output type commits to.
func HashSize(outputType types.BtcOutputType) (int, error) {
	switch outputType {
	case types.OutputP2PKH, types.OutputP2SH, types.OutputP2WPKH:
		return 20, nil
	case types.OutputP2WSH, types.OutputP2TR:
		return 32, nil
	default:
		return 0, fmt.Errorf("%w: unknown output type %d", ErrInvalidOutput, outputType)
	}
}

// PkScript builds the scriptPubKey paying to hash under outputType.
func PkScript(outputType types.BtcOutputType, hash []byte) ([]byte, error) {
	size, err := HashSize(outputType)
	if err != nil {
		return nil, err
	}
	if len(hash) != size {
		return nil, fmt.Errorf("%w: expected %d byte payload, got %d", ErrInvalidOutput, size, len(hash))
	}

	b := txscript.NewScriptBuilder()
	switch outputType {
	case types.OutputP2PKH:
		b.AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).AddData(hash).
			AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG)
	case types.OutputP2SH:
		b.AddOp(txscript.OP_HASH160).AddData(hash).AddOp(txscript.OP_EQUAL)
	case types.OutputP2WPKH, types.OutputP2WSH:
		b.AddOp(txscript.OP_0).AddData(hash)
	case types.OutputP2TR:
		b.AddOp(txscript.OP_1).AddData(hash)
	}
	return b.Script()
}

// OwnOutput returns the output type and payload of the wallet's own script
// for pubKeyHash: P2WPKH directly, or P2SH over the P2WPKH program.
func OwnOutput(scriptType types.BtcScriptType, pubKeyHash []byte) (types.BtcOutputType, []byte, error) {
	switch scriptType {
	case types.ScriptP2WPKH:
		return types.OutputP2WPKH, pubKeyHash, nil
	case types.ScriptP2WPKHP2SH:
		redeem, err := PkScript(types.OutputP2WPKH, pubKeyHash)
		if err != nil {
			return 0, nil, err
		}
		return types.OutputP2SH, btcutil.Hash160(redeem), nil
	default:
		return 0, nil, fmt.Errorf("%w: unsupported script type %d", errkind.InvalidInput, scriptType)
	}
}

// Address renders the output as an address of p's network.
func Address(p *Params, outputType types.BtcOutputType, hash []byte) (string, error) {
	var (
		addr btcutil.Address
		err  error
	)
	switch outputType {
	case types.OutputP2PKH:
		addr, err = btcutil.NewAddressPubKeyHash(hash, p.Net)
	case types.OutputP2SH:
		addr, err = btcutil.NewAddressScriptHashFromHash(hash, p.Net)
	case types.OutputP2WPKH:
		addr, err = btcutil.NewAddressWitnessPubKeyHash(hash, p.Net)
	case types.OutputP2WSH:
		addr, err = btcutil.NewAddressWitnessScriptHash(hash, p.Net)
	case types.OutputP2TR:
		addr, err = btcutil.NewAddressTaproot(hash, p.Net)
	default:
		return "", fmt.Errorf("%w: unknown output type %d", ErrInvalidOutput, outputType)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return addr.EncodeAddress(), nil
}
