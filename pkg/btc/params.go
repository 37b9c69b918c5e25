// Package btc implements the bitcoin-family pieces shared by public key
// requests and transaction signing: per-coin parameters, keypath rules,
// output scripts, addresses and the BIP143 signature hash.
package btc

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
)

// Params are the per-coin constants.
type Params struct {
	Coin      types.BtcCoin
	Name      string
	Unit      string
	Bip44Coin uint32 // hardened
	// Net carries address versions, the bech32 HRP and the xpub version.
	Net *chaincfg.Params
	// RBF is false for coins whose inputs must not signal replace-by-fee.
	RBF bool
}

var ErrUnknownCoin = fmt.Errorf("%w: unknown coin", errkind.InvalidInput)

var (
	litecoinMainNet = litecoinNet(chaincfg.MainNetParams, "litecoin", "ltc", 0x30, 0x32)
	litecoinTestNet = litecoinNet(chaincfg.TestNet3Params, "litecoin-testnet", "tltc", 0x6f, 0xc4)

	paramsBTC = &Params{
		Coin:      types.BtcCoinBTC,
		Name:      "Bitcoin",
		Unit:      "BTC",
		Bip44Coin: 0 + util.Hardened,
		Net:       &chaincfg.MainNetParams,
		RBF:       true,
	}
	paramsTBTC = &Params{
		Coin:      types.BtcCoinTBTC,
		Name:      "BTC Testnet",
		Unit:      "TBTC",
		Bip44Coin: 1 + util.Hardened,
		Net:       &chaincfg.TestNet3Params,
		RBF:       true,
	}
	paramsLTC = &Params{
		Coin:      types.BtcCoinLTC,
		Name:      "Litecoin",
		Unit:      "LTC",
		Bip44Coin: 2 + util.Hardened,
		Net:       litecoinMainNet,
		RBF:       false,
	}
	paramsTLTC = &Params{
		Coin:      types.BtcCoinTLTC,
		Name:      "LTC Testnet",
		Unit:      "TLTC",
		Bip44Coin: 1 + util.Hardened,
		Net:       litecoinTestNet,
		RBF:       false,
	}
)

// litecoinNet derives Litecoin address parameters from the bitcoin network
// of the same kind. Extended keys keep the bitcoin versions.
func litecoinNet(base chaincfg.Params, name, hrp string, p2pkh, p2sh byte) *chaincfg.Params {
	base.Name = name
	base.Bech32HRPSegwit = hrp
	base.PubKeyHashAddrID = p2pkh
	base.ScriptHashAddrID = p2sh
	return &base
}

// ParamsFor returns the parameters of coin.
func ParamsFor(coin types.BtcCoin) (*Params, error) {
	switch coin {
	case types.BtcCoinBTC:
		return paramsBTC, nil
	case types.BtcCoinTBTC:
		return paramsTBTC, nil
	case types.BtcCoinLTC:
		return paramsLTC, nil
	case types.BtcCoinTLTC:
		return paramsTLTC, nil
	default:
		return nil, ErrUnknownCoin
	}
}

// FormatAmount renders sats in the coin's unit.
func (p *Params) FormatAmount(sats uint64) string {
	return util.FormatSats(sats, p.Unit)
}
