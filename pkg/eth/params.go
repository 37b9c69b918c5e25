// Package eth implements Ethereum public key requests and single-shot
// legacy transaction signing.
package eth

import (
	"fmt"

	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
)

// WeiDecimals is the number of decimals of one ether in wei.
const WeiDecimals = 18

type Params struct {
	Coin      types.EthCoin
	Name      string
	Unit      string
	ChainID   config.ChainId
	Bip44Coin uint32 // hardened
}

var ErrUnknownCoin = fmt.Errorf("%w: unknown coin", errkind.InvalidInput)

var (
	paramsMainnet = &Params{
		Coin:      types.EthCoinMainnet,
		Name:      "Ethereum",
		Unit:      "ETH",
		ChainID:   config.ChainId_EthereumMainnet,
		Bip44Coin: 60 + util.Hardened,
	}
	paramsSepolia = &Params{
		Coin:      types.EthCoinSepolia,
		Name:      "Sepolia",
		Unit:      "SEPETH",
		ChainID:   config.ChainId_EthereumSepolia,
		Bip44Coin: 1 + util.Hardened,
	}
)

func ParamsFor(coin types.EthCoin) (*Params, error) {
	switch coin {
	case types.EthCoinMainnet:
		return paramsMainnet, nil
	case types.EthCoinSepolia:
		return paramsSepolia, nil
	default:
		return nil, ErrUnknownCoin
	}
}
