package eth

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

// transferSelector is the method id of transfer(address,uint256).
var transferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

type erc20Token struct {
	Unit     string
	Decimals int
}

var erc20Tokens = map[types.EthCoin]map[common.Address]erc20Token{
	types.EthCoinMainnet: {
		common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"): {Unit: "USDT", Decimals: 6},
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"): {Unit: "USDC", Decimals: 6},
		common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"): {Unit: "DAI", Decimals: 18},
	},
}

func lookupERC20(coin types.EthCoin, contract []byte) (erc20Token, bool) {
	token, ok := erc20Tokens[coin][common.BytesToAddress(contract)]
	return token, ok
}

// parseERC20 recognises a token transfer: no ether value and data of the
// form <a9059cbb><recipient zero padded to 32 bytes><non-zero value>.
func parseERC20(req *types.EthSignRequest) (common.Address, *big.Int, bool) {
	if len(req.Value) != 0 || len(req.Data) != 68 {
		return common.Address{}, nil, false
	}
	method, recipient, value := req.Data[:4], req.Data[4:36], req.Data[36:68]
	if !bytes.Equal(method, transferSelector) {
		return common.Address{}, nil, false
	}
	if !bytes.Equal(recipient[:12], make([]byte, 12)) {
		return common.Address{}, nil, false
	}
	amount := new(big.Int).SetBytes(value)
	if amount.Sign() == 0 {
		return common.Address{}, nil, false
	}
	return common.BytesToAddress(recipient[12:]), amount, true
}
