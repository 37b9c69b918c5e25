package eth

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

const (
	maxNumberLen = 16
	maxValueLen  = 32
	maxDataLen   = 1024
)

var ErrInvalidTransaction = fmt.Errorf("%w: invalid transaction", errkind.InvalidInput)

// Keystore is the part of the key store Ethereum operations need.
type Keystore interface {
	ExtendedPublicKey(keypath []uint32) (*hdkeychain.ExtendedKey, error)
	PublicKey(keypath []uint32) (*btcec.PublicKey, error)
	SignRecoverable(keypath []uint32, digest []byte) ([]byte, error)
}

// Service answers Ethereum requests.
type Service struct {
	keystore  Keystore
	confirmer workflow.Confirmer
	logger    *zap.Logger
}

func NewService(ks Keystore, confirmer workflow.Confirmer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{keystore: ks, confirmer: confirmer, logger: logger}
}

// Sign verifies a legacy transaction with the user and signs its EIP-155
// hash. The result is r || s || recid.
func (s *Service) Sign(ctx context.Context, req *types.EthSignRequest) (*types.EthSignResponse, error) {
	params, err := ParamsFor(req.Coin)
	if err != nil {
		return nil, err
	}
	if !isValidAddressKeypath(req.Keypath) {
		return nil, fmt.Errorf("%w: keypath %s", ErrInvalidTransaction, util.FormatKeypath(req.Keypath))
	}
	if err := warnUnusualKeypath(ctx, s.confirmer, params, req.Keypath); err != nil {
		return nil, err
	}
	if err := validateFields(req); err != nil {
		return nil, err
	}

	if recipient, amount, ok := parseERC20(req); ok {
		err = s.verifyERC20(ctx, req, params, recipient, amount)
	} else {
		err = s.verifyStandard(ctx, req, params)
	}
	if err != nil {
		return nil, err
	}

	hash, err := Sighash(req, params)
	if err != nil {
		return nil, err
	}
	defer clear(hash)

	sig, err := s.keystore.SignRecoverable(req.Keypath, hash)
	if err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("Signed Ethereum transaction", "chain_id", params.ChainID)
	return &types.EthSignResponse{Signature: sig}, nil
}

func validateFields(req *types.EthSignRequest) error {
	if len(req.Nonce) > maxNumberLen ||
		len(req.GasPrice) > maxNumberLen ||
		len(req.GasLimit) > maxNumberLen ||
		len(req.Value) > maxValueLen ||
		len(req.Data) > maxDataLen {
		return fmt.Errorf("%w: field too long", ErrInvalidTransaction)
	}
	for _, n := range [][]byte{req.Nonce, req.GasPrice, req.GasLimit, req.Value} {
		if len(n) > 0 && n[0] == 0 {
			return fmt.Errorf("%w: number with leading zero", ErrInvalidTransaction)
		}
	}
	if len(req.Recipient) != common.AddressLength {
		return fmt.Errorf("%w: recipient must be %d bytes", ErrInvalidTransaction, common.AddressLength)
	}
	// the zero address is reserved for contract creation
	if common.BytesToAddress(req.Recipient) == (common.Address{}) {
		return fmt.Errorf("%w: zero recipient", ErrInvalidTransaction)
	}
	return nil
}

func fee(req *types.EthSignRequest) *big.Int {
	gasPrice := new(big.Int).SetBytes(req.GasPrice)
	gasLimit := new(big.Int).SetBytes(req.GasLimit)
	return gasPrice.Mul(gasPrice, gasLimit)
}

// verifyERC20 shows a token transfer. Unknown tokens are shown without an
// amount because their decimals are not known.
func (s *Service) verifyERC20(ctx context.Context, req *types.EthSignRequest, params *Params, recipient common.Address, amount *big.Int) error {
	formattedFee := util.FormatAmount(fee(req), WeiDecimals, params.Unit)
	value, total := "Unknown token", "Unknown amount"
	if token, ok := lookupERC20(req.Coin, req.Recipient); ok {
		value = util.FormatAmount(amount, token.Decimals, token.Unit)
		// the fee is paid in ether, so the total is the token amount again
		total = value
	}
	if !s.confirmer.VerifyRecipient(ctx, recipient.Hex(), value) {
		return errkind.UserAbort
	}
	if !s.confirmer.VerifyTotalFee(ctx, total, formattedFee) {
		return errkind.UserAbort
	}
	return nil
}

// verifyStandard shows an ether transfer, with raw data screens first
// when the transaction calls an unknown contract.
func (s *Service) verifyStandard(ctx context.Context, req *types.EthSignRequest, params *Params) error {
	if len(req.Data) == 0 && len(req.Value) == 0 {
		return fmt.Errorf("%w: nothing transferred", ErrInvalidTransaction)
	}

	if len(req.Data) > 0 {
		screens := []workflow.ConfirmParams{
			{Title: "Unknown\ncontract", Body: "You will be shown\nthe raw\ntransaction data."},
			{Title: "Unknown\ncontract", Body: "Only proceed if you\nunderstand exactly\nwhat the data means."},
			{Title: "Transaction\ndata", Body: hex.EncodeToString(req.Data), Scrollable: true},
		}
		for _, screen := range screens {
			if !s.confirmer.Confirm(ctx, screen) {
				return errkind.UserAbort
			}
		}
	}

	value := new(big.Int).SetBytes(req.Value)
	recipient := common.BytesToAddress(req.Recipient)
	if !s.confirmer.VerifyRecipient(ctx, recipient.Hex(), util.FormatAmount(value, WeiDecimals, params.Unit)) {
		return errkind.UserAbort
	}

	txFee := fee(req)
	total := new(big.Int).Add(value, txFee)
	if !s.confirmer.VerifyTotalFee(ctx,
		util.FormatAmount(total, WeiDecimals, params.Unit),
		util.FormatAmount(txFee, WeiDecimals, params.Unit)) {
		return errkind.UserAbort
	}
	return nil
}

// Sighash returns keccak256(rlp([nonce, gasPrice, gasLimit, to, value,
// data, chainId, 0, 0])). The numeric fields are minimal big-endian byte
// strings, which RLP encodes exactly like the integers they denote.
func Sighash(req *types.EthSignRequest, params *Params) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes([]interface{}{
		req.Nonce,
		req.GasPrice,
		req.GasLimit,
		req.Recipient,
		req.Value,
		req.Data,
		uint64(params.ChainID),
		uint(0),
		uint(0),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	defer clear(encoded)
	return crypto.Keccak256(encoded), nil
}
