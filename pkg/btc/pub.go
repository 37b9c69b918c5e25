package btc

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

// Keystore is the part of the key store bitcoin operations need.
type Keystore interface {
	ExtendedPublicKey(keypath []uint32) (*hdkeychain.ExtendedKey, error)
	PublicKey(keypath []uint32) (*btcec.PublicKey, error)
	SignDigest(keypath []uint32, digest []byte) ([]byte, error)
}

// PubKeyHash returns HASH160 of the compressed public key at keypath.
func PubKeyHash(ks Keystore, keypath []uint32) ([20]byte, error) {
	var out [20]byte
	pub, err := ks.PublicKey(keypath)
	if err != nil {
		return out, err
	}
	copy(out[:], btcutil.Hash160(pub.SerializeCompressed()))
	return out, nil
}

// PubService answers xpub and address requests.
type PubService struct {
	keystore  Keystore
	confirmer workflow.Confirmer
	logger    *zap.Logger
}

func NewPubService(ks Keystore, confirmer workflow.Confirmer, logger *zap.Logger) *PubService {
	return &PubService{keystore: ks, confirmer: confirmer, logger: logger}
}

func (s *PubService) Pub(ctx context.Context, req *types.BtcPubRequest) (*types.PubResponse, error) {
	params, err := ParamsFor(req.Coin)
	if err != nil {
		return nil, err
	}

	var (
		pub   string
		title string
	)
	switch req.Kind {
	case types.PubXpub:
		if pub, err = s.xpub(params, req); err != nil {
			return nil, err
		}
		title = params.Name + " account"
	case types.PubAddress:
		if pub, err = s.address(params, req); err != nil {
			return nil, err
		}
		title = params.Name
	default:
		return nil, fmt.Errorf("%w: unknown pub kind %d", errkind.InvalidInput, req.Kind)
	}

	if req.Display && !s.confirmer.Confirm(ctx, workflow.ConfirmParams{Title: title, Body: pub}) {
		return nil, errkind.UserAbort
	}
	return &types.PubResponse{Pub: pub}, nil
}

func (s *PubService) xpub(params *Params, req *types.BtcPubRequest) (string, error) {
	if err := ValidateAccountKeypath(params, req.ScriptType, req.Keypath); err != nil {
		return "", err
	}
	key, err := s.keystore.ExtendedPublicKey(req.Keypath)
	if err != nil {
		return "", err
	}
	versioned, err := key.CloneWithVersion(params.Net.HDPublicKeyID[:])
	if err != nil {
		return "", fmt.Errorf("failed to set xpub version: %w", err)
	}
	return versioned.String(), nil
}

func (s *PubService) address(params *Params, req *types.BtcPubRequest) (string, error) {
	if err := ValidateAddressKeypath(params, req.ScriptType, req.Keypath); err != nil {
		return "", err
	}
	hash, err := PubKeyHash(s.keystore, req.Keypath)
	if err != nil {
		return "", err
	}
	outputType, payload, err := OwnOutput(req.ScriptType, hash[:])
	if err != nil {
		return "", err
	}
	return Address(params, outputType, payload)
}
