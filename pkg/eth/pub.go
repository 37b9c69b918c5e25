package eth

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

// Pub returns a checksummed address or the account xpub.
func (s *Service) Pub(ctx context.Context, req *types.EthPubRequest) (*types.PubResponse, error) {
	params, err := ParamsFor(req.Coin)
	if err != nil {
		return nil, err
	}

	switch req.Kind {
	case types.PubAddress:
		if !isValidAddressKeypath(req.Keypath) {
			return nil, fmt.Errorf("%w: invalid keypath %s", errkind.InvalidInput, util.FormatKeypath(req.Keypath))
		}
		if req.Display {
			if err := warnUnusualKeypath(ctx, s.confirmer, params, req.Keypath); err != nil {
				return nil, err
			}
		}
		pub, err := s.keystore.PublicKey(req.Keypath)
		if err != nil {
			return nil, err
		}
		address := crypto.PubkeyToAddress(*pub.ToECDSA()).Hex()
		if req.Display && !s.confirmer.Confirm(ctx, workflow.ConfirmParams{Title: params.Name, Body: address}) {
			return nil, errkind.UserAbort
		}
		return &types.PubResponse{Pub: address}, nil

	case types.PubXpub:
		if req.Display {
			return nil, fmt.Errorf("%w: xpubs cannot be displayed", errkind.InvalidInput)
		}
		if !isValidXpubKeypath(req.Keypath) {
			return nil, fmt.Errorf("%w: invalid keypath %s", errkind.InvalidInput, util.FormatKeypath(req.Keypath))
		}
		xpub, err := s.keystore.ExtendedPublicKey(req.Keypath)
		if err != nil {
			return nil, err
		}
		return &types.PubResponse{Pub: xpub.String()}, nil

	default:
		return nil, fmt.Errorf("%w: unknown pub kind %d", errkind.InvalidInput, req.Kind)
	}
}
