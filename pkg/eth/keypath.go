package eth

import (
	"context"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

const (
	purpose         = 44 + util.Hardened
	coinMainnet     = 60 + util.Hardened
	coinTestnet     = 1 + util.Hardened
	maxAddressIndex = 9999
)

// isValidXpubKeypath accepts m/44'/60'/0'/0 and m/44'/1'/0'/0.
func isValidXpubKeypath(keypath []uint32) bool {
	return len(keypath) == 4 &&
		keypath[0] == purpose &&
		(keypath[1] == coinMainnet || keypath[1] == coinTestnet) &&
		keypath[2] == util.Hardened &&
		keypath[3] == 0
}

// isValidAddressKeypath accepts the xpub keypaths followed by an index.
func isValidAddressKeypath(keypath []uint32) bool {
	return len(keypath) == 5 && isValidXpubKeypath(keypath[:4]) && keypath[4] <= maxAddressIndex
}

// warnUnusualKeypath asks for confirmation when keypath uses the coin type
// of another network than params.
func warnUnusualKeypath(ctx context.Context, confirmer workflow.Confirmer, params *Params, keypath []uint32) error {
	if len(keypath) >= 2 && keypath[1] == params.Bip44Coin {
		return nil
	}
	ok := confirmer.Confirm(ctx, workflow.ConfirmParams{
		Title:      params.Name,
		Body:       "Unusual keypath warning: " + util.FormatKeypath(keypath) + ". Proceed only if you know what you are doing.",
		Scrollable: true,
	})
	if !ok {
		return errkind.UserAbort
	}
	return nil
}
