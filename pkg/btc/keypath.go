package btc

import (
	"fmt"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
)

const (
	purposeP2WPKHP2SH = 49 + util.Hardened
	purposeP2WPKH     = 84 + util.Hardened

	maxAccount      = 99
	maxAddressIndex = 9999
)

var ErrInvalidKeypath = fmt.Errorf("%w: invalid keypath", errkind.InvalidInput)

// Purpose returns the BIP44 purpose of a script type.
func Purpose(scriptType types.BtcScriptType) (uint32, error) {
	switch scriptType {
	case types.ScriptP2WPKH:
		return purposeP2WPKH, nil
	case types.ScriptP2WPKHP2SH:
		return purposeP2WPKHP2SH, nil
	default:
		return 0, fmt.Errorf("%w: unsupported script type %d", errkind.InvalidInput, scriptType)
	}
}

// ValidateAccountKeypath checks purpose'/coin'/account'.
func ValidateAccountKeypath(p *Params, scriptType types.BtcScriptType, keypath []uint32) error {
	purpose, err := Purpose(scriptType)
	if err != nil {
		return err
	}
	if len(keypath) != 3 ||
		keypath[0] != purpose ||
		keypath[1] != p.Bip44Coin ||
		keypath[2] < util.Hardened ||
		keypath[2] > util.Hardened+maxAccount {
		return fmt.Errorf("%w: %s is not a %s account", ErrInvalidKeypath, util.FormatKeypath(keypath), p.Name)
	}
	return nil
}

// ValidateAddressKeypath checks purpose'/coin'/account'/change/index.
func ValidateAddressKeypath(p *Params, scriptType types.BtcScriptType, keypath []uint32) error {
	if len(keypath) != 5 {
		return fmt.Errorf("%w: %s must have 5 elements", ErrInvalidKeypath, util.FormatKeypath(keypath))
	}
	if err := ValidateAccountKeypath(p, scriptType, keypath[:3]); err != nil {
		return err
	}
	change, index := keypath[3], keypath[4]
	if change > 1 || index > maxAddressIndex {
		return fmt.Errorf("%w: %s has an invalid change or index element", ErrInvalidKeypath, util.FormatKeypath(keypath))
	}
	return nil
}

// ValidateInAccount checks an address keypath and that it belongs to
// account.
func ValidateInAccount(p *Params, scriptType types.BtcScriptType, account, keypath []uint32) error {
	if err := ValidateAddressKeypath(p, scriptType, keypath); err != nil {
		return err
	}
	for i := range account {
		if keypath[i] != account[i] {
			return fmt.Errorf("%w: %s is outside account %s", ErrInvalidKeypath,
				util.FormatKeypath(keypath), util.FormatKeypath(account))
		}
	}
	return nil
}
