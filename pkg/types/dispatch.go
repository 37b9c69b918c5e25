package types

import (
	"context"
	"errors"
)

var (
	ErrNoVariant        = errors.New("request has no variant set")
	ErrMultipleVariants = errors.New("request has more than one variant set")
)

// Handler has one method per request variant. The return type of each
// method fixes which response variant the operation answers with.
type Handler interface {
	BtcPub(ctx context.Context, req *BtcPubRequest) (*PubResponse, error)
	BtcSignInit(ctx context.Context, req *BtcSignInitRequest) (*BtcSignNextResponse, error)
	BtcSignInput(ctx context.Context, req *BtcSignInputRequest) (*BtcSignNextResponse, error)
	BtcSignOutput(ctx context.Context, req *BtcSignOutputRequest) (*BtcSignNextResponse, error)
	BtcSignFinalize(ctx context.Context, req *BtcSignFinalizeRequest) (*BtcSignNextResponse, error)
	BtcSignAbort(ctx context.Context, req *BtcSignAbortRequest) (*SuccessResponse, error)
	ListBackups(ctx context.Context, req *ListBackupsRequest) (*ListBackupsResponse, error)
	RestoreBackup(ctx context.Context, req *RestoreBackupRequest) (*SuccessResponse, error)
	CreateBackup(ctx context.Context, req *CreateBackupRequest) (*SuccessResponse, error)
	EthPub(ctx context.Context, req *EthPubRequest) (*PubResponse, error)
	EthSign(ctx context.Context, req *EthSignRequest) (*EthSignResponse, error)
	DeviceInfo(ctx context.Context, req *DeviceInfoRequest) (*DeviceInfoResponse, error)
}

// Variant is implemented by every request payload.
type Variant interface {
	Operation() Operation
	// Capabilities lists the capabilities any one of which enables the
	// request. Empty means always enabled.
	Capabilities() []Capability
	Dispatch(ctx context.Context, h Handler) (*Response, error)
	Zeroize()
}

// Variant returns the single populated payload of r.
func (r *Request) Variant() (Variant, error) {
	var found Variant
	n := 0
	pick := func(set bool, v Variant) {
		if set {
			n++
			found = v
		}
	}
	pick(r.BtcPub != nil, r.BtcPub)
	pick(r.BtcSignInit != nil, r.BtcSignInit)
	pick(r.BtcSignInput != nil, r.BtcSignInput)
	pick(r.BtcSignOutput != nil, r.BtcSignOutput)
	pick(r.BtcSignFinalize != nil, r.BtcSignFinalize)
	pick(r.BtcSignAbort != nil, r.BtcSignAbort)
	pick(r.ListBackups != nil, r.ListBackups)
	pick(r.RestoreBackup != nil, r.RestoreBackup)
	pick(r.CreateBackup != nil, r.CreateBackup)
	pick(r.EthPub != nil, r.EthPub)
	pick(r.EthSign != nil, r.EthSign)
	pick(r.DeviceInfo != nil, r.DeviceInfo)

	switch n {
	case 0:
		return nil, ErrNoVariant
	case 1:
		return found, nil
	default:
		return nil, ErrMultipleVariants
	}
}

func (r *BtcPubRequest) Operation() Operation { return OpBtcPub }
func (r *BtcSignInitRequest) Operation() Operation { return OpBtcSignInit }
func (r *BtcSignInputRequest) Operation() Operation { return OpBtcSignInput }
func (r *BtcSignOutputRequest) Operation() Operation { return OpBtcSignOutput }
func (r *BtcSignFinalizeRequest) Operation() Operation { return OpBtcSignFinalize }
func (r *BtcSignAbortRequest) Operation() Operation { return OpBtcSignAbort }
func (r *ListBackupsRequest) Operation() Operation { return OpListBackups }
func (r *RestoreBackupRequest) Operation() Operation { return OpRestoreBackup }
func (r *CreateBackupRequest) Operation() Operation { return OpCreateBackup }
func (r *EthPubRequest) Operation() Operation { return OpEthPub }
func (r *EthSignRequest) Operation() Operation { return OpEthSign }
func (r *DeviceInfoRequest) Operation() Operation { return OpDeviceInfo }

var (
	btcFamily = []Capability{CapabilityBitcoin, CapabilityLitecoin}
	ethOnly   = []Capability{CapabilityEthereum}
	backup    = []Capability{CapabilityBackup}
)

func (r *BtcPubRequest) Capabilities() []Capability { return r.Coin.Capabilities() }
func (r *BtcSignInitRequest) Capabilities() []Capability { return r.Coin.Capabilities() }
func (r *BtcSignInputRequest) Capabilities() []Capability { return btcFamily }
func (r *BtcSignOutputRequest) Capabilities() []Capability { return btcFamily }
func (r *BtcSignFinalizeRequest) Capabilities() []Capability { return btcFamily }
func (r *BtcSignAbortRequest) Capabilities() []Capability { return btcFamily }
func (r *ListBackupsRequest) Capabilities() []Capability { return backup }
func (r *RestoreBackupRequest) Capabilities() []Capability { return backup }
func (r *CreateBackupRequest) Capabilities() []Capability { return backup }
func (r *EthPubRequest) Capabilities() []Capability { return ethOnly }
func (r *EthSignRequest) Capabilities() []Capability { return ethOnly }
func (r *DeviceInfoRequest) Capabilities() []Capability { return nil }

func (r *BtcPubRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.BtcPub(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{Pub: resp}, nil
}

func (r *BtcSignInitRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.BtcSignInit(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{BtcSignNext: resp}, nil
}

func (r *BtcSignInputRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.BtcSignInput(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{BtcSignNext: resp}, nil
}

func (r *BtcSignOutputRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.BtcSignOutput(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{BtcSignNext: resp}, nil
}

func (r *BtcSignFinalizeRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.BtcSignFinalize(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{BtcSignNext: resp}, nil
}

func (r *BtcSignAbortRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.BtcSignAbort(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{Success: resp}, nil
}

func (r *ListBackupsRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.ListBackups(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{ListBackups: resp}, nil
}

func (r *RestoreBackupRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.RestoreBackup(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{Success: resp}, nil
}

func (r *CreateBackupRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.CreateBackup(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{Success: resp}, nil
}

func (r *EthPubRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.EthPub(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{Pub: resp}, nil
}

func (r *EthSignRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.EthSign(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{EthSign: resp}, nil
}

func (r *DeviceInfoRequest) Dispatch(ctx context.Context, h Handler) (*Response, error) {
	resp, err := h.DeviceInfo(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Response{DeviceInfo: resp}, nil
}
