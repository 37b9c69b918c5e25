package commander

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/hww-signer-go/pkg/btc"
	"github.com/Layr-Labs/hww-signer-go/pkg/btc/signing"
	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/eth"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

var errBackupsUnavailable = fmt.Errorf("%w: no backup store configured", errkind.Disabled)

// api routes each request variant to its handler. The signing machine is
// only reachable from here.
type api struct {
	machine *signing.Machine
	btcPub  *btc.PubService
	eth     *eth.Service
	backups *workflow.BackupService
	seeded  func() bool

	deviceName   string
	version      string
	capabilities config.Capabilities
}

var _ types.Handler = (*api)(nil)

func (a *api) BtcPub(ctx context.Context, req *types.BtcPubRequest) (*types.PubResponse, error) {
	return a.btcPub.Pub(ctx, req)
}

func (a *api) BtcSignInit(ctx context.Context, req *types.BtcSignInitRequest) (*types.BtcSignNextResponse, error) {
	return a.machine.Advance(ctx, req)
}

func (a *api) BtcSignInput(ctx context.Context, req *types.BtcSignInputRequest) (*types.BtcSignNextResponse, error) {
	return a.machine.Advance(ctx, req)
}

func (a *api) BtcSignOutput(ctx context.Context, req *types.BtcSignOutputRequest) (*types.BtcSignNextResponse, error) {
	return a.machine.Advance(ctx, req)
}

func (a *api) BtcSignFinalize(ctx context.Context, req *types.BtcSignFinalizeRequest) (*types.BtcSignNextResponse, error) {
	return a.machine.Advance(ctx, req)
}

// BtcSignAbort succeeds whether or not a session was running.
func (a *api) BtcSignAbort(ctx context.Context, req *types.BtcSignAbortRequest) (*types.SuccessResponse, error) {
	a.machine.Abort()
	return &types.SuccessResponse{}, nil
}

func (a *api) ListBackups(ctx context.Context, req *types.ListBackupsRequest) (*types.ListBackupsResponse, error) {
	if a.backups == nil {
		return nil, errBackupsUnavailable
	}
	return a.backups.List(ctx)
}

func (a *api) RestoreBackup(ctx context.Context, req *types.RestoreBackupRequest) (*types.SuccessResponse, error) {
	if a.backups == nil {
		return nil, errBackupsUnavailable
	}
	return a.backups.Restore(ctx, req)
}

func (a *api) CreateBackup(ctx context.Context, req *types.CreateBackupRequest) (*types.SuccessResponse, error) {
	if a.backups == nil {
		return nil, errBackupsUnavailable
	}
	return a.backups.Create(ctx, req)
}

func (a *api) EthPub(ctx context.Context, req *types.EthPubRequest) (*types.PubResponse, error) {
	return a.eth.Pub(ctx, req)
}

func (a *api) EthSign(ctx context.Context, req *types.EthSignRequest) (*types.EthSignResponse, error) {
	return a.eth.Sign(ctx, req)
}

func (a *api) DeviceInfo(ctx context.Context, req *types.DeviceInfoRequest) (*types.DeviceInfoResponse, error) {
	return &types.DeviceInfoResponse{
		Name:         a.deviceName,
		Version:      a.version,
		Seeded:       a.seeded(),
		Capabilities: a.capabilities.List(),
	}, nil
}
