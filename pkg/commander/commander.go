// Package commander is the device's request entry point. It decodes one
// request, checks the capability table, routes the request to its handler
// or to the signing machine and encodes exactly one response.
package commander

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/btc"
	"github.com/Layr-Labs/hww-signer-go/pkg/btc/signing"
	"github.com/Layr-Labs/hww-signer-go/pkg/codec"
	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/eth"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

// Keystore is what the handlers need from the key store.
type Keystore interface {
	btc.Keystore
	eth.Keystore
	IsSeeded() bool
}

// Config wires a Commander. Backups may be nil, in which case backup
// requests fail with Disabled even if the capability is on.
type Config struct {
	Codec        codec.Codec
	Capabilities config.Capabilities
	Limits       config.SigningLimits
	Keystore     Keystore
	Confirmer    workflow.Confirmer
	Backups      *workflow.BackupService
	DeviceName   string
	Version      string
	Registerer   prometheus.Registerer
}

// Commander serializes requests: Handle runs one call at a time, UI
// confirmations included.
type Commander struct {
	mu           sync.Mutex
	codec        codec.Codec
	capabilities config.Capabilities
	api          *api
	metrics      *Metrics
	logger       *zap.Logger
}

func NewCommander(cfg *Config, logger *zap.Logger) *Commander {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := NewMetrics(cfg.Registerer)

	machine := signing.NewMachine(cfg.Limits, cfg.Keystore, cfg.Confirmer, logger)
	machine.SetObserver(metrics)

	return &Commander{
		codec:        cfg.Codec,
		capabilities: cfg.Capabilities,
		api: &api{
			machine:      machine,
			btcPub:       btc.NewPubService(cfg.Keystore, cfg.Confirmer, logger),
			eth:          eth.NewService(cfg.Keystore, cfg.Confirmer, logger),
			backups:      cfg.Backups,
			seeded:       cfg.Keystore.IsSeeded,
			deviceName:   cfg.DeviceName,
			version:      cfg.Version,
			capabilities: cfg.Capabilities,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Handle processes one encoded request and returns the encoded response.
// Device errors are in-band; an error is returned only if not even an error
// response could be encoded. The decoded request is zeroized on every path.
func (c *Commander) Handle(ctx context.Context, in []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	req := &types.Request{}
	defer req.Zeroize()

	op, resp := c.process(ctx, in, req)

	out, err := c.codec.EncodeResponse(resp)
	if err != nil {
		c.logger.Sugar().Errorw("Failed to encode response", "operation", op, "error", err)
		resp = buildError(errkind.Generic)
		if out, err = c.codec.EncodeResponse(resp); err != nil {
			return nil, fmt.Errorf("failed to encode error response: %w", err)
		}
	}

	c.metrics.observe(op, resp, time.Since(start))
	return out, nil
}

func (c *Commander) process(ctx context.Context, in []byte, req *types.Request) (string, *types.Response) {
	if err := c.codec.DecodeRequest(in, req); err != nil {
		c.logger.Sugar().Debugw("Rejected undecodable request", "size", len(in), "error", err)
		return opUnknown, buildError(errkind.InvalidInput)
	}
	variant, err := req.Variant()
	if err != nil {
		c.logger.Sugar().Debugw("Rejected request", "error", err)
		return opUnknown, buildError(errkind.InvalidInput)
	}

	op := string(variant.Operation())
	if !c.enabled(variant.Capabilities()) {
		c.logger.Sugar().Infow("Request for disabled capability", "operation", op)
		return op, buildError(errkind.Disabled)
	}

	resp, err := variant.Dispatch(ctx, c.api)
	if err != nil {
		kind := errkind.Of(err)
		// collaborator detail stays in the log, the wire only carries the kind
		c.logger.Sugar().Infow("Request failed", "operation", op, "code", kind.Code(), "error", err)
		return op, buildError(kind)
	}
	c.logger.Sugar().Debugw("Request handled", "operation", op)
	return op, buildSuccess(resp)
}

// enabled reports whether any of required is on. An empty list is always
// enabled.
func (c *Commander) enabled(required []types.Capability) bool {
	if len(required) == 0 {
		return true
	}
	for _, capability := range required {
		if c.capabilities.Enabled(capability) {
			return true
		}
	}
	return false
}

// Reset is the device-level reset. It erases any signing session.
func (c *Commander) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.api.machine.Reset()
}

// SigningState reports the signing machine's phase.
func (c *Commander) SigningState() signing.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.api.machine.State()
}
