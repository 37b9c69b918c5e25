package client

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

// BtcTransaction is everything the host streams to the device for one
// signing session. Index fields of inputs and outputs are filled in by
// BtcSign.
type BtcTransaction struct {
	Coin         types.BtcCoin
	ScriptConfig types.BtcScriptConfig
	Version      uint32
	Locktime     uint32
	Inputs       []types.BtcSignInputRequest
	Outputs      []types.BtcSignOutputRequest
}

// BtcSign runs a signing session, answering each step the device asks for
// until it returns the signatures, one per input. On a host-side failure
// the session is aborted.
func (c *Client) BtcSign(ctx context.Context, tx *BtcTransaction) ([][]byte, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}

	next, err := c.signStep(ctx, &types.Request{BtcSignInit: &types.BtcSignInitRequest{
		Coin:         tx.Coin,
		ScriptConfig: tx.ScriptConfig,
		Version:      tx.Version,
		NumInputs:    uint32(len(tx.Inputs)),
		NumOutputs:   uint32(len(tx.Outputs)),
		Locktime:     tx.Locktime,
	}})
	if err != nil {
		return nil, err
	}

	// Every step is answered once; anything beyond that is a device bug.
	for steps := 0; steps <= len(tx.Inputs)+len(tx.Outputs)+1; steps++ {
		var req *types.Request
		switch next.Type {
		case types.NextInput:
			if int(next.Index) >= len(tx.Inputs) {
				return nil, c.abortWith(ctx, errors.Errorf("device asked for input %d of %d", next.Index, len(tx.Inputs)))
			}
			input := tx.Inputs[next.Index]
			input.Index = next.Index
			req = &types.Request{BtcSignInput: &input}
		case types.NextOutput:
			if int(next.Index) >= len(tx.Outputs) {
				return nil, c.abortWith(ctx, errors.Errorf("device asked for output %d of %d", next.Index, len(tx.Outputs)))
			}
			output := tx.Outputs[next.Index]
			output.Index = next.Index
			req = &types.Request{BtcSignOutput: &output}
		case types.NextFinalize:
			req = &types.Request{BtcSignFinalize: &types.BtcSignFinalizeRequest{}}
		case types.NextDone:
			if len(next.Signatures) != len(tx.Inputs) {
				return nil, errors.Errorf("device returned %d signatures for %d inputs", len(next.Signatures), len(tx.Inputs))
			}
			return next.Signatures, nil
		default:
			return nil, c.abortWith(ctx, errors.Errorf("unknown signing step %d", next.Type))
		}

		c.logger.Sugar().Debugw("Signing step", "step", next.Type.String(), "index", next.Index)
		if next, err = c.signStep(ctx, req); err != nil {
			return nil, err
		}
	}
	return nil, c.abortWith(ctx, errors.New("signing session did not complete"))
}

// AbortSigning cancels the device's signing session, if any.
func (c *Client) AbortSigning(ctx context.Context) error {
	resp, err := c.Query(ctx, &types.Request{BtcSignAbort: &types.BtcSignAbortRequest{}})
	if err != nil {
		return err
	}
	if resp.Success == nil {
		return unexpected("abort", resp)
	}
	return nil
}

func (c *Client) signStep(ctx context.Context, req *types.Request) (*types.BtcSignNextResponse, error) {
	resp, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.BtcSignNext == nil {
		return nil, c.abortWith(ctx, unexpected("signing step", resp))
	}
	return resp.BtcSignNext, nil
}

func (c *Client) abortWith(ctx context.Context, cause error) error {
	if err := c.AbortSigning(ctx); err != nil {
		c.logger.Sugar().Warnw("Failed to abort signing session", "error", err)
	}
	return cause
}
