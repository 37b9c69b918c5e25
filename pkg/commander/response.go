package commander

import (
	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

// buildError returns a response carrying only the error variant.
func buildError(kind errkind.Kind) *types.Response {
	code, msg := errkind.Lookup(kind)
	return &types.Response{
		Error: &types.ErrorResponse{Code: code, Message: errkind.Truncate(msg)},
	}
}

// buildSuccess passes through a handler result that has exactly one success
// variant set. Anything else is a handler defect and becomes Generic.
func buildSuccess(resp *types.Response) *types.Response {
	if resp == nil || resp.Error != nil || resp.Variants() != 1 {
		return buildError(errkind.Generic)
	}
	return resp
}
