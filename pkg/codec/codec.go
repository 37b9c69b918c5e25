// Package codec turns host bytes into types.Request values and device
// responses back into bytes. Encoding is deterministic so identical
// responses are bit-identical; decoding rejects anything that is not
// exactly a well-formed request.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

// MaxMessageSize bounds a single encoded request or response.
const MaxMessageSize = 16 * 1024

// Codec is the device side of the wire format.
type Codec interface {
	// DecodeRequest fills req from data. req may be partially populated
	// when an error is returned and must still be zeroized by the caller.
	DecodeRequest(data []byte, req *types.Request) error
	EncodeResponse(resp *types.Response) ([]byte, error)
}

// CBOR implements Codec and its host-side counterpart with RFC 8949 core
// deterministic encoding and strict decoding.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec = (*CBOR)(nil)

// NewCBOR builds the encoder and decoder modes.
func NewCBOR() (*CBOR, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		TagsMd:            cbor.TagsForbidden,
		MaxNestedLevels:   8,
		MaxArrayElements:  1024,
		MaxMapPairs:       64,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build cbor decoder: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

// MustNewCBOR is NewCBOR for package-level wiring and tests.
func MustNewCBOR() *CBOR {
	c, err := NewCBOR()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *CBOR) DecodeRequest(data []byte, req *types.Request) error {
	if err := c.decode(data, req); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	return nil
}

func (c *CBOR) EncodeResponse(resp *types.Response) ([]byte, error) {
	out, err := c.enc.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return out, nil
}

// EncodeRequest is used by hosts.
func (c *CBOR) EncodeRequest(req *types.Request) ([]byte, error) {
	out, err := c.enc.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if len(out) > MaxMessageSize {
		return nil, fmt.Errorf("encoded request is %d bytes, limit is %d", len(out), MaxMessageSize)
	}
	return out, nil
}

// DecodeResponse is used by hosts.
func (c *CBOR) DecodeResponse(data []byte) (*types.Response, error) {
	var resp types.Response
	if err := c.decode(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

func (c *CBOR) decode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty message")
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message is %d bytes, limit is %d", len(data), MaxMessageSize)
	}
	// Unmarshal rejects trailing bytes after the first data item.
	return c.dec.Unmarshal(data, v)
}
