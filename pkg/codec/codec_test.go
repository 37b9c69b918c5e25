package codec

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

func TestDecodeRequest(t *testing.T) {
	c := MustNewCBOR()

	t.Run("valid request", func(t *testing.T) {
		data, err := c.EncodeRequest(&types.Request{BtcSignInit: &types.BtcSignInitRequest{
			Coin:       types.BtcCoinTBTC,
			Version:    2,
			NumInputs:  2,
			NumOutputs: 1,
		}})
		require.NoError(t, err)

		var req types.Request
		require.NoError(t, c.DecodeRequest(data, &req))
		require.NotNil(t, req.BtcSignInit)
		assert.Equal(t, uint32(2), req.BtcSignInit.NumInputs)
		assert.Equal(t, types.BtcCoinTBTC, req.BtcSignInit.Coin)
	})

	t.Run("empty input", func(t *testing.T) {
		var req types.Request
		assert.Error(t, c.DecodeRequest(nil, &req))
	})

	t.Run("garbage", func(t *testing.T) {
		var req types.Request
		assert.Error(t, c.DecodeRequest([]byte{0xff, 0x00, 0x13}, &req))
	})

	t.Run("unknown variant key", func(t *testing.T) {
		data, err := cbor.Marshal(map[int]any{99: map[int]any{}})
		require.NoError(t, err)
		var req types.Request
		assert.Error(t, c.DecodeRequest(data, &req))
	})

	t.Run("unknown payload field", func(t *testing.T) {
		data, err := cbor.Marshal(map[int]any{12: map[int]any{1: "x"}})
		require.NoError(t, err)
		var req types.Request
		assert.Error(t, c.DecodeRequest(data, &req))
	})

	t.Run("trailing bytes", func(t *testing.T) {
		data, err := c.EncodeRequest(&types.Request{DeviceInfo: &types.DeviceInfoRequest{}})
		require.NoError(t, err)
		var req types.Request
		assert.Error(t, c.DecodeRequest(append(data, 0x00), &req))
	})

	t.Run("wrong field type", func(t *testing.T) {
		data, err := cbor.Marshal(map[int]any{3: map[int]any{1: "not a number"}})
		require.NoError(t, err)
		var req types.Request
		assert.Error(t, c.DecodeRequest(data, &req))
	})

	t.Run("oversized", func(t *testing.T) {
		var req types.Request
		assert.Error(t, c.DecodeRequest(make([]byte, MaxMessageSize+1), &req))
	})
}

func TestEncodeResponse_Deterministic(t *testing.T) {
	c := MustNewCBOR()
	resp := &types.Response{BtcSignNext: &types.BtcSignNextResponse{
		Type:       types.NextDone,
		Signatures: [][]byte{make([]byte, 64), make([]byte, 64)},
	}}

	a, err := c.EncodeResponse(resp)
	require.NoError(t, err)
	b, err := c.EncodeResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	decoded, err := c.DecodeResponse(a)
	require.NoError(t, err)
	require.NotNil(t, decoded.BtcSignNext)
	assert.Len(t, decoded.BtcSignNext.Signatures, 2)
	assert.Nil(t, decoded.Success)
}

func TestEncodeResponse_EmptyVariantIsPresent(t *testing.T) {
	c := MustNewCBOR()
	data, err := c.EncodeResponse(&types.Response{Success: &types.SuccessResponse{}})
	require.NoError(t, err)

	decoded, err := c.DecodeResponse(data)
	require.NoError(t, err)
	assert.NotNil(t, decoded.Success)
	assert.Equal(t, 1, decoded.Variants())
}

func FuzzDecodeRequest(f *testing.F) {
	c := MustNewCBOR()
	seed, _ := c.EncodeRequest(&types.Request{BtcSignInput: &types.BtcSignInputRequest{
		PrevOutHash: make([]byte, 32),
		Keypath:     []uint32{0x80000054, 0x80000000, 0x80000000, 0, 0},
	}})
	f.Add(seed)
	f.Add([]byte{0xa0})
	f.Add([]byte{0xa1, 0x0c, 0xa0})

	f.Fuzz(func(t *testing.T, data []byte) {
		var req types.Request
		if err := c.DecodeRequest(data, &req); err == nil {
			// any accepted message must survive a re-encode
			_, err := c.EncodeRequest(&req)
			require.NoError(t, err)
		}
		req.Zeroize()
		require.Equal(t, types.Request{}, req)
	})
}
