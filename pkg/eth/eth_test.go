package eth

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/keystore"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testAddress  = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	h            = 0x80000000
)

var mainnetKeypath = []uint32{44 + h, 60 + h, 0 + h, 0, 0}

type recordingConfirmer struct {
	reject    bool
	confirms  []workflow.ConfirmParams
	recipient string
	amount    string
	total     string
	fee       string
}

func (c *recordingConfirmer) Confirm(_ context.Context, p workflow.ConfirmParams) bool {
	c.confirms = append(c.confirms, p)
	return !c.reject
}

func (c *recordingConfirmer) VerifyRecipient(_ context.Context, recipient, amount string) bool {
	c.recipient, c.amount = recipient, amount
	return !c.reject
}

func (c *recordingConfirmer) VerifyTotalFee(_ context.Context, total, fee string) bool {
	c.total, c.fee = total, fee
	return !c.reject
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func newTestService(t *testing.T, confirmer workflow.Confirmer) *Service {
	t.Helper()
	ks := keystore.NewKeyStore(nil)
	require.NoError(t, ks.LoadMnemonic(testMnemonic, ""))
	return NewService(ks, confirmer, nil)
}

func standardRequest(t *testing.T) *types.EthSignRequest {
	return &types.EthSignRequest{
		Coin:      types.EthCoinMainnet,
		Keypath:   append([]uint32(nil), mainnetKeypath...),
		Nonce:     mustHex(t, "1fdc"),
		GasPrice:  mustHex(t, "0165a0bc00"),
		GasLimit:  mustHex(t, "5208"),
		Recipient: mustHex(t, "04f264cf34440313b4a0192a352814fbe927b885"),
		Value:     mustHex(t, "075cf1259e9c4000"),
	}
}

func TestSign_StandardTransaction(t *testing.T) {
	confirmer := &recordingConfirmer{}
	svc := newTestService(t, confirmer)
	req := standardRequest(t)

	resp, err := svc.Sign(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Signature, 65)

	assert.Empty(t, confirmer.confirms)
	assert.Equal(t, "0x04F264Cf34440313B4A0192A352814FBe927b885", confirmer.recipient)
	assert.Equal(t, "0.530564 ETH", confirmer.amount)
	assert.Equal(t, "0.53069 ETH", confirmer.total)
	assert.Equal(t, "0.000126 ETH", confirmer.fee)

	// go-ethereum must agree on the hash and recover our address
	to := common.BytesToAddress(req.Recipient)
	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    0x1fdc,
		GasPrice: new(big.Int).SetBytes(req.GasPrice),
		Gas:      0x5208,
		To:       &to,
		Value:    new(big.Int).SetBytes(req.Value),
	})
	signer := gethtypes.NewEIP155Signer(big.NewInt(1))

	hash, err := Sighash(req, paramsMainnet)
	require.NoError(t, err)
	assert.Equal(t, signer.Hash(tx).Bytes(), hash)

	signed, err := tx.WithSignature(signer, resp.Signature)
	require.NoError(t, err)
	sender, err := gethtypes.Sender(signer, signed)
	require.NoError(t, err)
	assert.Equal(t, testAddress, sender.Hex())
}

func TestSign_DataShowsContractScreens(t *testing.T) {
	confirmer := &recordingConfirmer{}
	svc := newTestService(t, confirmer)
	req := standardRequest(t)
	req.Data = []byte("foo bar")

	_, err := svc.Sign(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, confirmer.confirms, 3)
	assert.Equal(t, "Unknown\ncontract", confirmer.confirms[0].Title)
	assert.Equal(t, "Unknown\ncontract", confirmer.confirms[1].Title)
	assert.Equal(t, "Transaction\ndata", confirmer.confirms[2].Title)
	assert.Equal(t, "666f6f20626172", confirmer.confirms[2].Body)
	assert.True(t, confirmer.confirms[2].Scrollable)
}

func TestSign_ERC20(t *testing.T) {
	confirmer := &recordingConfirmer{}
	svc := newTestService(t, confirmer)
	req := &types.EthSignRequest{
		Coin:      types.EthCoinMainnet,
		Keypath:   append([]uint32(nil), mainnetKeypath...),
		Nonce:     mustHex(t, "2367"),
		GasPrice:  mustHex(t, "027aca1a80"),
		GasLimit:  mustHex(t, "01d048"),
		Recipient: mustHex(t, "dac17f958d2ee523a2206206994597c13d831ec7"),
		Data: mustHex(t, "a9059cbb"+
			"000000000000000000000000e6ce0a092a99700cd4ccccbb1fedc39cf53e6330"+
			"000000000000000000000000000000000000000000000000000000000365c040"),
	}

	_, err := svc.Sign(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "0xE6CE0a092A99700CD4ccCcBb1fEDc39Cf53E6330", confirmer.recipient)
	assert.Equal(t, "57 USDT", confirmer.amount)
	assert.Equal(t, "57 USDT", confirmer.total)
	assert.Equal(t, "0.0012658164 ETH", confirmer.fee)
}

func TestSign_UnknownERC20(t *testing.T) {
	confirmer := &recordingConfirmer{}
	svc := newTestService(t, confirmer)
	req := standardRequest(t)
	req.Value = nil
	req.Data = mustHex(t, "a9059cbb"+
		"000000000000000000000000e6ce0a092a99700cd4ccccbb1fedc39cf53e6330"+
		"0000000000000000000000000000000000000000000000000000000000000001")

	_, err := svc.Sign(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Unknown token", confirmer.amount)
	assert.Equal(t, "Unknown amount", confirmer.total)
}

func TestSign_UnusualKeypath(t *testing.T) {
	confirmer := &recordingConfirmer{}
	svc := newTestService(t, confirmer)
	req := standardRequest(t)
	req.Coin = types.EthCoinSepolia

	_, err := svc.Sign(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, confirmer.confirms, 1)
	assert.Equal(t, "Sepolia", confirmer.confirms[0].Title)
	assert.Equal(t, "Unusual keypath warning: m/44'/60'/0'/0/0. Proceed only if you know what you are doing.", confirmer.confirms[0].Body)
	assert.Equal(t, "0.530564 SEPETH", confirmer.amount)
}

func TestSign_Invalid(t *testing.T) {
	tests := map[string]func(*types.EthSignRequest){
		"unknown coin":          func(r *types.EthSignRequest) { r.Coin = 5 },
		"bad keypath":           func(r *types.EthSignRequest) { r.Keypath = []uint32{44 + h, 60 + h, 0 + h, 0} },
		"nonce too long":        func(r *types.EthSignRequest) { r.Nonce = make([]byte, 17) },
		"value too long":        func(r *types.EthSignRequest) { r.Value = append([]byte{1}, make([]byte, 32)...) },
		"data too long":         func(r *types.EthSignRequest) { r.Data = make([]byte, 1025) },
		"leading zero nonce":    func(r *types.EthSignRequest) { r.Nonce = []byte{0, 1} },
		"leading zero gasprice": func(r *types.EthSignRequest) { r.GasPrice = []byte{0} },
		"leading zero value":    func(r *types.EthSignRequest) { r.Value = []byte{0, 5} },
		"short recipient":       func(r *types.EthSignRequest) { r.Recipient = r.Recipient[:19] },
		"zero recipient":        func(r *types.EthSignRequest) { r.Recipient = make([]byte, 20) },
		"nothing transferred":   func(r *types.EthSignRequest) { r.Value = nil },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(t, &recordingConfirmer{})
			req := standardRequest(t)
			mutate(req)
			_, err := svc.Sign(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, errkind.InvalidInput, errkind.Of(err))
		})
	}
}

func TestSign_Rejected(t *testing.T) {
	svc := newTestService(t, &recordingConfirmer{reject: true})
	_, err := svc.Sign(context.Background(), standardRequest(t))
	assert.Equal(t, errkind.UserAbort, errkind.Of(err))
}

func TestParseERC20(t *testing.T) {
	valid := append([]byte{0xa9, 0x05, 0x9c, 0xbb}, make([]byte, 12)...)
	valid = append(valid, []byte("abcdefghijklmnopqrst")...)
	valid = append(valid, make([]byte, 27)...)
	valid = append(valid, 0x55, 0, 0, 0, 0xff)
	require.Len(t, valid, 68)

	recipient, amount, ok := parseERC20(&types.EthSignRequest{Data: valid})
	require.True(t, ok)
	assert.Equal(t, common.BytesToAddress([]byte("abcdefghijklmnopqrst")), recipient)
	assert.Equal(t, big.NewInt(365072220415), amount)

	_, _, ok = parseERC20(&types.EthSignRequest{Data: valid, Value: []byte{1}})
	assert.False(t, ok, "ether value must be empty")

	badMethod := append([]byte{0xa8}, valid[1:]...)
	_, _, ok = parseERC20(&types.EthSignRequest{Data: badMethod})
	assert.False(t, ok)

	unpadded := append([]byte(nil), valid...)
	unpadded[15] = 'b'
	_, _, ok = parseERC20(&types.EthSignRequest{Data: unpadded})
	assert.False(t, ok)

	zeroValue := append(append([]byte(nil), valid[:36]...), make([]byte, 32)...)
	_, _, ok = parseERC20(&types.EthSignRequest{Data: zeroValue})
	assert.False(t, ok)
}

func TestPub(t *testing.T) {
	ctx := context.Background()

	t.Run("address", func(t *testing.T) {
		confirmer := &recordingConfirmer{}
		svc := newTestService(t, confirmer)
		resp, err := svc.Pub(ctx, &types.EthPubRequest{Keypath: mainnetKeypath, Kind: types.PubAddress, Display: true})
		require.NoError(t, err)
		assert.Equal(t, testAddress, resp.Pub)
		require.Len(t, confirmer.confirms, 1)
		assert.Equal(t, testAddress, confirmer.confirms[0].Body)
	})

	t.Run("xpub", func(t *testing.T) {
		svc := newTestService(t, &recordingConfirmer{})
		resp, err := svc.Pub(ctx, &types.EthPubRequest{Keypath: mainnetKeypath[:4], Kind: types.PubXpub})
		require.NoError(t, err)
		assert.Equal(t, "xpub", resp.Pub[:4])
	})

	t.Run("xpub cannot be displayed", func(t *testing.T) {
		svc := newTestService(t, &recordingConfirmer{})
		_, err := svc.Pub(ctx, &types.EthPubRequest{Keypath: mainnetKeypath[:4], Kind: types.PubXpub, Display: true})
		assert.Equal(t, errkind.InvalidInput, errkind.Of(err))
	})

	t.Run("rejected", func(t *testing.T) {
		svc := newTestService(t, &recordingConfirmer{reject: true})
		_, err := svc.Pub(ctx, &types.EthPubRequest{Keypath: mainnetKeypath, Kind: types.PubAddress, Display: true})
		assert.Equal(t, errkind.UserAbort, errkind.Of(err))
	})
}

func FuzzParseERC20(f *testing.F) {
	f.Add([]byte{}, []byte{})
	f.Add([]byte{}, make([]byte, 68))
	f.Fuzz(func(t *testing.T, value, data []byte) {
		recipient, amount, ok := parseERC20(&types.EthSignRequest{Value: value, Data: data})
		if ok {
			require.Len(t, data, 68)
			require.Empty(t, value)
			require.Positive(t, amount.Sign())
			require.Equal(t, data[16:36], recipient.Bytes())
		}
	})
}
