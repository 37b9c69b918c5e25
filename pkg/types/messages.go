package types

// Request is the decoded form of one host message. Exactly one field is
// expected to be set; Variant enforces that.
type Request struct {
	BtcPub          *BtcPubRequest          `cbor:"1,keyasint,omitempty"`
	BtcSignInit     *BtcSignInitRequest     `cbor:"2,keyasint,omitempty"`
	BtcSignInput    *BtcSignInputRequest    `cbor:"3,keyasint,omitempty"`
	BtcSignOutput   *BtcSignOutputRequest   `cbor:"4,keyasint,omitempty"`
	BtcSignFinalize *BtcSignFinalizeRequest `cbor:"5,keyasint,omitempty"`
	BtcSignAbort    *BtcSignAbortRequest    `cbor:"6,keyasint,omitempty"`
	ListBackups     *ListBackupsRequest     `cbor:"7,keyasint,omitempty"`
	RestoreBackup   *RestoreBackupRequest   `cbor:"8,keyasint,omitempty"`
	CreateBackup    *CreateBackupRequest    `cbor:"9,keyasint,omitempty"`
	EthPub          *EthPubRequest          `cbor:"10,keyasint,omitempty"`
	EthSign         *EthSignRequest         `cbor:"11,keyasint,omitempty"`
	DeviceInfo      *DeviceInfoRequest      `cbor:"12,keyasint,omitempty"`
}

// BtcPubRequest asks for an xpub at an account keypath or an address at a
// full receive/change keypath.
type BtcPubRequest struct {
	Coin       BtcCoin       `cbor:"1,keyasint"`
	Keypath    []uint32      `cbor:"2,keyasint"`
	Kind       PubKind       `cbor:"3,keyasint"`
	ScriptType BtcScriptType `cbor:"4,keyasint"`
	Display    bool          `cbor:"5,keyasint"`
}

// BtcScriptConfig describes the account all inputs and change belong to.
type BtcScriptConfig struct {
	ScriptType BtcScriptType `cbor:"1,keyasint"`
	Keypath    []uint32      `cbor:"2,keyasint"`
}

type BtcSignInitRequest struct {
	Coin         BtcCoin         `cbor:"1,keyasint"`
	ScriptConfig BtcScriptConfig `cbor:"2,keyasint"`
	Version      uint32          `cbor:"3,keyasint"`
	NumInputs    uint32          `cbor:"4,keyasint"`
	NumOutputs   uint32          `cbor:"5,keyasint"`
	Locktime     uint32          `cbor:"6,keyasint"`
}

type BtcSignInputRequest struct {
	Index        uint32   `cbor:"1,keyasint"`
	PrevOutHash  []byte   `cbor:"2,keyasint"`
	PrevOutIndex uint32   `cbor:"3,keyasint"`
	PrevOutValue uint64   `cbor:"4,keyasint"`
	Sequence     uint32   `cbor:"5,keyasint"`
	Keypath      []uint32 `cbor:"6,keyasint"`
}

// BtcSignOutputRequest carries one output. Ours marks change paying back to
// the session account, in which case Keypath replaces Hash.
type BtcSignOutputRequest struct {
	Index   uint32        `cbor:"1,keyasint"`
	Ours    bool          `cbor:"2,keyasint"`
	Type    BtcOutputType `cbor:"3,keyasint"`
	Hash    []byte        `cbor:"4,keyasint"`
	Value   uint64        `cbor:"5,keyasint"`
	Keypath []uint32      `cbor:"6,keyasint"`
}

type BtcSignFinalizeRequest struct{}

type BtcSignAbortRequest struct{}

type ListBackupsRequest struct{}

type RestoreBackupRequest struct {
	ID string `cbor:"1,keyasint"`
}

type CreateBackupRequest struct {
	Name      string `cbor:"1,keyasint"`
	Timestamp uint32 `cbor:"2,keyasint"`
}

type EthPubRequest struct {
	Coin    EthCoin  `cbor:"1,keyasint"`
	Keypath []uint32 `cbor:"2,keyasint"`
	Kind    PubKind  `cbor:"3,keyasint"`
	Display bool     `cbor:"4,keyasint"`
}

// EthSignRequest is a legacy transaction. Numeric fields are big-endian
// byte strings without leading zeros, empty meaning zero.
type EthSignRequest struct {
	Coin      EthCoin  `cbor:"1,keyasint"`
	Keypath   []uint32 `cbor:"2,keyasint"`
	Nonce     []byte   `cbor:"3,keyasint"`
	GasPrice  []byte   `cbor:"4,keyasint"`
	GasLimit  []byte   `cbor:"5,keyasint"`
	Recipient []byte   `cbor:"6,keyasint"`
	Value     []byte   `cbor:"7,keyasint"`
	Data      []byte   `cbor:"8,keyasint"`
}

type DeviceInfoRequest struct{}

// Response is the device's answer to one Request. Exactly one field is set.
type Response struct {
	Success     *SuccessResponse     `cbor:"1,keyasint,omitempty"`
	Error       *ErrorResponse       `cbor:"2,keyasint,omitempty"`
	Pub         *PubResponse         `cbor:"3,keyasint,omitempty"`
	BtcSignNext *BtcSignNextResponse `cbor:"4,keyasint,omitempty"`
	ListBackups *ListBackupsResponse `cbor:"5,keyasint,omitempty"`
	EthSign     *EthSignResponse     `cbor:"6,keyasint,omitempty"`
	DeviceInfo  *DeviceInfoResponse  `cbor:"7,keyasint,omitempty"`
}

type SuccessResponse struct{}

type ErrorResponse struct {
	Code    int32  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
}

type PubResponse struct {
	Pub string `cbor:"1,keyasint"`
}

// BtcSignNextResponse names the next step the device wants. Signatures is
// only set with NextDone and holds one 64-byte signature per input.
type BtcSignNextResponse struct {
	Type       NextType `cbor:"1,keyasint"`
	Index      uint32   `cbor:"2,keyasint"`
	Signatures [][]byte `cbor:"3,keyasint,omitempty"`
}

type BackupInfo struct {
	ID        string `cbor:"1,keyasint"`
	Name      string `cbor:"2,keyasint"`
	Timestamp uint32 `cbor:"3,keyasint"`
}

type ListBackupsResponse struct {
	Backups []BackupInfo `cbor:"1,keyasint"`
}

// EthSignResponse holds r || s || recid.
type EthSignResponse struct {
	Signature []byte `cbor:"1,keyasint"`
}

type DeviceInfoResponse struct {
	Name         string       `cbor:"1,keyasint"`
	Version      string       `cbor:"2,keyasint"`
	Seeded       bool         `cbor:"3,keyasint"`
	Capabilities []Capability `cbor:"4,keyasint"`
}

// Variants returns how many fields of r are set.
func (r *Response) Variants() int {
	n := 0
	for _, set := range []bool{
		r.Success != nil,
		r.Error != nil,
		r.Pub != nil,
		r.BtcSignNext != nil,
		r.ListBackups != nil,
		r.EthSign != nil,
		r.DeviceInfo != nil,
	} {
		if set {
			n++
		}
	}
	return n
}
