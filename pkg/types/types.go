package types

// Capability names a feature family that can be switched off on a device.
type Capability string

const (
	CapabilityBitcoin  Capability = "bitcoin"
	CapabilityLitecoin Capability = "litecoin"
	CapabilityEthereum Capability = "ethereum"
	CapabilityBackup   Capability = "backup"
)

// Operation identifies a request variant in logs and metrics.
type Operation string

const (
	OpBtcPub          Operation = "btc_pub"
	OpBtcSignInit     Operation = "btc_sign_init"
	OpBtcSignInput    Operation = "btc_sign_input"
	OpBtcSignOutput   Operation = "btc_sign_output"
	OpBtcSignFinalize Operation = "btc_sign_finalize"
	OpBtcSignAbort    Operation = "btc_sign_abort"
	OpListBackups     Operation = "list_backups"
	OpRestoreBackup   Operation = "restore_backup"
	OpCreateBackup    Operation = "create_backup"
	OpEthPub          Operation = "eth_pub"
	OpEthSign         Operation = "eth_sign"
	OpDeviceInfo      Operation = "device_info"
)

// BtcCoin selects one of the supported bitcoin-family networks.
type BtcCoin uint32

const (
	BtcCoinBTC BtcCoin = iota
	BtcCoinTBTC
	BtcCoinLTC
	BtcCoinTLTC
)

func (c BtcCoin) String() string {
	switch c {
	case BtcCoinBTC:
		return "btc"
	case BtcCoinTBTC:
		return "tbtc"
	case BtcCoinLTC:
		return "ltc"
	case BtcCoinTLTC:
		return "tltc"
	default:
		return "unknown"
	}
}

// Capabilities returns the capabilities any one of which enables the coin.
// Unknown coins report the whole bitcoin family so that a disabled device
// still answers Disabled and an enabled one rejects the coin as invalid.
func (c BtcCoin) Capabilities() []Capability {
	switch c {
	case BtcCoinBTC, BtcCoinTBTC:
		return []Capability{CapabilityBitcoin}
	case BtcCoinLTC, BtcCoinTLTC:
		return []Capability{CapabilityLitecoin}
	default:
		return []Capability{CapabilityBitcoin, CapabilityLitecoin}
	}
}

// BtcScriptType is the script type of the wallet's own inputs and change.
type BtcScriptType uint32

const (
	ScriptP2WPKH BtcScriptType = iota
	ScriptP2WPKHP2SH
)

// BtcOutputType is the script template of a transaction output.
type BtcOutputType uint32

const (
	OutputP2PKH BtcOutputType = iota
	OutputP2SH
	OutputP2WPKH
	OutputP2WSH
	OutputP2TR
)

// PubKind selects what a public key request returns.
type PubKind uint32

const (
	PubXpub PubKind = iota
	PubAddress
)

// EthCoin selects the Ethereum network a request is bound to.
type EthCoin uint32

const (
	EthCoinMainnet EthCoin = iota
	EthCoinSepolia
)

// NextType tells the host which signing step the device expects next.
type NextType uint32

const (
	NextInput NextType = iota
	NextOutput
	NextFinalize
	NextDone
)

func (t NextType) String() string {
	switch t {
	case NextInput:
		return "input"
	case NextOutput:
		return "output"
	case NextFinalize:
		return "finalize"
	case NextDone:
		return "done"
	default:
		return "unknown"
	}
}
