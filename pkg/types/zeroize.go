package types

// Zeroize overwrites every byte buffer held by r and resets all fields.
// Strings cannot be overwritten in place; no secret travels in a string
// field.
func (r *Request) Zeroize() {
	if r.BtcPub != nil {
		r.BtcPub.Zeroize()
	}
	if r.BtcSignInit != nil {
		r.BtcSignInit.Zeroize()
	}
	if r.BtcSignInput != nil {
		r.BtcSignInput.Zeroize()
	}
	if r.BtcSignOutput != nil {
		r.BtcSignOutput.Zeroize()
	}
	if r.BtcSignFinalize != nil {
		r.BtcSignFinalize.Zeroize()
	}
	if r.BtcSignAbort != nil {
		r.BtcSignAbort.Zeroize()
	}
	if r.ListBackups != nil {
		r.ListBackups.Zeroize()
	}
	if r.RestoreBackup != nil {
		r.RestoreBackup.Zeroize()
	}
	if r.CreateBackup != nil {
		r.CreateBackup.Zeroize()
	}
	if r.EthPub != nil {
		r.EthPub.Zeroize()
	}
	if r.EthSign != nil {
		r.EthSign.Zeroize()
	}
	if r.DeviceInfo != nil {
		r.DeviceInfo.Zeroize()
	}
	*r = Request{}
}

func wipe(b []byte) {
	clear(b)
}

func wipeKeypath(k []uint32) {
	clear(k)
}

func (r *BtcPubRequest) Zeroize() {
	wipeKeypath(r.Keypath)
	*r = BtcPubRequest{}
}

func (r *BtcSignInitRequest) Zeroize() {
	wipeKeypath(r.ScriptConfig.Keypath)
	*r = BtcSignInitRequest{}
}

func (r *BtcSignInputRequest) Zeroize() {
	wipe(r.PrevOutHash)
	wipeKeypath(r.Keypath)
	*r = BtcSignInputRequest{}
}

func (r *BtcSignOutputRequest) Zeroize() {
	wipe(r.Hash)
	wipeKeypath(r.Keypath)
	*r = BtcSignOutputRequest{}
}

func (r *BtcSignFinalizeRequest) Zeroize() {}

func (r *BtcSignAbortRequest) Zeroize() {}

func (r *ListBackupsRequest) Zeroize() {}

func (r *RestoreBackupRequest) Zeroize() {
	*r = RestoreBackupRequest{}
}

func (r *CreateBackupRequest) Zeroize() {
	*r = CreateBackupRequest{}
}

func (r *EthPubRequest) Zeroize() {
	wipeKeypath(r.Keypath)
	*r = EthPubRequest{}
}

func (r *EthSignRequest) Zeroize() {
	wipeKeypath(r.Keypath)
	wipe(r.Nonce)
	wipe(r.GasPrice)
	wipe(r.GasLimit)
	wipe(r.Recipient)
	wipe(r.Value)
	wipe(r.Data)
	*r = EthSignRequest{}
}

func (r *DeviceInfoRequest) Zeroize() {}
