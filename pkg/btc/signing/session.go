package signing

import (
	"github.com/Layr-Labs/hww-signer-go/pkg/btc"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

// State is the phase of the signing state machine.
type State int

const (
	StateIdle State = iota
	StateInitialized
	StateCollectingInputs
	StateCollectingOutputs
	StateReadyToFinalize
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialized:
		return "initialized"
	case StateCollectingInputs:
		return "collecting_inputs"
	case StateCollectingOutputs:
		return "collecting_outputs"
	case StateReadyToFinalize:
		return "ready_to_finalize"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Active reports whether a session exists in s.
func (s State) Active() bool {
	switch s {
	case StateInitialized, StateCollectingInputs, StateCollectingOutputs, StateReadyToFinalize:
		return true
	default:
		return false
	}
}

// transitions lists the forward moves. Aborting is allowed from every
// state and is not listed.
var transitions = map[State]map[State]struct{}{
	StateIdle:              {StateInitialized: {}},
	StateCompleted:         {StateInitialized: {}},
	StateAborted:           {StateInitialized: {}},
	StateInitialized:       {StateCollectingInputs: {}, StateCollectingOutputs: {}},
	StateCollectingInputs:  {StateCollectingInputs: {}, StateCollectingOutputs: {}},
	StateCollectingOutputs: {StateCollectingOutputs: {}, StateReadyToFinalize: {}},
	StateReadyToFinalize:   {StateCompleted: {}},
}

func canTransition(from, to State) bool {
	_, ok := transitions[from][to]
	return ok
}

// inputRecord is what finalize needs to sign one input.
type inputRecord struct {
	sighash btc.SighashInput
	keypath []uint32
}

// session is the data of one in-progress transaction. It is owned by a
// Machine and never shared.
type session struct {
	params     *btc.Params
	scriptType types.BtcScriptType
	account    []uint32
	locktime   uint32

	numInputs  uint32
	numOutputs uint32
	// step counts consumed inputs and outputs, inputs first.
	step uint32

	hasher *btc.Sighasher
	inputs []inputRecord
	spent  map[[btc.OutpointSize]byte]struct{}

	totalIn       uint64
	totalOut      uint64
	totalExternal uint64
}

func newSession(params *btc.Params, req *types.BtcSignInitRequest) *session {
	return &session{
		params:     params,
		scriptType: req.ScriptConfig.ScriptType,
		account:    append([]uint32(nil), req.ScriptConfig.Keypath...),
		locktime:   req.Locktime,
		numInputs:  req.NumInputs,
		numOutputs: req.NumOutputs,
		hasher:     btc.NewSighasher(req.Version, req.Locktime),
		inputs:     make([]inputRecord, 0, req.NumInputs),
		spent:      make(map[[btc.OutpointSize]byte]struct{}, req.NumInputs),
	}
}

// outputIndex is the index of the next expected output.
func (s *session) outputIndex() uint32 {
	return s.step - s.numInputs
}

// erase overwrites everything the session learned from the host.
func (s *session) erase() {
	for i := range s.inputs {
		s.inputs[i].sighash = btc.SighashInput{}
		clear(s.inputs[i].keypath)
	}
	clear(s.spent)
	clear(s.account)
	if s.hasher != nil {
		s.hasher.Reset()
	}
	*s = session{}
}
