// Package signing implements streamed bitcoin-family transaction signing.
package signing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/btc"
	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

/*
Machine signs one transaction at a time, streamed by the host as a series
of request/response round trips. The device never holds the full
transaction; it keeps the running BIP143 commitments, totals and one
compact record per input.

Protocol Flow:
  init(coin, script config, version, #inputs, #outputs, locktime)
    -> Next{input, 0}
  input(i) for i in 0..#inputs-1
    - index must equal i, keypath must be in the session account
    - outpoint must not repeat
    -> Next{input, i+1} or Next{output, 0} after the last input
  output(j) for j in 0..#outputs-1
    - external outputs are shown for confirmation
    - change outputs are derived from their keypath
    -> Next{output, j+1} or Next{finalize, 0} after the last output
  finalize
    - inputs must cover outputs, total and fee are shown for confirmation
    -> Next{done, Signatures: one per input}

Failure Handling:
  - Any step out of order, a wrong index or an invalid field aborts the
    session and erases it. The host has to start over with init.
  - A rejected confirmation aborts with UserAbort.
  - init while a session is active discards the old session first.
  - abort and device reset erase the session from any state.
*/

// Outcome labels how a session ended.
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeHostAbort  Outcome = "host_abort"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeRejected   Outcome = "rejected"
	OutcomeViolation  Outcome = "violation"
	OutcomeReset      Outcome = "reset"
)

// Observer is told when a session ends.
type Observer interface {
	SessionEnded(outcome Outcome)
}

var (
	ErrUnexpectedStep = fmt.Errorf("%w: unexpected signing step", errkind.InvalidInput)
	ErrWrongIndex     = fmt.Errorf("%w: wrong step index", errkind.InvalidInput)
	ErrInvalidStep    = fmt.Errorf("%w: invalid signing step", errkind.InvalidInput)
	ErrDuplicateInput = fmt.Errorf("%w: input spent twice", errkind.InvalidInput)
	ErrOverflow       = fmt.Errorf("%w: amount overflow", errkind.InvalidInput)
	ErrInsufficient   = fmt.Errorf("%w: outputs exceed inputs", errkind.InvalidInput)
)

// rbfThreshold is the lowest sequence that does not signal replace-by-fee.
const rbfThreshold = 0xfffffffe

type Machine struct {
	limits    config.SigningLimits
	keystore  btc.Keystore
	confirmer workflow.Confirmer
	observer  Observer
	logger    *zap.Logger

	state   State
	session *session
}

func NewMachine(limits config.SigningLimits, ks btc.Keystore, confirmer workflow.Confirmer, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		limits:    limits,
		keystore:  ks,
		confirmer: confirmer,
		logger:    logger,
		state:     StateIdle,
	}
}

// SetObserver registers o to be told about finished sessions.
func (m *Machine) SetObserver(o Observer) {
	m.observer = o
}

// State returns the current phase.
func (m *Machine) State() State {
	return m.state
}

// Advance feeds one signing step to the machine. step must be one of the
// init, input, output or finalize requests.
func (m *Machine) Advance(ctx context.Context, step types.Variant) (*types.BtcSignNextResponse, error) {
	var (
		resp *types.BtcSignNextResponse
		err  error
	)
	switch req := step.(type) {
	case *types.BtcSignInitRequest:
		resp, err = m.start(req)
	case *types.BtcSignInputRequest:
		resp, err = m.input(req)
	case *types.BtcSignOutputRequest:
		resp, err = m.output(ctx, req)
	case *types.BtcSignFinalizeRequest:
		resp, err = m.finalize(ctx)
	default:
		err = ErrUnexpectedStep
	}
	if err != nil {
		m.end(outcomeFor(err), err)
		return nil, err
	}
	return resp, nil
}

// Abort erases any session on request of the host. It never fails.
func (m *Machine) Abort() {
	if m.session != nil {
		m.end(OutcomeHostAbort, nil)
	}
}

// Reset erases any session on request of the device itself.
func (m *Machine) Reset() {
	if m.session != nil {
		m.end(OutcomeReset, nil)
	}
}

func outcomeFor(err error) Outcome {
	if errors.Is(err, errkind.UserAbort) {
		return OutcomeRejected
	}
	return OutcomeViolation
}

// end erases the session and moves to Aborted, or to Completed for a
// successful finalize.
func (m *Machine) end(outcome Outcome, cause error) {
	hadSession := m.session != nil
	if hadSession {
		m.session.erase()
		m.session = nil
	}
	if outcome == OutcomeCompleted {
		m.state = StateCompleted
	} else {
		m.state = StateAborted
	}

	fields := []interface{}{"outcome", outcome, "state", m.state.String()}
	if cause != nil {
		fields = append(fields, "error", cause)
	}
	m.logger.Sugar().Infow("Signing session ended", fields...)

	if hadSession && m.observer != nil {
		m.observer.SessionEnded(outcome)
	}
}

func (m *Machine) transition(next State) error {
	if !canTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrUnexpectedStep, m.state, next)
	}
	m.state = next
	return nil
}

func (m *Machine) start(req *types.BtcSignInitRequest) (*types.BtcSignNextResponse, error) {
	if m.session != nil {
		m.logger.Sugar().Infow("Superseding active signing session", "state", m.state.String())
		m.end(OutcomeSuperseded, nil)
	}

	params, err := btc.ParamsFor(req.Coin)
	if err != nil {
		return nil, err
	}
	if req.Version != 1 && req.Version != 2 {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidStep, req.Version)
	}
	if req.NumInputs < 1 || req.NumInputs > m.limits.MaxInputs {
		return nil, fmt.Errorf("%w: %d inputs, allowed 1-%d", ErrInvalidStep, req.NumInputs, m.limits.MaxInputs)
	}
	if req.NumOutputs < 1 || req.NumOutputs > m.limits.MaxOutputs {
		return nil, fmt.Errorf("%w: %d outputs, allowed 1-%d", ErrInvalidStep, req.NumOutputs, m.limits.MaxOutputs)
	}
	if err := btc.ValidateAccountKeypath(params, req.ScriptConfig.ScriptType, req.ScriptConfig.Keypath); err != nil {
		return nil, err
	}

	if err := m.transition(StateInitialized); err != nil {
		return nil, err
	}
	m.session = newSession(params, req)

	m.logger.Sugar().Infow("Signing session started",
		"coin", params.Coin.String(),
		"inputs", req.NumInputs,
		"outputs", req.NumOutputs,
	)
	return &types.BtcSignNextResponse{Type: types.NextInput, Index: 0}, nil
}

func (m *Machine) input(req *types.BtcSignInputRequest) (*types.BtcSignNextResponse, error) {
	if m.state != StateInitialized && m.state != StateCollectingInputs {
		return nil, fmt.Errorf("%w: input in state %s", ErrUnexpectedStep, m.state)
	}
	s := m.session
	if req.Index != s.step {
		return nil, fmt.Errorf("%w: got input %d, want %d", ErrWrongIndex, req.Index, s.step)
	}
	if len(req.PrevOutHash) != 32 {
		return nil, fmt.Errorf("%w: prevout hash must be 32 bytes", ErrInvalidStep)
	}
	if req.PrevOutValue == 0 {
		return nil, fmt.Errorf("%w: zero input value", ErrInvalidStep)
	}
	if !s.params.RBF && req.Sequence < rbfThreshold {
		return nil, fmt.Errorf("%w: %s does not support replace-by-fee", ErrInvalidStep, s.params.Name)
	}
	if err := btc.ValidateInAccount(s.params, s.scriptType, s.account, req.Keypath); err != nil {
		return nil, err
	}

	outpoint := btc.Outpoint(req.PrevOutHash, req.PrevOutIndex)
	if _, spent := s.spent[outpoint]; spent {
		return nil, ErrDuplicateInput
	}
	if s.totalIn > math.MaxUint64-req.PrevOutValue {
		return nil, ErrOverflow
	}

	pubKeyHash, err := btc.PubKeyHash(m.keystore, req.Keypath)
	if err != nil {
		return nil, err
	}

	next := StateCollectingInputs
	if s.step+1 == s.numInputs {
		next = StateCollectingOutputs
	}
	if err := m.transition(next); err != nil {
		return nil, err
	}

	s.hasher.AddInput(outpoint, req.Sequence)
	s.spent[outpoint] = struct{}{}
	s.inputs = append(s.inputs, inputRecord{
		sighash: btc.SighashInput{
			Outpoint:   outpoint,
			Value:      req.PrevOutValue,
			Sequence:   req.Sequence,
			PubKeyHash: pubKeyHash,
		},
		keypath: append([]uint32(nil), req.Keypath...),
	})
	s.totalIn += req.PrevOutValue
	s.step++

	m.logger.Sugar().Debugw("Signing input consumed", "index", req.Index)

	if next == StateCollectingOutputs {
		return &types.BtcSignNextResponse{Type: types.NextOutput, Index: 0}, nil
	}
	return &types.BtcSignNextResponse{Type: types.NextInput, Index: s.step}, nil
}

func (m *Machine) output(ctx context.Context, req *types.BtcSignOutputRequest) (*types.BtcSignNextResponse, error) {
	if m.state != StateCollectingOutputs {
		return nil, fmt.Errorf("%w: output in state %s", ErrUnexpectedStep, m.state)
	}
	s := m.session
	index := s.outputIndex()
	if req.Index != index {
		return nil, fmt.Errorf("%w: got output %d, want %d", ErrWrongIndex, req.Index, index)
	}
	if req.Value == 0 {
		return nil, fmt.Errorf("%w: zero output value", ErrInvalidStep)
	}
	if s.totalOut > math.MaxUint64-req.Value {
		return nil, ErrOverflow
	}

	var (
		outputType types.BtcOutputType
		payload    []byte
	)
	if req.Ours {
		if err := btc.ValidateInAccount(s.params, s.scriptType, s.account, req.Keypath); err != nil {
			return nil, err
		}
		pubKeyHash, err := btc.PubKeyHash(m.keystore, req.Keypath)
		if err != nil {
			return nil, err
		}
		if outputType, payload, err = btc.OwnOutput(s.scriptType, pubKeyHash[:]); err != nil {
			return nil, err
		}
	} else {
		address, err := btc.Address(s.params, req.Type, req.Hash)
		if err != nil {
			return nil, err
		}
		outputType, payload = req.Type, req.Hash
		if !m.confirmer.VerifyRecipient(ctx, address, s.params.FormatAmount(req.Value)) {
			return nil, errkind.UserAbort
		}
		s.totalExternal += req.Value
	}

	script, err := btc.PkScript(outputType, payload)
	if err != nil {
		return nil, err
	}

	last := index+1 == s.numOutputs
	next := StateCollectingOutputs
	if last {
		next = StateReadyToFinalize
	}
	if err := m.transition(next); err != nil {
		return nil, err
	}

	s.hasher.AddOutput(req.Value, script)
	s.totalOut += req.Value
	s.step++

	m.logger.Sugar().Debugw("Signing output consumed", "index", index, "change", req.Ours)

	if last {
		return &types.BtcSignNextResponse{Type: types.NextFinalize, Index: 0}, nil
	}
	return &types.BtcSignNextResponse{Type: types.NextOutput, Index: index + 1}, nil
}

func (m *Machine) finalize(ctx context.Context) (*types.BtcSignNextResponse, error) {
	if m.state != StateReadyToFinalize {
		return nil, fmt.Errorf("%w: finalize in state %s", ErrUnexpectedStep, m.state)
	}
	s := m.session
	if s.totalIn < s.totalOut {
		return nil, ErrInsufficient
	}
	fee := s.totalIn - s.totalOut

	if s.locktime > 0 {
		body := fmt.Sprintf("Locktime on block:\n%d\nTransaction is not RBF", s.locktime)
		if s.params.RBF && s.signalsRBF() {
			body = fmt.Sprintf("Locktime on block:\n%d\nTransaction is RBF", s.locktime)
		}
		if !m.confirmer.Confirm(ctx, workflow.ConfirmParams{Title: "Locktime", Body: body}) {
			return nil, errkind.UserAbort
		}
	}

	total := s.totalExternal + fee
	if !m.confirmer.VerifyTotalFee(ctx, s.params.FormatAmount(total), s.params.FormatAmount(fee)) {
		return nil, errkind.UserAbort
	}
	// warn when the fee is more than 10% of what is sent
	if s.totalExternal > 0 && fee > s.totalExternal/10 {
		if !m.confirmer.Confirm(ctx, workflow.ConfirmParams{
			Title: "High fee",
			Body:  "The fee is " + util.FormatSats(fee, s.params.Unit) + ",\nmore than 10% of the amount sent.\nProceed?",
		}) {
			return nil, errkind.UserAbort
		}
	}

	commitments := s.hasher.Commitments()
	defer commitments.Zero()

	signatures := make([][]byte, 0, len(s.inputs))
	for i := range s.inputs {
		digest := commitments.SigHash(&s.inputs[i].sighash)
		sig, err := m.keystore.SignDigest(s.inputs[i].keypath, digest)
		clear(digest)
		if err != nil {
			return nil, fmt.Errorf("failed to sign input %d: %w", i, err)
		}
		signatures = append(signatures, sig)
	}

	if err := m.transition(StateCompleted); err != nil {
		return nil, err
	}
	m.end(OutcomeCompleted, nil)

	return &types.BtcSignNextResponse{Type: types.NextDone, Signatures: signatures}, nil
}

func (s *session) signalsRBF() bool {
	for _, in := range s.inputs {
		if in.sighash.Sequence < rbfThreshold {
			return true
		}
	}
	return false
}
