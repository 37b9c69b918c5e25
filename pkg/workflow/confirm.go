// Package workflow holds the device's interactive flows: on-device
// confirmations and the backup workflows built on them.
package workflow

import (
	"context"

	"go.uber.org/zap"
)

// ConfirmParams describe one confirmation screen.
type ConfirmParams struct {
	Title string
	Body  string
	// Scrollable marks long bodies such as contract data.
	Scrollable bool
	// AcceptOnly screens can only be acknowledged, not rejected.
	AcceptOnly bool
}

// Confirmer asks the device holder to approve something. Every method
// returns false when the holder rejects or ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, params ConfirmParams) bool
	VerifyRecipient(ctx context.Context, recipient, amount string) bool
	VerifyTotalFee(ctx context.Context, total, fee string) bool
}

// AutoConfirmer answers every confirmation with Accept and logs what was
// shown. It stands in for a screen on emulators and in tests.
type AutoConfirmer struct {
	Accept bool
	logger *zap.Logger
}

var _ Confirmer = (*AutoConfirmer)(nil)

func NewAutoConfirmer(accept bool, logger *zap.Logger) *AutoConfirmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoConfirmer{Accept: accept, logger: logger}
}

func (a *AutoConfirmer) answer(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	return a.Accept
}

func (a *AutoConfirmer) Confirm(ctx context.Context, params ConfirmParams) bool {
	ok := a.answer(ctx) || (params.AcceptOnly && ctx.Err() == nil)
	a.logger.Sugar().Infow("Confirm", "title", params.Title, "body", params.Body, "accepted", ok)
	return ok
}

func (a *AutoConfirmer) VerifyRecipient(ctx context.Context, recipient, amount string) bool {
	ok := a.answer(ctx)
	a.logger.Sugar().Infow("Verify recipient", "recipient", recipient, "amount", amount, "accepted", ok)
	return ok
}

func (a *AutoConfirmer) VerifyTotalFee(ctx context.Context, total, fee string) bool {
	ok := a.answer(ctx)
	a.logger.Sugar().Infow("Verify total", "total", total, "fee", fee, "accepted", ok)
	return ok
}
