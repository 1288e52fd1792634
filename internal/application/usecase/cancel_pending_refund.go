package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// CancelPendingRefund withdraws a refund solicitation at the PSP and
// confirms the cancellation locally.
type CancelPendingRefund struct {
	refunds   port.RefundRepository
	psp       port.PSPGateway
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewCancelPendingRefund creates a CancelPendingRefund use case.
func NewCancelPendingRefund(refunds port.RefundRepository, psp port.PSPGateway, publisher port.EventPublisher, logger *slog.Logger) *CancelPendingRefund {
	return &CancelPendingRefund{refunds: refunds, psp: psp, publisher: publisher, logger: logger}
}

// Execute cancels the refund. The PSP call precedes the state flip; an
// already cancelled refund is returned unchanged with no PSP call.
func (uc *CancelPendingRefund) Execute(ctx context.Context, req dto.RefundRequest) (*model.Refund, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	refund, err := uc.refunds.FindByID(ctx, req.RefundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund %s: %w", req.RefundID, err)
	}
	if refund == nil {
		return nil, fmt.Errorf("refund %s: %w", req.RefundID, model.ErrRefundNotFound)
	}

	if refund.State() == model.RefundCancelConfirmed {
		uc.logger.Info("refund cancellation already confirmed", "refund_id", refund.ID())
		return refund, nil
	}
	// A refund this core refuses to cancel must never reach the PSP: the
	// withdrawal request over there is a real mutation.
	switch refund.State() {
	case model.RefundReceivePending, model.RefundReceiveConfirmed, model.RefundCancelPending, model.RefundStateError:
	default:
		return nil, model.NewInvalidStateError("refund", refund.ID().String(), refund.State().String(), "cancel")
	}

	if err := uc.psp.CancelRefundRequest(ctx, refund.SolicitationPspID()); err != nil {
		return nil, fmt.Errorf("failed to cancel refund request at psp: %w", err)
	}

	if err := refund.Cancel(time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to cancel refund: %w", err)
	}
	if err := uc.refunds.Update(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to save cancelled refund: %w", err)
	}

	if evts := refund.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, RefundEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish refund events", "error", err, "refund_id", refund.ID())
		}
	}

	uc.logger.Info("refund cancelled", "refund_id", refund.ID())
	return refund, nil
}
