package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// ClosePendingRefund closes a refund. Closing always returns the money, so
// alongside the refund event a devolution-create request is emitted. When no
// hold exists yet for the refunded deposit, a user-origin hold is created so
// the devolution lifecycle has a uniform anchor and picks the ORIGINAL
// devolution code.
type ClosePendingRefund struct {
	refunds     port.RefundRepository
	deposits    port.DepositRepository
	warnings    port.WarningDepositRepository
	devolutions port.DevolutionReceivedResolver
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewClosePendingRefund creates a ClosePendingRefund use case.
func NewClosePendingRefund(
	refunds port.RefundRepository,
	deposits port.DepositRepository,
	warnings port.WarningDepositRepository,
	devolutions port.DevolutionReceivedResolver,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *ClosePendingRefund {
	return &ClosePendingRefund{
		refunds:     refunds,
		deposits:    deposits,
		warnings:    warnings,
		devolutions: devolutions,
		publisher:   publisher,
		logger:      logger,
	}
}

// Execute closes the refund. An already closed refund is returned unchanged
// without re-emitting events.
func (uc *ClosePendingRefund) Execute(ctx context.Context, req dto.ClosePendingRefundRequest) (*model.Refund, error) {
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

	// The transition is vetted before the hold is resolved: resolution may
	// create a warning deposit, and a rejected close must leave no trace.
	if refund.State() == model.RefundClosedWaiting {
		uc.logger.Info("refund already closed", "refund_id", refund.ID())
		return refund, nil
	}
	switch refund.State() {
	case model.RefundReceiveConfirmed, model.RefundClosedPending, model.RefundStateError:
	default:
		return nil, model.NewInvalidStateError("refund", refund.ID().String(), refund.State().String(), "close")
	}

	warningDepositID, err := uc.resolveWarningDeposit(ctx, refund)
	if err != nil {
		return nil, err
	}

	if err := refund.Close(req.AnalysisDetails, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to close refund: %w", err)
	}
	if err := uc.refunds.Update(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to save closed refund: %w", err)
	}

	if evts := refund.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, RefundEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish refund events", "error", err, "refund_id", refund.ID())
		}
	}

	devolutionID := uuid.New()
	createReq := event.NewWarningDevolutionCreateRequested(devolutionID, warningDepositID)
	if err := uc.publisher.Publish(ctx, DevolutionEventsTopic, createReq); err != nil {
		uc.logger.Error("failed to publish devolution create request", "error", err, "devolution_id", devolutionID)
	}

	uc.logger.Info("refund closed",
		"refund_id", refund.ID(),
		"devolution_id", devolutionID,
		"warning_deposit_id", warningDepositID,
	)
	return refund, nil
}

// resolveWarningDeposit finds the hold anchoring the devolution for this
// refund, creating a user-origin one when the refunded deposit has none.
func (uc *ClosePendingRefund) resolveWarningDeposit(ctx context.Context, refund *model.Refund) (uuid.UUID, error) {
	switch refund.TransactionType() {
	case model.RefundTransactionDeposit:
		deposit, err := uc.deposits.FindByID(ctx, refund.TransactionID())
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load deposit %s: %w", refund.TransactionID(), err)
		}
		if deposit == nil {
			return uuid.Nil, fmt.Errorf("deposit %s: %w", refund.TransactionID(), model.ErrTransactionNotFound)
		}

		warning, err := uc.warnings.FindByOperationID(ctx, deposit.OperationID())
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to look up warning deposit: %w", err)
		}
		if warning != nil {
			return warning.ID(), nil
		}

		warning, err = model.NewWarningDeposit(deposit.OperationID(), model.WarningOriginUser, nil)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to create warning deposit: %w", err)
		}
		if err := uc.warnings.Create(ctx, warning); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save warning deposit: %w", err)
		}
		if evts := warning.DomainEvents(); len(evts) > 0 {
			if err := uc.publisher.Publish(ctx, WarningEventsTopic, evts...); err != nil {
				uc.logger.Error("failed to publish warning deposit events", "error", err, "warning_deposit_id", warning.ID())
			}
		}
		return warning.ID(), nil

	case model.RefundTransactionDevolutionReceived:
		devolution, err := uc.devolutions.FindByID(ctx, refund.TransactionID())
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load devolution %s: %w", refund.TransactionID(), err)
		}
		if devolution == nil {
			return uuid.Nil, fmt.Errorf("devolution %s: %w", refund.TransactionID(), model.ErrTransactionNotFound)
		}
		return devolution.WarningDepositID(), nil

	default:
		return uuid.Nil, fmt.Errorf("%w: transaction type %q", model.ErrInvalidDataFormat, refund.TransactionType())
	}
}
