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

// MarkRefundError parks a refund in the retryable ERROR state. The receive
// handler accepts ERROR as a starting state, so a parked refund is picked up
// again on the next delivery.
type MarkRefundError struct {
	refunds   port.RefundRepository
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewMarkRefundError creates a MarkRefundError use case.
func NewMarkRefundError(refunds port.RefundRepository, publisher port.EventPublisher, logger *slog.Logger) *MarkRefundError {
	return &MarkRefundError{refunds: refunds, publisher: publisher, logger: logger}
}

// Execute marks the refund as errored. Terminal states are left untouched.
func (uc *MarkRefundError) Execute(ctx context.Context, req dto.RefundRequest) (*model.Refund, error) {
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

	if err := refund.MarkError(time.Now().UTC()); err != nil {
		if model.IsAlreadyDone(err) {
			return refund, nil
		}
		return nil, fmt.Errorf("failed to mark refund error: %w", err)
	}
	if err := uc.refunds.Update(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	if evts := refund.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, RefundEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish refund events", "error", err, "refund_id", refund.ID())
		}
	}

	uc.logger.Warn("refund marked as error", "refund_id", refund.ID())
	return refund, nil
}
