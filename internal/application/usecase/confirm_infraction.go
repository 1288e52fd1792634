package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// ConfirmInfraction applies a PSP acknowledgement, moving a stage from its
// pending to its confirmed half. A close confirmation that settled a refund
// through the ledger also registers the refund operation link that the
// cancellation compensation loop reverts.
type ConfirmInfraction struct {
	infractions port.InfractionRepository
	refundOps   port.InfractionRefundOperationRepository
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewConfirmInfraction creates a ConfirmInfraction use case.
func NewConfirmInfraction(
	infractions port.InfractionRepository,
	refundOps port.InfractionRefundOperationRepository,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *ConfirmInfraction {
	return &ConfirmInfraction{infractions: infractions, refundOps: refundOps, publisher: publisher, logger: logger}
}

// Execute confirms the given stage. A stage already confirmed is returned
// unchanged.
func (uc *ConfirmInfraction) Execute(ctx context.Context, req dto.ConfirmInfractionRequest) (*model.Infraction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	infraction, err := uc.infractions.FindByPspID(ctx, req.InfractionPspID)
	if err != nil {
		return nil, fmt.Errorf("failed to load infraction %s: %w", req.InfractionPspID, err)
	}
	if infraction == nil {
		return nil, fmt.Errorf("infraction %s: %w", req.InfractionPspID, model.ErrInfractionNotFound)
	}

	now := time.Now().UTC()

	if err := infraction.Confirm(req.Stage, now); err != nil {
		if model.IsAlreadyDone(err) {
			return infraction, nil
		}
		return nil, fmt.Errorf("failed to confirm infraction stage %s: %w", req.Stage, err)
	}
	if err := uc.infractions.Update(ctx, infraction); err != nil {
		return nil, fmt.Errorf("failed to save infraction: %w", err)
	}

	if req.Stage == model.InfractionStageClosed && req.RefundOperationID != uuid.Nil {
		if err := uc.registerRefundOperation(ctx, infraction.ID(), req.RefundOperationID); err != nil {
			return nil, err
		}
	}

	if evts := infraction.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, InfractionEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish infraction events", "error", err, "infraction_id", infraction.ID())
		}
	}

	uc.logger.Info("infraction stage confirmed",
		"infraction_id", infraction.ID(),
		"stage", req.Stage,
		"status", infraction.Status(),
	)
	return infraction, nil
}

func (uc *ConfirmInfraction) registerRefundOperation(ctx context.Context, infractionID, refundOperationID uuid.UUID) error {
	open, err := uc.refundOps.ListOpenByInfractionID(ctx, infractionID)
	if err != nil {
		return fmt.Errorf("failed to list refund operations: %w", err)
	}
	for _, link := range open {
		if link.RefundOperationID() == refundOperationID {
			return nil
		}
	}

	link, err := model.NewInfractionRefundOperation(infractionID, refundOperationID)
	if err != nil {
		return fmt.Errorf("failed to create refund operation link: %w", err)
	}
	if err := uc.refundOps.Create(ctx, link); err != nil {
		return fmt.Errorf("failed to save refund operation link: %w", err)
	}
	return nil
}
