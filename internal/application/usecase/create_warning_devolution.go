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

// CreateWarningDevolution materializes a devolution for an approved hold or a
// closed refund. The requester assigns the devolution id, so a redelivered
// create request finds the existing record and stops. System-origin holds
// return the money under the FRAUD code, user-origin ones under ORIGINAL.
type CreateWarningDevolution struct {
	devolutions port.WarningDevolutionRepository
	warnings    port.WarningDepositRepository
	deposits    port.DepositRepository
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewCreateWarningDevolution creates a CreateWarningDevolution use case.
func NewCreateWarningDevolution(
	devolutions port.WarningDevolutionRepository,
	warnings port.WarningDepositRepository,
	deposits port.DepositRepository,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *CreateWarningDevolution {
	return &CreateWarningDevolution{
		devolutions: devolutions,
		warnings:    warnings,
		deposits:    deposits,
		publisher:   publisher,
		logger:      logger,
	}
}

// Execute creates the devolution in PENDING state and marks the full deposit
// amount as returned.
func (uc *CreateWarningDevolution) Execute(ctx context.Context, req dto.CreateWarningDevolutionRequest) (*model.WarningDevolution, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := uc.devolutions.FindByID(ctx, req.DevolutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up devolution %s: %w", req.DevolutionID, err)
	}
	if existing != nil {
		uc.logger.Info("devolution already created", "devolution_id", existing.ID())
		return existing, nil
	}

	warning, err := uc.warnings.FindByID(ctx, req.WarningDepositID)
	if err != nil {
		return nil, fmt.Errorf("failed to load warning deposit %s: %w", req.WarningDepositID, err)
	}
	if warning == nil {
		return nil, fmt.Errorf("warning deposit %s: %w", req.WarningDepositID, model.ErrWarningDepositNotFound)
	}

	deposit, err := uc.deposits.FindByOperationID(ctx, warning.OperationID())
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit for operation %s: %w", warning.OperationID(), err)
	}
	if deposit == nil {
		return nil, fmt.Errorf("operation %s: %w", warning.OperationID(), model.ErrDepositNotFound)
	}

	code := model.DevolutionCodeOriginal
	if warning.Origin() == model.WarningOriginSystem {
		code = model.DevolutionCodeFraud
	}

	devolution, err := model.NewWarningDevolution(
		req.DevolutionID,
		warning.ID(),
		deposit.EndToEndID(),
		deposit.Amount(),
		code,
		"warning devolution for operation "+deposit.OperationID().String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create devolution: %w", err)
	}

	if err := deposit.MarkReturned(time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to mark deposit returned: %w", err)
	}

	if err := uc.devolutions.Create(ctx, devolution); err != nil {
		return nil, fmt.Errorf("failed to save devolution: %w", err)
	}
	if err := uc.deposits.Update(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to save deposit: %w", err)
	}

	if evts := devolution.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, DevolutionEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish devolution events", "error", err, "devolution_id", devolution.ID())
		}
	}

	uc.logger.Info("devolution created",
		"devolution_id", devolution.ID(),
		"warning_deposit_id", warning.ID(),
		"devolution_code", code,
		"amount", devolution.Amount(),
	)
	return devolution, nil
}
