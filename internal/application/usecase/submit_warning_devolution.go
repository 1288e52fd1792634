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

// SubmitWarningDevolution hands a pending devolution to the PSP and moves it
// to WAITING for the settlement sync to pick up.
type SubmitWarningDevolution struct {
	devolutions port.WarningDevolutionRepository
	psp         port.PSPGateway
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewSubmitWarningDevolution creates a SubmitWarningDevolution use case.
func NewSubmitWarningDevolution(devolutions port.WarningDevolutionRepository, psp port.PSPGateway, publisher port.EventPublisher, logger *slog.Logger) *SubmitWarningDevolution {
	return &SubmitWarningDevolution{devolutions: devolutions, psp: psp, publisher: publisher, logger: logger}
}

// Execute submits the devolution. The PSP call precedes the state flip and is
// idempotent by devolution id on the PSP side, so a crash between the call
// and the save is repaired by redelivery. An already waiting devolution is
// returned unchanged with no PSP call.
func (uc *SubmitWarningDevolution) Execute(ctx context.Context, req dto.SubmitWarningDevolutionRequest) (*model.WarningDevolution, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	devolution, err := uc.devolutions.FindByID(ctx, req.DevolutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load devolution %s: %w", req.DevolutionID, err)
	}
	if devolution == nil {
		return nil, fmt.Errorf("devolution %s: %w", req.DevolutionID, model.ErrWarningDevolutionNotFound)
	}

	if devolution.State() == model.WarningDevolutionStateWaiting {
		uc.logger.Info("devolution already submitted", "devolution_id", devolution.ID())
		return devolution, nil
	}
	if devolution.State() != model.WarningDevolutionStatePending {
		return nil, model.NewInvalidStateError("warning devolution", devolution.ID().String(), string(devolution.State()), "submit")
	}

	if err := uc.psp.CreatePixDevolution(ctx, devolution.ID(), devolution.EndToEndID(), devolution.Amount(), devolution.DevolutionCode()); err != nil {
		return nil, fmt.Errorf("failed to create pix devolution at psp: %w", err)
	}

	if err := devolution.Submit(time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to submit devolution: %w", err)
	}
	if err := uc.devolutions.Update(ctx, devolution); err != nil {
		return nil, fmt.Errorf("failed to save devolution: %w", err)
	}

	if evts := devolution.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, DevolutionEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish devolution events", "error", err, "devolution_id", devolution.ID())
		}
	}

	uc.logger.Info("devolution submitted", "devolution_id", devolution.ID())
	return devolution, nil
}
