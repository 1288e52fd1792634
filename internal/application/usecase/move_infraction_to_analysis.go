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

// MoveInfractionToAnalysis moves a confirmed-open dispute into the pending
// half of the analysis transition.
type MoveInfractionToAnalysis struct {
	infractions port.InfractionRepository
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewMoveInfractionToAnalysis creates a MoveInfractionToAnalysis use case.
func NewMoveInfractionToAnalysis(infractions port.InfractionRepository, publisher port.EventPublisher, logger *slog.Logger) *MoveInfractionToAnalysis {
	return &MoveInfractionToAnalysis{infractions: infractions, publisher: publisher, logger: logger}
}

// Execute moves the infraction into analysis. A record already in the
// analysis stage is returned unchanged.
func (uc *MoveInfractionToAnalysis) Execute(ctx context.Context, req dto.MoveInfractionToAnalysisRequest) (*model.Infraction, error) {
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

	if err := infraction.MoveToAnalysis(time.Now().UTC()); err != nil {
		if model.IsAlreadyDone(err) {
			return infraction, nil
		}
		return nil, fmt.Errorf("failed to move infraction to analysis: %w", err)
	}

	if err := uc.infractions.Update(ctx, infraction); err != nil {
		return nil, fmt.Errorf("failed to save infraction: %w", err)
	}
	if evts := infraction.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, InfractionEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish infraction events", "error", err, "infraction_id", infraction.ID())
		}
	}

	uc.logger.Info("infraction moved to analysis", "infraction_id", infraction.ID(), "infraction_psp_id", req.InfractionPspID)
	return infraction, nil
}
