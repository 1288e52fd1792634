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

// OpenInfraction reports a new dispute to the PSP and records it locally in
// the pending half of the open transition.
type OpenInfraction struct {
	infractions port.InfractionRepository
	psp         port.PSPGateway
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewOpenInfraction creates an OpenInfraction use case.
func NewOpenInfraction(infractions port.InfractionRepository, psp port.PSPGateway, publisher port.EventPublisher, logger *slog.Logger) *OpenInfraction {
	return &OpenInfraction{infractions: infractions, psp: psp, publisher: publisher, logger: logger}
}

// Execute opens the infraction. The PSP call happens before anything is
// persisted, so a gateway failure leaves no record and redelivery simply
// retries. An issue already mapped to an infraction is returned unchanged.
func (uc *OpenInfraction) Execute(ctx context.Context, req dto.OpenInfractionRequest) (*model.Infraction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := uc.infractions.FindByIssueID(ctx, req.IssueID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up infraction for issue %s: %w", req.IssueID, err)
	}
	if existing != nil {
		uc.logger.Info("infraction already opened", "issue_id", req.IssueID, "infraction_id", existing.ID())
		return existing, nil
	}

	infraction, err := model.NewInfraction(req.IssueID, req.InfractionType, req.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create infraction: %w", err)
	}

	pspID, err := uc.psp.CreateInfraction(ctx, port.CreateInfractionRequest{
		OperationID:    req.OperationID,
		InfractionType: req.InfractionType,
		Description:    req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create infraction at psp: %w", err)
	}

	if err := infraction.MarkOpenPending(pspID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to mark infraction open pending: %w", err)
	}
	if err := uc.infractions.Create(ctx, infraction); err != nil {
		return nil, fmt.Errorf("failed to save infraction: %w", err)
	}

	if evts := infraction.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, InfractionEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish infraction events", "error", err, "infraction_id", infraction.ID())
		}
	}

	uc.logger.Info("infraction opened",
		"infraction_id", infraction.ID(),
		"infraction_psp_id", pspID,
		"issue_id", req.IssueID,
	)
	return infraction, nil
}
