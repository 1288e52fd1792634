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

// CloseInfraction records the analysis outcome of a dispute and reports it
// to the PSP. Closure confirmation arrives later as a separate PSP event.
type CloseInfraction struct {
	infractions port.InfractionRepository
	psp         port.PSPGateway
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewCloseInfraction creates a CloseInfraction use case.
func NewCloseInfraction(infractions port.InfractionRepository, psp port.PSPGateway, publisher port.EventPublisher, logger *slog.Logger) *CloseInfraction {
	return &CloseInfraction{infractions: infractions, psp: psp, publisher: publisher, logger: logger}
}

// Execute closes the infraction mapped to the given issue. The PSP call
// precedes the state flip: a gateway failure leaves the record at its
// pre-call state for redelivery to retry.
func (uc *CloseInfraction) Execute(ctx context.Context, req dto.CloseInfractionRequest) (*model.Infraction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	infraction, err := uc.infractions.FindByIssueID(ctx, req.IssueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load infraction for issue %s: %w", req.IssueID, err)
	}
	if infraction == nil {
		return nil, fmt.Errorf("issue %s: %w", req.IssueID, model.ErrInfractionNotFound)
	}

	if infraction.State().Stage == model.InfractionStageClosed {
		return infraction, nil
	}
	// Only a confirmed open or analysis record may close. Checked before the
	// PSP call so a rejected transition leaves nothing behind remotely.
	if infraction.State() != model.InfractionConfirmed(model.InfractionStageOpen) &&
		infraction.State() != model.InfractionConfirmed(model.InfractionStageAnalysis) {
		return nil, model.NewInvalidStateError("infraction", infraction.ID().String(), infraction.State().String(), "close")
	}

	if err := uc.psp.CloseInfraction(ctx, infraction.InfractionPspID(), req.AnalysisResult, req.AnalysisDetails); err != nil {
		return nil, fmt.Errorf("failed to close infraction at psp: %w", err)
	}

	if err := infraction.Close(req.AnalysisResult, req.AnalysisDetails, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to close infraction: %w", err)
	}
	if err := uc.infractions.Update(ctx, infraction); err != nil {
		return nil, fmt.Errorf("failed to save infraction: %w", err)
	}

	if evts := infraction.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, InfractionEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish infraction events", "error", err, "infraction_id", infraction.ID())
		}
	}

	uc.logger.Info("infraction close pending",
		"infraction_id", infraction.ID(),
		"issue_id", req.IssueID,
		"analysis_result", req.AnalysisResult,
	)
	return infraction, nil
}
