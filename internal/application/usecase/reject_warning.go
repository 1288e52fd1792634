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

// RejectWarning releases a hold after review. The deposit is left untouched
// and no devolution is requested.
type RejectWarning struct {
	warnings  port.WarningDepositRepository
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewRejectWarning creates a RejectWarning use case.
func NewRejectWarning(warnings port.WarningDepositRepository, publisher port.EventPublisher, logger *slog.Logger) *RejectWarning {
	return &RejectWarning{warnings: warnings, publisher: publisher, logger: logger}
}

// Execute rejects the hold. An already rejected hold is returned unchanged.
func (uc *RejectWarning) Execute(ctx context.Context, req dto.RejectWarningRequest) (*model.WarningDeposit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	warning, err := uc.warnings.FindByID(ctx, req.WarningDepositID)
	if err != nil {
		return nil, fmt.Errorf("failed to load warning deposit %s: %w", req.WarningDepositID, err)
	}
	if warning == nil {
		return nil, fmt.Errorf("warning deposit %s: %w", req.WarningDepositID, model.ErrWarningDepositNotFound)
	}

	if err := warning.Reject(req.Reason, time.Now().UTC()); err != nil {
		if model.IsAlreadyDone(err) {
			return warning, nil
		}
		return nil, fmt.Errorf("failed to reject warning deposit: %w", err)
	}

	if err := uc.warnings.Update(ctx, warning); err != nil {
		return nil, fmt.Errorf("failed to save rejected warning deposit: %w", err)
	}
	if evts := warning.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, WarningEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish warning events", "error", err, "warning_deposit_id", warning.ID())
		}
	}

	uc.logger.Info("warning deposit rejected", "warning_deposit_id", warning.ID(), "reason", req.Reason)
	return warning, nil
}
