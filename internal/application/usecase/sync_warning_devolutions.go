package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// chargebackReasons translates PSP chargeback codes to readable text. Codes
// outside the map keep their raw value.
var chargebackReasons = map[string]string{
	"AC03": "invalid creditor account",
	"AG03": "transaction type not supported",
	"BE05": "unrecognized initiating party",
	"SL02": "settlement rejected by receiver",
}

// SyncWarningDevolutions polls the PSP for the settlement outcome of
// devolutions sitting in WAITING. One record failing to sync never blocks the
// rest of the batch.
type SyncWarningDevolutions struct {
	devolutions port.WarningDevolutionRepository
	psp         port.PSPGateway
	publisher   port.EventPublisher
	logger      *slog.Logger
	minAge      time.Duration
}

// NewSyncWarningDevolutions creates a SyncWarningDevolutions use case. minAge
// keeps just-submitted devolutions out of the sweep so the PSP has time to
// register them.
func NewSyncWarningDevolutions(
	devolutions port.WarningDevolutionRepository,
	psp port.PSPGateway,
	publisher port.EventPublisher,
	logger *slog.Logger,
	minAge time.Duration,
) *SyncWarningDevolutions {
	return &SyncWarningDevolutions{
		devolutions: devolutions,
		psp:         psp,
		publisher:   publisher,
		logger:      logger,
		minAge:      minAge,
	}
}

// Execute sweeps the waiting devolutions once and returns how many records
// changed state.
func (uc *SyncWarningDevolutions) Execute(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-uc.minAge)
	waiting, err := uc.devolutions.ListWaitingUpdatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list waiting devolutions: %w", err)
	}

	synced := 0
	for _, devolution := range waiting {
		changed, err := uc.syncOne(ctx, devolution)
		if err != nil {
			uc.logger.Error("failed to sync devolution", "error", err, "devolution_id", devolution.ID())
			continue
		}
		if changed {
			synced++
		}
	}

	uc.logger.Info("devolution sync finished", "waiting", len(waiting), "synced", synced)
	return synced, nil
}

func (uc *SyncWarningDevolutions) syncOne(ctx context.Context, devolution *model.WarningDevolution) (bool, error) {
	remote, err := uc.psp.GetPixDevolutionByID(ctx, devolution.ID())
	if err != nil {
		return false, fmt.Errorf("failed to fetch psp devolution: %w", err)
	}
	if remote == nil {
		uc.logger.Warn("devolution unknown to psp", "devolution_id", devolution.ID())
		return false, nil
	}

	now := time.Now().UTC()
	switch remote.Status {
	case port.DevolutionSettled:
		if err := devolution.Complete(now); err != nil {
			return false, fmt.Errorf("failed to complete devolution: %w", err)
		}
	case port.DevolutionChargeback:
		if err := devolution.Revert(translateChargebackReason(remote.FailureReason), now); err != nil {
			return false, fmt.Errorf("failed to revert devolution: %w", err)
		}
	case port.DevolutionProcessing:
		return false, nil
	default:
		uc.logger.Warn("unexpected psp devolution status",
			"devolution_id", devolution.ID(),
			"status", remote.Status,
		)
		return false, nil
	}

	if err := uc.devolutions.Update(ctx, devolution); err != nil {
		return false, fmt.Errorf("failed to save devolution: %w", err)
	}

	if evts := devolution.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, DevolutionEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish devolution events", "error", err, "devolution_id", devolution.ID())
		}
	}
	return true, nil
}

func translateChargebackReason(code string) string {
	if reason, ok := chargebackReasons[code]; ok {
		return reason
	}
	return code
}
