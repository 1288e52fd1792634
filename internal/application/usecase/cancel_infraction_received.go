package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// CancelInfractionReceived applies a PSP-side cancellation and runs the
// compensation loop that reverts every ledger operation which funded a
// refund for this infraction.
type CancelInfractionReceived struct {
	infractions port.InfractionRepository
	refundOps   port.InfractionRefundOperationRepository
	ledger      port.LedgerGateway
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewCancelInfractionReceived creates a CancelInfractionReceived use case.
func NewCancelInfractionReceived(
	infractions port.InfractionRepository,
	refundOps port.InfractionRefundOperationRepository,
	ledger port.LedgerGateway,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *CancelInfractionReceived {
	return &CancelInfractionReceived{
		infractions: infractions,
		refundOps:   refundOps,
		ledger:      ledger,
		publisher:   publisher,
		logger:      logger,
	}
}

// Execute cancels the infraction. The cancel-pending state is persisted
// before the reversal loop starts, and the outbound event is emitted only
// after every linked operation is closed: a crash mid-loop leaves the
// remaining links OPEN and the infraction CANCEL_PENDING, so a redelivered
// cancellation resumes the loop. Ledger reverts are idempotent server-side.
// A redelivered cancellation for an already cancelled infraction returns it
// unchanged and performs zero ledger calls.
func (uc *CancelInfractionReceived) Execute(ctx context.Context, req dto.CancelInfractionReceivedRequest) (*model.Infraction, error) {
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

	alreadyCancelled := false
	if err := infraction.CancelReceived(req.AnalysisResult, req.AnalysisDetails, now); err != nil {
		if !model.IsAlreadyDone(err) {
			return nil, fmt.Errorf("failed to cancel infraction: %w", err)
		}
		alreadyCancelled = true
	}

	if !alreadyCancelled {
		if err := uc.infractions.Update(ctx, infraction); err != nil {
			return nil, fmt.Errorf("failed to save cancelled infraction: %w", err)
		}
	}

	open, err := uc.refundOps.ListOpenByInfractionID(ctx, infraction.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list open refund operations: %w", err)
	}

	if alreadyCancelled && len(open) == 0 {
		uc.logger.Info("infraction cancellation already handled", "infraction_psp_id", req.InfractionPspID)
		return infraction, nil
	}

	for _, link := range open {
		if err := uc.ledger.RevertOperation(ctx, link.RefundOperationID()); err != nil {
			return nil, fmt.Errorf("failed to revert operation %s: %w", link.RefundOperationID(), err)
		}
		if err := link.Close(now); err != nil {
			return nil, fmt.Errorf("failed to close refund operation link: %w", err)
		}
		if err := uc.refundOps.Update(ctx, link); err != nil {
			return nil, fmt.Errorf("failed to save refund operation link: %w", err)
		}
		uc.logger.Info("reverted refund operation",
			"infraction_id", infraction.ID(),
			"operation_id", link.RefundOperationID(),
		)
	}

	// On a resumed loop the first attempt crashed before emitting, so the
	// loaded record carries no collected events. The cancel-pending event
	// must still go out exactly once after the last link is closed, so it
	// is rebuilt from the persisted record here.
	evts := infraction.DomainEvents()
	if alreadyCancelled {
		evts = append(evts, event.NewInfractionEvent(
			event.TypeInfractionCancelPending, infraction.ID(), infraction.InfractionPspID(), infraction.IssueID(),
			string(infraction.Status()), infraction.State().String(),
			string(infraction.AnalysisResult()), infraction.AnalysisDetails(),
		))
	}
	if err := uc.publisher.Publish(ctx, InfractionEventsTopic, evts...); err != nil {
		uc.logger.Error("failed to publish infraction events", "error", err, "infraction_id", infraction.ID())
	}

	uc.logger.Info("infraction cancel pending",
		"infraction_id", infraction.ID(),
		"infraction_psp_id", req.InfractionPspID,
		"reverted_operations", len(open),
	)
	return infraction, nil
}
