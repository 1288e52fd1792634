package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// BlockDeposit blocks a deposit behind an approved warning hold and requests
// the devolution that returns the money.
type BlockDeposit struct {
	ledger    port.LedgerGateway
	deposits  port.DepositRepository
	warnings  port.WarningDepositRepository
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewBlockDeposit creates a BlockDeposit use case.
func NewBlockDeposit(
	ledger port.LedgerGateway,
	deposits port.DepositRepository,
	warnings port.WarningDepositRepository,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *BlockDeposit {
	return &BlockDeposit{ledger: ledger, deposits: deposits, warnings: warnings, publisher: publisher, logger: logger}
}

// Execute blocks the deposit behind the given ledger operation. The deposit
// block is persisted before the devolution-create request is emitted, so a
// crash between the two leaves a resumable record: the create handler is
// idempotent and a redelivered block reports already-handled.
func (uc *BlockDeposit) Execute(ctx context.Context, req dto.BlockDepositRequest) (*model.Deposit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	op, err := uc.ledger.GetOperationByID(ctx, req.OperationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger operation %s: %w", req.OperationID, err)
	}
	if op == nil {
		return nil, fmt.Errorf("operation %s: %w", req.OperationID, model.ErrOperationNotFound)
	}

	deposit, err := uc.deposits.FindByOperationID(ctx, req.OperationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit for operation %s: %w", req.OperationID, err)
	}
	if deposit == nil {
		return nil, fmt.Errorf("operation %s: %w", req.OperationID, model.ErrDepositNotFound)
	}

	warning, err := uc.warnings.FindByOperationID(ctx, req.OperationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load warning deposit for operation %s: %w", req.OperationID, err)
	}
	if warning == nil {
		return nil, fmt.Errorf("operation %s: %w", req.OperationID, model.ErrWarningDepositNotFound)
	}

	// Redelivery: a blocked deposit or an approved hold means the block has
	// already been applied. Callers treat this as handled, not as a retry.
	if deposit.State() == model.DepositStateBlocked {
		return nil, model.NewAlreadyDoneError("deposit", deposit.ID().String(), string(deposit.State()), "block")
	}
	if warning.State() == model.WarningDepositStateApproved {
		return nil, model.NewAlreadyDoneError("warning deposit", warning.ID().String(), string(warning.State()), "block")
	}

	now := time.Now().UTC()

	if err := deposit.Block(now); err != nil {
		return nil, fmt.Errorf("failed to block deposit: %w", err)
	}
	if err := uc.deposits.Update(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to save blocked deposit: %w", err)
	}
	if evts := deposit.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, DepositEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish deposit events", "error", err, "deposit_id", deposit.ID())
		}
	}

	if err := warning.Approve(now); err != nil {
		return nil, fmt.Errorf("failed to approve warning deposit: %w", err)
	}
	if err := uc.warnings.Update(ctx, warning); err != nil {
		return nil, fmt.Errorf("failed to save approved warning deposit: %w", err)
	}
	if evts := warning.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, WarningEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish warning events", "error", err, "warning_deposit_id", warning.ID())
		}
	}

	// The devolution id is generated here so the create handler can
	// deduplicate under redelivery.
	devolutionID := uuid.New()
	createReq := event.NewWarningDevolutionCreateRequested(devolutionID, warning.ID())
	if err := uc.publisher.Publish(ctx, DevolutionEventsTopic, createReq); err != nil {
		uc.logger.Error("failed to publish devolution create request", "error", err, "devolution_id", devolutionID)
	}

	uc.logger.Info("deposit blocked",
		"deposit_id", deposit.ID(),
		"operation_id", req.OperationID,
		"warning_deposit_id", warning.ID(),
		"devolution_id", devolutionID,
	)
	return deposit, nil
}
