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

// ReceiveDeposit records an inbound pix credit and announces it to the
// warning checkers.
type ReceiveDeposit struct {
	deposits  port.DepositRepository
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewReceiveDeposit creates a ReceiveDeposit use case.
func NewReceiveDeposit(deposits port.DepositRepository, publisher port.EventPublisher, logger *slog.Logger) *ReceiveDeposit {
	return &ReceiveDeposit{deposits: deposits, publisher: publisher, logger: logger}
}

// Execute creates the deposit in RECEIVED state. Redelivery of the same
// operation returns the existing record unchanged.
func (uc *ReceiveDeposit) Execute(ctx context.Context, req dto.ReceiveDepositRequest) (*model.Deposit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := uc.deposits.FindByOperationID(ctx, req.OperationID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up deposit for operation %s: %w", req.OperationID, err)
	}
	if existing != nil {
		uc.logger.Info("deposit already recorded", "operation_id", req.OperationID, "deposit_id", existing.ID())
		return existing, nil
	}

	deposit, err := model.NewDeposit(
		req.OperationID, req.EndToEndID, req.Amount,
		req.ClientName, req.ClientDocument,
		req.ThirdPartName, req.ThirdPartDocument, req.ThirdPartBankISPB,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}
	if err := deposit.Receive(time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to receive deposit: %w", err)
	}

	if err := uc.deposits.Create(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to save deposit: %w", err)
	}

	if evts := deposit.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, DepositEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish deposit events", "error", err, "deposit_id", deposit.ID())
		}
	}

	uc.logger.Info("deposit received", "deposit_id", deposit.ID(), "operation_id", req.OperationID, "amount", req.Amount)
	return deposit, nil
}
