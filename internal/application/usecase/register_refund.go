package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// RegisterRefund records a refund solicitation received from the PSP. The
// record starts in RECEIVE_PENDING; the receive handler picks it up from
// there.
type RegisterRefund struct {
	refunds port.RefundRepository
	logger  *slog.Logger
}

// NewRegisterRefund creates a RegisterRefund use case.
func NewRegisterRefund(refunds port.RefundRepository, logger *slog.Logger) *RegisterRefund {
	return &RegisterRefund{refunds: refunds, logger: logger}
}

// Execute registers the solicitation. Redelivery of the same PSP
// solicitation returns the existing record unchanged.
func (uc *RegisterRefund) Execute(ctx context.Context, req dto.RegisterRefundRequest) (*model.Refund, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := uc.refunds.FindBySolicitationPspID(ctx, req.SolicitationPspID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refund for solicitation %s: %w", req.SolicitationPspID, err)
	}
	if existing != nil {
		uc.logger.Info("refund already registered", "solicitation_psp_id", req.SolicitationPspID, "refund_id", existing.ID())
		return existing, nil
	}

	refund, err := model.NewRefund(req.TransactionType, req.TransactionID, req.SolicitationPspID, req.Amount, req.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}
	if err := uc.refunds.Create(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	uc.logger.Info("refund registered",
		"refund_id", refund.ID(),
		"transaction_type", req.TransactionType,
		"amount", req.Amount,
	)
	return refund, nil
}
