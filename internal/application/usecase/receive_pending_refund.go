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

// IssueRefundReceivedStatus is reported to the ticketing system once a
// refund issue is opened.
const IssueRefundReceivedStatus = "RECEIVED"

// ReceivePendingRefund confirms reception of a refund request after the
// ticketing system has been informed.
type ReceivePendingRefund struct {
	refunds     port.RefundRepository
	deposits    port.DepositRepository
	devolutions port.DevolutionReceivedResolver
	issues      port.IssueGateway
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewReceivePendingRefund creates a ReceivePendingRefund use case.
func NewReceivePendingRefund(
	refunds port.RefundRepository,
	deposits port.DepositRepository,
	devolutions port.DevolutionReceivedResolver,
	issues port.IssueGateway,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *ReceivePendingRefund {
	return &ReceivePendingRefund{
		refunds:     refunds,
		deposits:    deposits,
		devolutions: devolutions,
		issues:      issues,
		publisher:   publisher,
		logger:      logger,
	}
}

// Execute confirms reception. An already confirmed refund is returned
// unchanged; RECEIVE_PENDING and the retryable ERROR state are the only
// accepted starting states. Both issue gateway calls must succeed before the
// state flips, so a gateway failure leaves the record at its pre-call state
// and a redelivered event re-enters here. The gateway is idempotent by
// refund id on its side.
func (uc *ReceivePendingRefund) Execute(ctx context.Context, req dto.RefundRequest) (*model.Refund, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	refund, err := uc.refunds.FindByID(ctx, req.RefundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund %s: %w", req.RefundID, err)
	}
	if refund == nil {
		return nil, fmt.Errorf("refund %s: %w", req.RefundID, model.ErrRefundNotFound)
	}

	if refund.State() == model.RefundReceiveConfirmed {
		uc.logger.Info("refund reception already confirmed", "refund_id", refund.ID())
		return refund, nil
	}
	if refund.State() != model.RefundReceivePending && refund.State() != model.RefundStateError {
		return nil, model.NewInvalidStateError("refund", refund.ID().String(), refund.State().String(), "confirm receive")
	}

	clientName, clientDocument, err := uc.resolveTransaction(ctx, refund)
	if err != nil {
		return nil, err
	}

	issueID, err := uc.issues.CreateRefund(ctx, port.CreateRefundIssueRequest{
		RefundID:        refund.ID(),
		TransactionType: refund.TransactionType(),
		Amount:          refund.Amount(),
		Description:     refund.Description(),
		ClientName:      clientName,
		ClientDocument:  clientDocument,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create refund issue: %w", err)
	}
	if err := uc.issues.UpdateRefundStatus(ctx, issueID, IssueRefundReceivedStatus); err != nil {
		return nil, fmt.Errorf("failed to update refund issue status: %w", err)
	}

	if err := refund.ConfirmReceive(issueID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to confirm refund reception: %w", err)
	}
	if err := uc.refunds.Update(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	if evts := refund.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, RefundEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish refund events", "error", err, "refund_id", refund.ID())
		}
	}

	uc.logger.Info("refund reception confirmed", "refund_id", refund.ID(), "issue_id", issueID)
	return refund, nil
}

func (uc *ReceivePendingRefund) resolveTransaction(ctx context.Context, refund *model.Refund) (string, string, error) {
	switch refund.TransactionType() {
	case model.RefundTransactionDeposit:
		deposit, err := uc.deposits.FindByID(ctx, refund.TransactionID())
		if err != nil {
			return "", "", fmt.Errorf("failed to load deposit %s: %w", refund.TransactionID(), err)
		}
		if deposit == nil {
			return "", "", fmt.Errorf("deposit %s: %w", refund.TransactionID(), model.ErrTransactionNotFound)
		}
		return deposit.ClientName(), deposit.ClientDocument(), nil

	case model.RefundTransactionDevolutionReceived:
		devolution, err := uc.devolutions.FindByID(ctx, refund.TransactionID())
		if err != nil {
			return "", "", fmt.Errorf("failed to load devolution %s: %w", refund.TransactionID(), err)
		}
		if devolution == nil {
			return "", "", fmt.Errorf("devolution %s: %w", refund.TransactionID(), model.ErrTransactionNotFound)
		}
		return "", "", nil

	default:
		return "", "", fmt.Errorf("%w: transaction type %q", model.ErrInvalidDataFormat, refund.TransactionType())
	}
}
