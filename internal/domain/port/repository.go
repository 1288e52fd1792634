package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

// Repositories return (nil, nil) when a record does not exist; callers that
// require existence translate that into the domain-specific not-found error.

// DepositRepository is the persistence port for Deposit aggregates.
type DepositRepository interface {
	Create(ctx context.Context, deposit *model.Deposit) error
	Update(ctx context.Context, deposit *model.Deposit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Deposit, error)
	FindByOperationID(ctx context.Context, operationID uuid.UUID) (*model.Deposit, error)
}

// WarningDepositRepository is the persistence port for WarningDeposit aggregates.
type WarningDepositRepository interface {
	Create(ctx context.Context, warning *model.WarningDeposit) error
	Update(ctx context.Context, warning *model.WarningDeposit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WarningDeposit, error)
	FindByOperationID(ctx context.Context, operationID uuid.UUID) (*model.WarningDeposit, error)
}

// InfractionRepository is the persistence port for Infraction aggregates.
type InfractionRepository interface {
	Create(ctx context.Context, infraction *model.Infraction) error
	Update(ctx context.Context, infraction *model.Infraction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Infraction, error)
	FindByPspID(ctx context.Context, infractionPspID string) (*model.Infraction, error)
	FindByIssueID(ctx context.Context, issueID string) (*model.Infraction, error)
}

// InfractionRefundOperationRepository is the persistence port for
// infraction/ledger-operation links.
type InfractionRefundOperationRepository interface {
	Create(ctx context.Context, op *model.InfractionRefundOperation) error
	Update(ctx context.Context, op *model.InfractionRefundOperation) error
	ListOpenByInfractionID(ctx context.Context, infractionID uuid.UUID) ([]*model.InfractionRefundOperation, error)
}

// RefundRepository is the persistence port for Refund aggregates.
type RefundRepository interface {
	Create(ctx context.Context, refund *model.Refund) error
	Update(ctx context.Context, refund *model.Refund) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Refund, error)
	FindBySolicitationPspID(ctx context.Context, solicitationPspID string) (*model.Refund, error)
}

// DevolutionReceivedResolver resolves received devolutions, the other
// transaction kind a refund may target.
type DevolutionReceivedResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.WarningDevolution, error)
}

// WarningDevolutionRepository is the persistence port for WarningDevolution aggregates.
type WarningDevolutionRepository interface {
	Create(ctx context.Context, devolution *model.WarningDevolution) error
	Update(ctx context.Context, devolution *model.WarningDevolution) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WarningDevolution, error)
	ListWaitingUpdatedBefore(ctx context.Context, cutoff time.Time) ([]*model.WarningDevolution, error)
}
