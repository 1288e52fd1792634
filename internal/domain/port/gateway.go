package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/pkg/events"
)

// Operation is a settled money movement in the external ledger.
type Operation struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	State     string
	CreatedAt time.Time
}

// LedgerGateway is the narrow interface to the settlement ledger. Both calls
// must be safe to repeat for the same operation id; revert is idempotent on
// the ledger side.
type LedgerGateway interface {
	// GetOperationByID returns the operation, or nil when it does not exist.
	GetOperationByID(ctx context.Context, id uuid.UUID) (*Operation, error)

	// RevertOperation reverses the effect of a settled operation.
	RevertOperation(ctx context.Context, id uuid.UUID) error
}

// CreateInfractionRequest carries the fields the PSP needs to register a dispute.
type CreateInfractionRequest struct {
	OperationID    uuid.UUID
	InfractionType string
	Description    string
}

// DevolutionSettlement is the PSP-side settlement status of a devolution.
type DevolutionSettlement string

const (
	DevolutionSettled    DevolutionSettlement = "SETTLED"
	DevolutionChargeback DevolutionSettlement = "CHARGEBACK"
	DevolutionProcessing DevolutionSettlement = "PROCESSING"
)

// PixDevolution is the PSP view of a devolution.
type PixDevolution struct {
	ID            uuid.UUID
	Status        DevolutionSettlement
	FailureReason string
}

// PSPGateway is the interface to the payment service provider.
type PSPGateway interface {
	// CreateInfraction registers the dispute and returns the PSP-assigned id.
	CreateInfraction(ctx context.Context, req CreateInfractionRequest) (string, error)

	// CloseInfraction reports the analysis outcome for an open dispute.
	CloseInfraction(ctx context.Context, infractionPspID string, result model.AnalysisResult, details string) error

	// CancelInfraction withdraws a dispute previously registered.
	CancelInfraction(ctx context.Context, infractionPspID string) error

	// GetInfractions lists disputes currently assigned to this participant.
	GetInfractions(ctx context.Context) ([]CreateInfractionRequest, error)

	// CancelRefundRequest withdraws a refund solicitation.
	CancelRefundRequest(ctx context.Context, solicitationPspID string) error

	// CreatePixDevolution submits a devolution for the given end-to-end id.
	CreatePixDevolution(ctx context.Context, devolutionID uuid.UUID, endToEndID string, amount decimal.Decimal, code model.DevolutionCode) error

	// GetPixDevolutionByID returns the PSP settlement view of a devolution.
	GetPixDevolutionByID(ctx context.Context, devolutionID uuid.UUID) (*PixDevolution, error)
}

// CreateRefundIssueRequest carries the fields the ticketing system needs to
// open a refund issue.
type CreateRefundIssueRequest struct {
	RefundID        uuid.UUID
	TransactionType model.RefundTransactionType
	Amount          decimal.Decimal
	Description     string
	ClientName      string
	ClientDocument  string
}

// IssueGateway is the interface to the ticketing system. Calls are expected
// to be idempotent by refund id on the remote side.
type IssueGateway interface {
	// CreateRefund opens a refund issue and returns its issue id.
	CreateRefund(ctx context.Context, req CreateRefundIssueRequest) (string, error)

	// UpdateRefundStatus moves the issue to the given status.
	UpdateRefundStatus(ctx context.Context, issueID string, status string) error
}

// EventPublisher publishes domain events to the given topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, evts ...events.DomainEvent) error
}
