package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/pkg/events"
)

// RefundTransactionType identifies which kind of transaction a refund targets.
type RefundTransactionType string

const (
	RefundTransactionDeposit            RefundTransactionType = "DEPOSIT"
	RefundTransactionDevolutionReceived RefundTransactionType = "DEVOLUTION_RECEIVED"
)

// Refund is a refund request tied to a deposit or a received devolution.
type Refund struct {
	id                uuid.UUID
	transactionType   RefundTransactionType
	transactionID     uuid.UUID
	issueID           string
	solicitationPspID string
	amount            decimal.Decimal
	description       string
	state             RefundState
	createdAt         time.Time
	updatedAt         time.Time
	domainEvents      []events.DomainEvent
}

// NewRefund creates a refund request in RECEIVE_PENDING state.
func NewRefund(
	transactionType RefundTransactionType,
	transactionID uuid.UUID,
	solicitationPspID string,
	amount decimal.Decimal,
	description string,
) (*Refund, error) {
	if transactionType != RefundTransactionDeposit && transactionType != RefundTransactionDevolutionReceived {
		return nil, fmt.Errorf("%w: unknown refund transaction type %q", ErrInvalidDataFormat, transactionType)
	}
	if transactionID == uuid.Nil {
		return nil, fmt.Errorf("%w: transaction id", ErrMissingData)
	}
	if solicitationPspID == "" {
		return nil, fmt.Errorf("%w: solicitation psp id", ErrMissingData)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidDataFormat)
	}

	now := time.Now().UTC()
	return &Refund{
		id:                uuid.New(),
		transactionType:   transactionType,
		transactionID:     transactionID,
		solicitationPspID: solicitationPspID,
		amount:            amount,
		description:       description,
		state:             RefundReceivePending,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructRefund rebuilds a Refund from persisted data.
func ReconstructRefund(
	id uuid.UUID,
	transactionType RefundTransactionType,
	transactionID uuid.UUID,
	issueID, solicitationPspID string,
	amount decimal.Decimal,
	description string,
	state RefundState,
	createdAt, updatedAt time.Time,
) *Refund {
	return &Refund{
		id:                id,
		transactionType:   transactionType,
		transactionID:     transactionID,
		issueID:           issueID,
		solicitationPspID: solicitationPspID,
		amount:            amount,
		description:       description,
		state:             state,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// ConfirmReceive completes reception once the issue tracker has been
// informed. RECEIVE_PENDING and ERROR are the only accepted starting states:
// a failed attempt is always safe to retry. An already confirmed refund is
// the redelivery case.
func (r *Refund) ConfirmReceive(issueID string, now time.Time) error {
	if r.state == RefundReceiveConfirmed {
		return NewAlreadyDoneError("refund", r.id.String(), r.state.String(), "confirm receive")
	}
	if r.state != RefundReceivePending && r.state != RefundStateError {
		return NewInvalidStateError("refund", r.id.String(), r.state.String(), "confirm receive")
	}
	if issueID == "" {
		return fmt.Errorf("%w: issue id", ErrMissingData)
	}

	r.issueID = issueID
	r.state = RefundReceiveConfirmed
	r.updatedAt = now
	r.domainEvents = append(r.domainEvents, event.NewRefundEvent(
		event.TypeRefundReceiveConfirmed, r.id, string(r.transactionType), r.transactionID, r.amount, r.state.String(),
	))
	return nil
}

// Close moves the refund to CLOSED_WAITING. Closing a refund always returns
// the money, so the caller emits a devolution-create request alongside the
// refund event.
func (r *Refund) Close(details string, now time.Time) error {
	if r.state == RefundClosedWaiting {
		return NewAlreadyDoneError("refund", r.id.String(), r.state.String(), "close")
	}
	switch r.state {
	case RefundReceiveConfirmed, RefundClosedPending, RefundStateError:
		// allowed
	default:
		return NewInvalidStateError("refund", r.id.String(), r.state.String(), "close")
	}

	if details != "" {
		r.description = details
	}
	r.state = RefundClosedWaiting
	r.updatedAt = now
	r.domainEvents = append(r.domainEvents, event.NewRefundEvent(
		event.TypeRefundClosedWaiting, r.id, string(r.transactionType), r.transactionID, r.amount, r.state.String(),
	))
	return nil
}

// Cancel moves the refund to CANCEL_CONFIRMED after the PSP cancellation
// request succeeded.
func (r *Refund) Cancel(now time.Time) error {
	if r.state == RefundCancelConfirmed {
		return NewAlreadyDoneError("refund", r.id.String(), r.state.String(), "cancel")
	}
	switch r.state {
	case RefundReceivePending, RefundReceiveConfirmed, RefundCancelPending, RefundStateError:
		// allowed
	default:
		return NewInvalidStateError("refund", r.id.String(), r.state.String(), "cancel")
	}

	r.state = RefundCancelConfirmed
	r.updatedAt = now
	r.domainEvents = append(r.domainEvents, event.NewRefundEvent(
		event.TypeRefundCancelConfirmed, r.id, string(r.transactionType), r.transactionID, r.amount, r.state.String(),
	))
	return nil
}

// MarkError parks the refund in the retryable ERROR state. Terminal states
// are left untouched.
func (r *Refund) MarkError(now time.Time) error {
	switch r.state {
	case RefundClosedWaiting, RefundCancelConfirmed:
		return NewInvalidStateError("refund", r.id.String(), r.state.String(), "mark error")
	case RefundStateError:
		return NewAlreadyDoneError("refund", r.id.String(), r.state.String(), "mark error")
	}

	r.state = RefundStateError
	r.updatedAt = now
	r.domainEvents = append(r.domainEvents, event.NewRefundEvent(
		event.TypeRefundMarkedError, r.id, string(r.transactionType), r.transactionID, r.amount, r.state.String(),
	))
	return nil
}

// DomainEvents returns the events collected since construction or reconstruction.
func (r *Refund) DomainEvents() []events.DomainEvent { return r.domainEvents }

// ID returns the refund's unique identifier.
func (r *Refund) ID() uuid.UUID { return r.id }

// TransactionType returns the kind of transaction being refunded.
func (r *Refund) TransactionType() RefundTransactionType { return r.transactionType }

// TransactionID returns the refunded transaction's identifier.
func (r *Refund) TransactionID() uuid.UUID { return r.transactionID }

// IssueID returns the ticketing system identifier, empty until reception is confirmed.
func (r *Refund) IssueID() string { return r.issueID }

// SolicitationPspID returns the PSP identifier of the refund solicitation.
func (r *Refund) SolicitationPspID() string { return r.solicitationPspID }

// Amount returns the refund amount.
func (r *Refund) Amount() decimal.Decimal { return r.amount }

// Description returns the refund description.
func (r *Refund) Description() string { return r.description }

// State returns the current refund state.
func (r *Refund) State() RefundState { return r.state }

// CreatedAt returns the creation timestamp.
func (r *Refund) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp.
func (r *Refund) UpdatedAt() time.Time { return r.updatedAt }
