package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InfractionRefundOperationState is the state of a link between an
// infraction and the ledger operation that funded its refund.
type InfractionRefundOperationState string

const (
	InfractionRefundOperationOpen   InfractionRefundOperationState = "OPEN"
	InfractionRefundOperationClosed InfractionRefundOperationState = "CLOSED"
)

// InfractionRefundOperation links an infraction to a ledger operation that
// must be reverted if the infraction is cancelled. Links start OPEN and are
// closed one by one as the compensation loop reverts them, so a crash
// mid-loop leaves the unreverted remainder OPEN for the retry to resume.
type InfractionRefundOperation struct {
	id                uuid.UUID
	infractionID      uuid.UUID
	refundOperationID uuid.UUID
	state             InfractionRefundOperationState
	createdAt         time.Time
	updatedAt         time.Time
}

// NewInfractionRefundOperation creates an OPEN link.
func NewInfractionRefundOperation(infractionID, refundOperationID uuid.UUID) (*InfractionRefundOperation, error) {
	if infractionID == uuid.Nil {
		return nil, fmt.Errorf("%w: infraction id", ErrMissingData)
	}
	if refundOperationID == uuid.Nil {
		return nil, fmt.Errorf("%w: refund operation id", ErrMissingData)
	}

	now := time.Now().UTC()
	return &InfractionRefundOperation{
		id:                uuid.New(),
		infractionID:      infractionID,
		refundOperationID: refundOperationID,
		state:             InfractionRefundOperationOpen,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructInfractionRefundOperation rebuilds a link from persisted data.
func ReconstructInfractionRefundOperation(
	id, infractionID, refundOperationID uuid.UUID,
	state InfractionRefundOperationState,
	createdAt, updatedAt time.Time,
) *InfractionRefundOperation {
	return &InfractionRefundOperation{
		id:                id,
		infractionID:      infractionID,
		refundOperationID: refundOperationID,
		state:             state,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Close marks the linked operation as reverted.
func (o *InfractionRefundOperation) Close(now time.Time) error {
	if o.state == InfractionRefundOperationClosed {
		return NewAlreadyDoneError("infraction refund operation", o.id.String(), string(o.state), "close")
	}

	o.state = InfractionRefundOperationClosed
	o.updatedAt = now
	return nil
}

// ID returns the link's unique identifier.
func (o *InfractionRefundOperation) ID() uuid.UUID { return o.id }

// InfractionID returns the owning infraction.
func (o *InfractionRefundOperation) InfractionID() uuid.UUID { return o.infractionID }

// RefundOperationID returns the ledger operation to revert on cancellation.
func (o *InfractionRefundOperation) RefundOperationID() uuid.UUID { return o.refundOperationID }

// State returns the current link state.
func (o *InfractionRefundOperation) State() InfractionRefundOperationState { return o.state }

// CreatedAt returns the creation timestamp.
func (o *InfractionRefundOperation) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last update timestamp.
func (o *InfractionRefundOperation) UpdatedAt() time.Time { return o.updatedAt }
