package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/pkg/events"
)

// WarningDepositState is the lifecycle state of a fraud/compliance hold.
type WarningDepositState string

const (
	WarningDepositStateCreated  WarningDepositState = "CREATED"
	WarningDepositStateApproved WarningDepositState = "APPROVED"
	WarningDepositStateRejected WarningDepositState = "REJECTED"
)

// WarningOrigin records who placed the hold. System holds come from the
// checkers and return money under the FRAUD devolution code; user holds
// return it under ORIGINAL.
type WarningOrigin string

const (
	WarningOriginSystem WarningOrigin = "SYSTEM"
	WarningOriginUser   WarningOrigin = "USER"
)

// WarningDeposit is a hold placed on a deposit pending review. Exactly one
// exists per flagged ledger operation.
type WarningDeposit struct {
	id             uuid.UUID
	operationID    uuid.UUID
	origin         WarningOrigin
	checks         map[string]bool
	rejectedReason string
	state          WarningDepositState
	createdAt      time.Time
	updatedAt      time.Time
	domainEvents   []events.DomainEvent
}

// NewWarningDeposit creates a hold in CREATED state with a snapshot of the
// checker verdicts that justified it.
func NewWarningDeposit(operationID uuid.UUID, origin WarningOrigin, checks map[string]bool) (*WarningDeposit, error) {
	if operationID == uuid.Nil {
		return nil, fmt.Errorf("%w: operation id", ErrMissingData)
	}
	if origin != WarningOriginSystem && origin != WarningOriginUser {
		return nil, fmt.Errorf("%w: unknown warning origin %q", ErrInvalidDataFormat, origin)
	}

	snapshot := make(map[string]bool, len(checks))
	for k, v := range checks {
		snapshot[k] = v
	}

	now := time.Now().UTC()
	w := &WarningDeposit{
		id:          uuid.New(),
		operationID: operationID,
		origin:      origin,
		checks:      snapshot,
		state:       WarningDepositStateCreated,
		createdAt:   now,
		updatedAt:   now,
	}
	w.domainEvents = append(w.domainEvents, event.NewWarningDepositCreated(w.id, operationID, snapshot))
	return w, nil
}

// ReconstructWarningDeposit rebuilds a WarningDeposit from persisted data.
func ReconstructWarningDeposit(
	id, operationID uuid.UUID,
	origin WarningOrigin,
	checks map[string]bool,
	rejectedReason string,
	state WarningDepositState,
	createdAt, updatedAt time.Time,
) *WarningDeposit {
	if checks == nil {
		checks = make(map[string]bool)
	}
	return &WarningDeposit{
		id:             id,
		operationID:    operationID,
		origin:         origin,
		checks:         checks,
		rejectedReason: rejectedReason,
		state:          state,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// Approve confirms the hold as fraud. Approving twice is the redelivery case.
func (w *WarningDeposit) Approve(now time.Time) error {
	switch w.state {
	case WarningDepositStateApproved:
		return NewAlreadyDoneError("warning deposit", w.id.String(), string(w.state), "approve")
	case WarningDepositStateRejected:
		return NewInvalidStateError("warning deposit", w.id.String(), string(w.state), "approve")
	}

	w.state = WarningDepositStateApproved
	w.updatedAt = now
	w.domainEvents = append(w.domainEvents, event.NewWarningDepositApproved(w.id, w.operationID))
	return nil
}

// Reject releases the hold after review. Only a CREATED hold can be rejected.
func (w *WarningDeposit) Reject(reason string, now time.Time) error {
	if reason == "" {
		return fmt.Errorf("%w: rejection reason", ErrMissingData)
	}
	switch w.state {
	case WarningDepositStateRejected:
		return NewAlreadyDoneError("warning deposit", w.id.String(), string(w.state), "reject")
	case WarningDepositStateApproved:
		return NewInvalidStateError("warning deposit", w.id.String(), string(w.state), "reject")
	}

	w.state = WarningDepositStateRejected
	w.rejectedReason = reason
	w.updatedAt = now
	w.domainEvents = append(w.domainEvents, event.NewWarningDepositRejected(w.id, w.operationID, reason))
	return nil
}

// DomainEvents returns the events collected since construction or reconstruction.
func (w *WarningDeposit) DomainEvents() []events.DomainEvent { return w.domainEvents }

// ID returns the hold's unique identifier.
func (w *WarningDeposit) ID() uuid.UUID { return w.id }

// OperationID returns the ledger operation this hold applies to.
func (w *WarningDeposit) OperationID() uuid.UUID { return w.operationID }

// Origin returns who placed the hold.
func (w *WarningDeposit) Origin() WarningOrigin { return w.origin }

// Checks returns the snapshot of checker verdicts taken at creation.
func (w *WarningDeposit) Checks() map[string]bool { return w.checks }

// RejectedReason returns the review reason for a rejected hold.
func (w *WarningDeposit) RejectedReason() string { return w.rejectedReason }

// State returns the current hold state.
func (w *WarningDeposit) State() WarningDepositState { return w.state }

// CreatedAt returns the creation timestamp.
func (w *WarningDeposit) CreatedAt() time.Time { return w.createdAt }

// UpdatedAt returns the last update timestamp.
func (w *WarningDeposit) UpdatedAt() time.Time { return w.updatedAt }
