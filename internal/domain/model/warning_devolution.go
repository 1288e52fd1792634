package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/pkg/events"
)

// WarningDevolutionState is the lifecycle state of a money-return flow.
type WarningDevolutionState string

const (
	WarningDevolutionStatePending   WarningDevolutionState = "PENDING"
	WarningDevolutionStateWaiting   WarningDevolutionState = "WAITING"
	WarningDevolutionStateCompleted WarningDevolutionState = "COMPLETED"
	WarningDevolutionStateReverted  WarningDevolutionState = "REVERTED"
)

// DevolutionCode tells the PSP why money is being returned.
type DevolutionCode string

const (
	DevolutionCodeOriginal DevolutionCode = "ORIGINAL"
	DevolutionCodeFraud    DevolutionCode = "FRAUD"
)

// WarningDevolution returns previously received funds to the sender, either
// because a warning hold was approved or because a refund closed. Its id is
// assigned by the requester, which is what makes creation idempotent under
// event redelivery.
type WarningDevolution struct {
	id               uuid.UUID
	warningDepositID uuid.UUID
	endToEndID       string
	amount           decimal.Decimal
	devolutionCode   DevolutionCode
	description      string
	failureReason    string
	state            WarningDevolutionState
	createdAt        time.Time
	updatedAt        time.Time
	domainEvents     []events.DomainEvent
}

// NewWarningDevolution creates a devolution in PENDING state under the
// caller-supplied id.
func NewWarningDevolution(
	id, warningDepositID uuid.UUID,
	endToEndID string,
	amount decimal.Decimal,
	code DevolutionCode,
	description string,
) (*WarningDevolution, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: devolution id", ErrMissingData)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidDataFormat)
	}
	if code != DevolutionCodeOriginal && code != DevolutionCodeFraud {
		return nil, fmt.Errorf("%w: unknown devolution code %q", ErrInvalidDataFormat, code)
	}

	now := time.Now().UTC()
	d := &WarningDevolution{
		id:               id,
		warningDepositID: warningDepositID,
		endToEndID:       endToEndID,
		amount:           amount,
		devolutionCode:   code,
		description:      description,
		state:            WarningDevolutionStatePending,
		createdAt:        now,
		updatedAt:        now,
	}
	d.domainEvents = append(d.domainEvents, event.NewWarningDevolutionEvent(
		event.TypeWarningDevolutionPending, d.id, warningDepositID, amount, string(code), string(d.state), "",
	))
	return d, nil
}

// ReconstructWarningDevolution rebuilds a WarningDevolution from persisted data.
func ReconstructWarningDevolution(
	id, warningDepositID uuid.UUID,
	endToEndID string,
	amount decimal.Decimal,
	code DevolutionCode,
	description, failureReason string,
	state WarningDevolutionState,
	createdAt, updatedAt time.Time,
) *WarningDevolution {
	return &WarningDevolution{
		id:               id,
		warningDepositID: warningDepositID,
		endToEndID:       endToEndID,
		amount:           amount,
		devolutionCode:   code,
		description:      description,
		failureReason:    failureReason,
		state:            state,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// Submit moves the devolution to WAITING once the PSP accepted it.
func (d *WarningDevolution) Submit(now time.Time) error {
	if d.state == WarningDevolutionStateWaiting {
		return NewAlreadyDoneError("warning devolution", d.id.String(), string(d.state), "submit")
	}
	if d.state != WarningDevolutionStatePending {
		return NewInvalidStateError("warning devolution", d.id.String(), string(d.state), "submit")
	}

	d.state = WarningDevolutionStateWaiting
	d.updatedAt = now
	d.domainEvents = append(d.domainEvents, event.NewWarningDevolutionEvent(
		event.TypeWarningDevolutionWaiting, d.id, d.warningDepositID, d.amount, string(d.devolutionCode), string(d.state), "",
	))
	return nil
}

// Complete marks the devolution as settled by the PSP.
func (d *WarningDevolution) Complete(now time.Time) error {
	if d.state == WarningDevolutionStateCompleted {
		return NewAlreadyDoneError("warning devolution", d.id.String(), string(d.state), "complete")
	}
	if d.state != WarningDevolutionStateWaiting {
		return NewInvalidStateError("warning devolution", d.id.String(), string(d.state), "complete")
	}

	d.state = WarningDevolutionStateCompleted
	d.updatedAt = now
	d.domainEvents = append(d.domainEvents, event.NewWarningDevolutionEvent(
		event.TypeWarningDevolutionCompleted, d.id, d.warningDepositID, d.amount, string(d.devolutionCode), string(d.state), "",
	))
	return nil
}

// Revert marks the devolution as charged back, recording the translated
// failure reason.
func (d *WarningDevolution) Revert(reason string, now time.Time) error {
	if d.state == WarningDevolutionStateReverted {
		return NewAlreadyDoneError("warning devolution", d.id.String(), string(d.state), "revert")
	}
	if d.state != WarningDevolutionStateWaiting {
		return NewInvalidStateError("warning devolution", d.id.String(), string(d.state), "revert")
	}

	d.failureReason = reason
	d.state = WarningDevolutionStateReverted
	d.updatedAt = now
	d.domainEvents = append(d.domainEvents, event.NewWarningDevolutionEvent(
		event.TypeWarningDevolutionReverted, d.id, d.warningDepositID, d.amount, string(d.devolutionCode), string(d.state), reason,
	))
	return nil
}

// DomainEvents returns the events collected since construction or reconstruction.
func (d *WarningDevolution) DomainEvents() []events.DomainEvent { return d.domainEvents }

// ID returns the devolution's identifier (assigned by the requester).
func (d *WarningDevolution) ID() uuid.UUID { return d.id }

// WarningDepositID returns the hold that triggered this devolution, uuid.Nil
// for refund-driven devolutions.
func (d *WarningDevolution) WarningDepositID() uuid.UUID { return d.warningDepositID }

// EndToEndID returns the pix end-to-end identifier of the original credit.
func (d *WarningDevolution) EndToEndID() string { return d.endToEndID }

// Amount returns the amount being returned.
func (d *WarningDevolution) Amount() decimal.Decimal { return d.amount }

// DevolutionCode returns the PSP devolution reason code.
func (d *WarningDevolution) DevolutionCode() DevolutionCode { return d.devolutionCode }

// Description returns the devolution description.
func (d *WarningDevolution) Description() string { return d.description }

// FailureReason returns the translated chargeback reason, if any.
func (d *WarningDevolution) FailureReason() string { return d.failureReason }

// State returns the current devolution state.
func (d *WarningDevolution) State() WarningDevolutionState { return d.state }

// CreatedAt returns the creation timestamp.
func (d *WarningDevolution) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last update timestamp.
func (d *WarningDevolution) UpdatedAt() time.Time { return d.updatedAt }
