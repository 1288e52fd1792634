package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/pkg/events"
)

// DepositState is the lifecycle state of a received pix credit.
type DepositState string

const (
	DepositStateNew      DepositState = "NEW"
	DepositStateReceived DepositState = "RECEIVED"
	DepositStateBlocked  DepositState = "BLOCKED"
	DepositStateReturned DepositState = "RETURNED"
)

// Deposit is the aggregate root for an inbound pix credit. Checker verdicts
// accumulate in the checks map; a WarningDeposit row only comes into
// existence once the verdicts justify a hold.
type Deposit struct {
	id                uuid.UUID
	operationID       uuid.UUID
	endToEndID        string
	clientName        string
	clientDocument    string
	thirdPartName     string
	thirdPartDocument string
	thirdPartBankISPB string
	amount            decimal.Decimal
	returnedAmount    decimal.Decimal
	checks            map[string]bool
	state             DepositState
	createdAt         time.Time
	updatedAt         time.Time
	domainEvents      []events.DomainEvent
}

// NewDeposit creates a Deposit in NEW state for a settled ledger operation.
func NewDeposit(
	operationID uuid.UUID,
	endToEndID string,
	amount decimal.Decimal,
	clientName, clientDocument string,
	thirdPartName, thirdPartDocument, thirdPartBankISPB string,
) (*Deposit, error) {
	if operationID == uuid.Nil {
		return nil, fmt.Errorf("%w: operation id", ErrMissingData)
	}
	if endToEndID == "" {
		return nil, fmt.Errorf("%w: end to end id", ErrMissingData)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidDataFormat)
	}

	now := time.Now().UTC()
	return &Deposit{
		id:                uuid.New(),
		operationID:       operationID,
		endToEndID:        endToEndID,
		clientName:        clientName,
		clientDocument:    clientDocument,
		thirdPartName:     thirdPartName,
		thirdPartDocument: thirdPartDocument,
		thirdPartBankISPB: thirdPartBankISPB,
		amount:            amount,
		checks:            make(map[string]bool),
		state:             DepositStateNew,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructDeposit rebuilds a Deposit from persisted data without
// validation or events. Used by repository implementations.
func ReconstructDeposit(
	id, operationID uuid.UUID,
	endToEndID string,
	amount, returnedAmount decimal.Decimal,
	clientName, clientDocument string,
	thirdPartName, thirdPartDocument, thirdPartBankISPB string,
	checks map[string]bool,
	state DepositState,
	createdAt, updatedAt time.Time,
) *Deposit {
	if checks == nil {
		checks = make(map[string]bool)
	}
	return &Deposit{
		id:                id,
		operationID:       operationID,
		endToEndID:        endToEndID,
		clientName:        clientName,
		clientDocument:    clientDocument,
		thirdPartName:     thirdPartName,
		thirdPartDocument: thirdPartDocument,
		thirdPartBankISPB: thirdPartBankISPB,
		amount:            amount,
		returnedAmount:    returnedAmount,
		checks:            checks,
		state:             state,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Receive transitions the deposit from NEW to RECEIVED and emits
// DepositReceived, which fans out to the warning checkers.
func (d *Deposit) Receive(now time.Time) error {
	if d.state != DepositStateNew {
		if d.state == DepositStateReceived {
			return NewAlreadyDoneError("deposit", d.id.String(), string(d.state), "receive")
		}
		return NewInvalidStateError("deposit", d.id.String(), string(d.state), "receive")
	}

	d.state = DepositStateReceived
	d.updatedAt = now
	d.domainEvents = append(d.domainEvents, event.NewDepositReceived(d.id, d.operationID, d.endToEndID, d.amount))
	return nil
}

// RecordCheck stores one checker verdict. Verdicts are only accepted while
// the deposit is NEW or RECEIVED; a repeated verdict for the same checker is
// an idempotent overwrite.
func (d *Deposit) RecordCheck(checker string, flagged bool, now time.Time) error {
	if checker == "" {
		return fmt.Errorf("%w: checker name", ErrMissingData)
	}
	if d.state != DepositStateNew && d.state != DepositStateReceived {
		return NewInvalidStateError("deposit", d.id.String(), string(d.state), "record check "+checker)
	}

	d.checks[checker] = flagged
	d.updatedAt = now
	return nil
}

// AllChecksReported reports whether every registered checker has written a verdict.
func (d *Deposit) AllChecksReported(registered []string) bool {
	for _, name := range registered {
		if _, ok := d.checks[name]; !ok {
			return false
		}
	}
	return true
}

// AnyCheckFlagged reports whether at least one checker flagged the deposit.
func (d *Deposit) AnyCheckFlagged() bool {
	for _, flagged := range d.checks {
		if flagged {
			return true
		}
	}
	return false
}

// Block transitions the deposit to BLOCKED and emits DepositBlocked.
// Blocking an already blocked deposit is the redelivery case.
func (d *Deposit) Block(now time.Time) error {
	switch d.state {
	case DepositStateBlocked:
		return NewAlreadyDoneError("deposit", d.id.String(), string(d.state), "block")
	case DepositStateNew, DepositStateReceived:
		// allowed
	default:
		return NewInvalidStateError("deposit", d.id.String(), string(d.state), "block")
	}

	d.state = DepositStateBlocked
	d.updatedAt = now
	d.domainEvents = append(d.domainEvents, event.NewDepositBlocked(d.id, d.operationID, d.amount))
	return nil
}

// MarkReturned records that the full amount is being returned to the sender.
// A blocked deposit keeps its BLOCKED state; an unblocked one moves to RETURNED.
func (d *Deposit) MarkReturned(now time.Time) error {
	if d.state == DepositStateNew {
		return NewInvalidStateError("deposit", d.id.String(), string(d.state), "mark returned")
	}

	d.returnedAmount = d.amount
	if d.state == DepositStateReceived {
		d.state = DepositStateReturned
	}
	d.updatedAt = now
	return nil
}

// DomainEvents returns the events collected since construction or reconstruction.
func (d *Deposit) DomainEvents() []events.DomainEvent { return d.domainEvents }

// ID returns the deposit's unique identifier.
func (d *Deposit) ID() uuid.UUID { return d.id }

// OperationID returns the ledger operation backing this deposit.
func (d *Deposit) OperationID() uuid.UUID { return d.operationID }

// EndToEndID returns the pix end-to-end identifier.
func (d *Deposit) EndToEndID() string { return d.endToEndID }

// ClientName returns the receiving client's name.
func (d *Deposit) ClientName() string { return d.clientName }

// ClientDocument returns the receiving client's CPF/CNPJ.
func (d *Deposit) ClientDocument() string { return d.clientDocument }

// ThirdPartName returns the sender's name.
func (d *Deposit) ThirdPartName() string { return d.thirdPartName }

// ThirdPartDocument returns the sender's CPF/CNPJ.
func (d *Deposit) ThirdPartDocument() string { return d.thirdPartDocument }

// ThirdPartBankISPB returns the sender bank's ISPB code.
func (d *Deposit) ThirdPartBankISPB() string { return d.thirdPartBankISPB }

// Amount returns the deposited amount.
func (d *Deposit) Amount() decimal.Decimal { return d.amount }

// ReturnedAmount returns the amount returned to the sender, zero if none.
func (d *Deposit) ReturnedAmount() decimal.Decimal { return d.returnedAmount }

// Checks returns a copy of the recorded checker verdicts.
func (d *Deposit) Checks() map[string]bool {
	out := make(map[string]bool, len(d.checks))
	for k, v := range d.checks {
		out[k] = v
	}
	return out
}

// State returns the current deposit state.
func (d *Deposit) State() DepositState { return d.state }

// CreatedAt returns the creation timestamp.
func (d *Deposit) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last update timestamp.
func (d *Deposit) UpdatedAt() time.Time { return d.updatedAt }
