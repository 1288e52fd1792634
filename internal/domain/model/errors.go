package model

import (
	"errors"
	"fmt"
)

// Validation errors, raised before any state mutation.
var (
	ErrMissingData       = errors.New("missing required data")
	ErrInvalidDataFormat = errors.New("invalid data format")
)

// Not-found errors, raised when a required related entity cannot be
// resolved. These are permanent: redelivering the same event will not help
// until the upstream creates the missing entity.
var (
	ErrOperationNotFound         = errors.New("ledger operation not found")
	ErrDepositNotFound           = errors.New("deposit not found")
	ErrWarningDepositNotFound    = errors.New("warning deposit not found")
	ErrInfractionNotFound        = errors.New("infraction not found")
	ErrRefundNotFound            = errors.New("refund not found")
	ErrTransactionNotFound       = errors.New("refund transaction not found")
	ErrWarningDevolutionNotFound = errors.New("warning devolution not found")
)

// InvalidStateError reports that an entity exists but does not accept the
// requested transition. AlreadyDone marks the redelivery case: the entity is
// already in (or past) the target state, and event handlers treat it as
// success rather than a failure to retry.
type InvalidStateError struct {
	Entity      string
	ID          string
	State       string
	Transition  string
	AlreadyDone bool
}

func (e *InvalidStateError) Error() string {
	if e.AlreadyDone {
		return fmt.Sprintf("%s %s already handled: state %s accepts no further %s", e.Entity, e.ID, e.State, e.Transition)
	}
	return fmt.Sprintf("%s %s in state %s does not accept transition %s", e.Entity, e.ID, e.State, e.Transition)
}

// NewInvalidStateError builds an InvalidStateError for a genuinely wrong state.
func NewInvalidStateError(entity, id, state, transition string) *InvalidStateError {
	return &InvalidStateError{Entity: entity, ID: id, State: state, Transition: transition}
}

// NewAlreadyDoneError builds an InvalidStateError flagged as already handled.
func NewAlreadyDoneError(entity, id, state, transition string) *InvalidStateError {
	return &InvalidStateError{Entity: entity, ID: id, State: state, Transition: transition, AlreadyDone: true}
}

// IsAlreadyDone reports whether err is an InvalidStateError marking a
// transition that has already been applied.
func IsAlreadyDone(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise) && ise.AlreadyDone
}
