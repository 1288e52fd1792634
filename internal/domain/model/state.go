package model

import "fmt"

// Phase marks which half of a two-phase transition a record is in. Pending is
// the local intent written before the remote gateway agrees; Confirmed is the
// half written once the gateway acknowledged. Waiting covers transitions whose
// second half is an external settlement rather than an acknowledgement.
type Phase string

const (
	PhasePending   Phase = "PENDING"
	PhaseConfirmed Phase = "CONFIRMED"
	PhaseWaiting   Phase = "WAITING"
)

// InfractionStage identifies the step of the infraction state machine.
type InfractionStage string

const (
	InfractionStageNew      InfractionStage = "NEW"
	InfractionStageOpen     InfractionStage = "OPEN"
	InfractionStageAnalysis InfractionStage = "IN_ANALYSIS"
	InfractionStageClosed   InfractionStage = "CLOSED"
	InfractionStageCancel   InfractionStage = "CANCEL"
)

// InfractionState is the internal state of an infraction: a stage plus the
// phase of its two-phase transition. The NEW stage has no phase.
type InfractionState struct {
	Stage InfractionStage
	Phase Phase
}

// InfractionStateNew is the initial state of a freshly reported infraction.
var InfractionStateNew = InfractionState{Stage: InfractionStageNew}

// InfractionPending returns the pending half of the given stage.
func InfractionPending(stage InfractionStage) InfractionState {
	return InfractionState{Stage: stage, Phase: PhasePending}
}

// InfractionConfirmed returns the confirmed half of the given stage.
func InfractionConfirmed(stage InfractionStage) InfractionState {
	return InfractionState{Stage: stage, Phase: PhaseConfirmed}
}

// String renders the canonical state name persisted in the database,
// e.g. "CANCEL_PENDING".
func (s InfractionState) String() string {
	if s.Stage == InfractionStageNew {
		return string(InfractionStageNew)
	}
	return fmt.Sprintf("%s_%s", s.Stage, s.Phase)
}

// ParseInfractionState parses a canonical state name.
func ParseInfractionState(raw string) (InfractionState, error) {
	states := []InfractionState{
		InfractionStateNew,
		InfractionPending(InfractionStageOpen), InfractionConfirmed(InfractionStageOpen),
		InfractionPending(InfractionStageAnalysis), InfractionConfirmed(InfractionStageAnalysis),
		InfractionPending(InfractionStageClosed), InfractionConfirmed(InfractionStageClosed),
		InfractionPending(InfractionStageCancel), InfractionConfirmed(InfractionStageCancel),
	}
	for _, s := range states {
		if s.String() == raw {
			return s, nil
		}
	}
	return InfractionState{}, fmt.Errorf("%w: unknown infraction state %q", ErrInvalidDataFormat, raw)
}

// RefundStage identifies the step of the refund state machine.
type RefundStage string

const (
	RefundStageReceive RefundStage = "RECEIVE"
	RefundStageClosed  RefundStage = "CLOSED"
	RefundStageCancel  RefundStage = "CANCEL"
	RefundStageError   RefundStage = "ERROR"
)

// RefundState is the internal state of a refund: a stage plus the phase of
// its two-phase transition. The ERROR stage has no phase and is retryable.
type RefundState struct {
	Stage RefundStage
	Phase Phase
}

// RefundStateError is the retryable failure state.
var RefundStateError = RefundState{Stage: RefundStageError}

// Refund state constructors for the valid stage/phase pairs.
var (
	RefundReceivePending   = RefundState{Stage: RefundStageReceive, Phase: PhasePending}
	RefundReceiveConfirmed = RefundState{Stage: RefundStageReceive, Phase: PhaseConfirmed}
	RefundClosedPending    = RefundState{Stage: RefundStageClosed, Phase: PhasePending}
	RefundClosedWaiting    = RefundState{Stage: RefundStageClosed, Phase: PhaseWaiting}
	RefundCancelPending    = RefundState{Stage: RefundStageCancel, Phase: PhasePending}
	RefundCancelConfirmed  = RefundState{Stage: RefundStageCancel, Phase: PhaseConfirmed}
)

// String renders the canonical state name, e.g. "RECEIVE_PENDING".
func (s RefundState) String() string {
	if s.Stage == RefundStageError {
		return string(RefundStageError)
	}
	return fmt.Sprintf("%s_%s", s.Stage, s.Phase)
}

// ParseRefundState parses a canonical state name.
func ParseRefundState(raw string) (RefundState, error) {
	states := []RefundState{
		RefundReceivePending, RefundReceiveConfirmed,
		RefundClosedPending, RefundClosedWaiting,
		RefundCancelPending, RefundCancelConfirmed,
		RefundStateError,
	}
	for _, s := range states {
		if s.String() == raw {
			return s, nil
		}
	}
	return RefundState{}, fmt.Errorf("%w: unknown refund state %q", ErrInvalidDataFormat, raw)
}
