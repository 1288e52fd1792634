package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/pkg/events"
)

// InfractionStatus is the externally visible PSP status. It only changes on
// the confirmed half of a two-phase transition, except for cancellation,
// which the PSP has already decided by the time we hear about it.
type InfractionStatus string

const (
	InfractionStatusOpened     InfractionStatus = "OPENED"
	InfractionStatusInAnalysis InfractionStatus = "IN_ANALYSIS"
	InfractionStatusClosed     InfractionStatus = "CLOSED"
	InfractionStatusCancelled  InfractionStatus = "CANCELLED"
)

// AnalysisResult is the outcome of an infraction or refund analysis.
type AnalysisResult string

const (
	AnalysisResultApproved AnalysisResult = "APPROVED"
	AnalysisResultRejected AnalysisResult = "REJECTED"
)

// Infraction is a formal dispute raised by a counterparty bank. It is looked
// up by its PSP-assigned external id for PSP callbacks and by issue id for
// ticketing callbacks.
type Infraction struct {
	id              uuid.UUID
	infractionPspID string
	issueID         string
	infractionType  string
	description     string
	status          InfractionStatus
	state           InfractionState
	analysisResult  AnalysisResult
	analysisDetails string
	createdAt       time.Time
	updatedAt       time.Time
	domainEvents    []events.DomainEvent
}

// NewInfraction creates an infraction in NEW state, before the PSP has been
// informed.
func NewInfraction(issueID, infractionType, description string) (*Infraction, error) {
	if issueID == "" {
		return nil, fmt.Errorf("%w: issue id", ErrInvalidDataFormat)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description", ErrInvalidDataFormat)
	}
	if infractionType == "" {
		return nil, fmt.Errorf("%w: infraction type", ErrMissingData)
	}

	now := time.Now().UTC()
	return &Infraction{
		id:             uuid.New(),
		issueID:        issueID,
		infractionType: infractionType,
		description:    description,
		state:          InfractionStateNew,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructInfraction rebuilds an Infraction from persisted data.
func ReconstructInfraction(
	id uuid.UUID,
	infractionPspID, issueID, infractionType, description string,
	status InfractionStatus,
	state InfractionState,
	analysisResult AnalysisResult,
	analysisDetails string,
	createdAt, updatedAt time.Time,
) *Infraction {
	return &Infraction{
		id:              id,
		infractionPspID: infractionPspID,
		issueID:         issueID,
		infractionType:  infractionType,
		description:     description,
		status:          status,
		state:           state,
		analysisResult:  analysisResult,
		analysisDetails: analysisDetails,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// MarkOpenPending records that the PSP accepted the infraction, assigning its
// external id, and enters the pending half of the open transition.
func (i *Infraction) MarkOpenPending(infractionPspID string, now time.Time) error {
	if infractionPspID == "" {
		return fmt.Errorf("%w: infraction psp id", ErrMissingData)
	}
	if i.state.Stage == InfractionStageOpen {
		return NewAlreadyDoneError("infraction", i.id.String(), i.state.String(), "open")
	}
	if i.state != InfractionStateNew {
		return NewInvalidStateError("infraction", i.id.String(), i.state.String(), "open")
	}

	i.infractionPspID = infractionPspID
	i.status = InfractionStatusOpened
	i.state = InfractionPending(InfractionStageOpen)
	i.updatedAt = now
	i.domainEvents = append(i.domainEvents, event.NewInfractionEvent(
		event.TypeInfractionOpenPending, i.id, i.infractionPspID, i.issueID,
		string(i.status), i.state.String(), "", "",
	))
	return nil
}

// MoveToAnalysis enters the pending half of the analysis transition.
func (i *Infraction) MoveToAnalysis(now time.Time) error {
	if i.state.Stage == InfractionStageAnalysis {
		return NewAlreadyDoneError("infraction", i.id.String(), i.state.String(), "move to analysis")
	}
	if i.state != InfractionConfirmed(InfractionStageOpen) {
		return NewInvalidStateError("infraction", i.id.String(), i.state.String(), "move to analysis")
	}

	i.state = InfractionPending(InfractionStageAnalysis)
	i.updatedAt = now
	i.domainEvents = append(i.domainEvents, event.NewInfractionEvent(
		event.TypeInfractionAnalysisPending, i.id, i.infractionPspID, i.issueID,
		string(i.status), i.state.String(), "", "",
	))
	return nil
}

// Close records the analysis outcome and enters the pending half of the close
// transition; closure is confirmed later by a separate PSP event.
func (i *Infraction) Close(result AnalysisResult, details string, now time.Time) error {
	if i.state.Stage == InfractionStageClosed {
		return NewAlreadyDoneError("infraction", i.id.String(), i.state.String(), "close")
	}
	confirmedOpen := i.state == InfractionConfirmed(InfractionStageOpen)
	confirmedAnalysis := i.state == InfractionConfirmed(InfractionStageAnalysis)
	if !confirmedOpen && !confirmedAnalysis {
		return NewInvalidStateError("infraction", i.id.String(), i.state.String(), "close")
	}

	i.analysisResult = result
	i.analysisDetails = details
	i.state = InfractionPending(InfractionStageClosed)
	i.updatedAt = now
	i.domainEvents = append(i.domainEvents, event.NewInfractionEvent(
		event.TypeInfractionClosedPending, i.id, i.infractionPspID, i.issueID,
		string(i.status), i.state.String(), string(result), details,
	))
	return nil
}

// Confirm applies the PSP acknowledgement for the given stage, moving the
// record from the pending to the confirmed half. The externally visible
// status is updated here.
func (i *Infraction) Confirm(stage InfractionStage, now time.Time) error {
	if i.state == InfractionConfirmed(stage) {
		return NewAlreadyDoneError("infraction", i.id.String(), i.state.String(), "confirm "+string(stage))
	}
	if i.state != InfractionPending(stage) {
		return NewInvalidStateError("infraction", i.id.String(), i.state.String(), "confirm "+string(stage))
	}

	i.state = InfractionConfirmed(stage)
	switch stage {
	case InfractionStageOpen:
		i.status = InfractionStatusOpened
	case InfractionStageAnalysis:
		i.status = InfractionStatusInAnalysis
	case InfractionStageClosed:
		i.status = InfractionStatusClosed
	case InfractionStageCancel:
		i.status = InfractionStatusCancelled
	}
	i.updatedAt = now
	i.domainEvents = append(i.domainEvents, event.NewInfractionEvent(
		event.TypeInfractionConfirmed, i.id, i.infractionPspID, i.issueID,
		string(i.status), i.state.String(), string(i.analysisResult), i.analysisDetails,
	))
	return nil
}

// CancelReceived applies a PSP-side cancellation. A record already in the
// cancel stage is the redelivery case and must trigger zero further side
// effects. Cancellation may arrive from any other state: cross-handler
// ordering is not guaranteed by the transport.
func (i *Infraction) CancelReceived(result AnalysisResult, details string, now time.Time) error {
	if i.state.Stage == InfractionStageCancel {
		return NewAlreadyDoneError("infraction", i.id.String(), i.state.String(), "cancel")
	}

	i.analysisResult = result
	i.analysisDetails = details
	i.status = InfractionStatusCancelled
	i.state = InfractionPending(InfractionStageCancel)
	i.updatedAt = now
	i.domainEvents = append(i.domainEvents, event.NewInfractionEvent(
		event.TypeInfractionCancelPending, i.id, i.infractionPspID, i.issueID,
		string(i.status), i.state.String(), string(result), details,
	))
	return nil
}

// DomainEvents returns the events collected since construction or reconstruction.
func (i *Infraction) DomainEvents() []events.DomainEvent { return i.domainEvents }

// ID returns the infraction's unique identifier.
func (i *Infraction) ID() uuid.UUID { return i.id }

// InfractionPspID returns the PSP-assigned external identifier.
func (i *Infraction) InfractionPspID() string { return i.infractionPspID }

// IssueID returns the ticketing system identifier.
func (i *Infraction) IssueID() string { return i.issueID }

// InfractionType returns the dispute type.
func (i *Infraction) InfractionType() string { return i.infractionType }

// Description returns the dispute description.
func (i *Infraction) Description() string { return i.description }

// Status returns the externally visible PSP status.
func (i *Infraction) Status() InfractionStatus { return i.status }

// State returns the internal two-phase state.
func (i *Infraction) State() InfractionState { return i.state }

// AnalysisResult returns the recorded analysis outcome.
func (i *Infraction) AnalysisResult() AnalysisResult { return i.analysisResult }

// AnalysisDetails returns the recorded analysis details.
func (i *Infraction) AnalysisDetails() string { return i.analysisDetails }

// CreatedAt returns the creation timestamp.
func (i *Infraction) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the last update timestamp.
func (i *Infraction) UpdatedAt() time.Time { return i.updatedAt }
