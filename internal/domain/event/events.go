// Package event defines the typed domain events emitted after every
// committed lifecycle transition. Consumers must treat redelivery of any of
// these events as a no-op; the emitting aggregates guarantee idempotency.
package event

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/pkg/events"
)

// Event type names. One per committed transition.
const (
	TypeDepositReceived                  = "pix.deposit.received"
	TypeDepositBlocked                   = "pix.deposit.blocked"
	TypeWarningDepositCreated            = "pix.warning_deposit.created"
	TypeWarningDepositApproved           = "pix.warning_deposit.approved"
	TypeWarningDepositRejected           = "pix.warning_deposit.rejected"
	TypeInfractionOpenPending            = "pix.infraction.open_pending"
	TypeInfractionAnalysisPending        = "pix.infraction.in_analysis_pending"
	TypeInfractionClosedPending          = "pix.infraction.closed_pending"
	TypeInfractionConfirmed              = "pix.infraction.confirmed"
	TypeInfractionCancelPending          = "pix.infraction.cancel_pending"
	TypeRefundReceiveConfirmed           = "pix.refund.receive_confirmed"
	TypeRefundClosedWaiting              = "pix.refund.closed_waiting"
	TypeRefundCancelConfirmed            = "pix.refund.cancel_confirmed"
	TypeRefundMarkedError                = "pix.refund.error"
	TypeWarningDevolutionCreateRequested = "pix.warning_devolution.create_requested"
	TypeWarningDevolutionPending         = "pix.warning_devolution.pending"
	TypeWarningDevolutionWaiting         = "pix.warning_devolution.waiting"
	TypeWarningDevolutionCompleted       = "pix.warning_devolution.completed"
	TypeWarningDevolutionReverted        = "pix.warning_devolution.reverted"
)

// DepositReceived is emitted when an inbound pix credit is recorded.
type DepositReceived struct {
	events.BaseEvent
	OperationID uuid.UUID       `json:"operation_id"`
	EndToEndID  string          `json:"end_to_end_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewDepositReceived creates a DepositReceived event.
func NewDepositReceived(depositID, operationID uuid.UUID, endToEndID string, amount decimal.Decimal) DepositReceived {
	return DepositReceived{
		BaseEvent:   events.NewBaseEvent(TypeDepositReceived, depositID, "Deposit"),
		OperationID: operationID,
		EndToEndID:  endToEndID,
		Amount:      amount,
	}
}

// DepositBlocked is emitted when a deposit is blocked by an approved warning hold.
type DepositBlocked struct {
	events.BaseEvent
	OperationID uuid.UUID       `json:"operation_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewDepositBlocked creates a DepositBlocked event.
func NewDepositBlocked(depositID, operationID uuid.UUID, amount decimal.Decimal) DepositBlocked {
	return DepositBlocked{
		BaseEvent:   events.NewBaseEvent(TypeDepositBlocked, depositID, "Deposit"),
		OperationID: operationID,
		Amount:      amount,
	}
}

// WarningDepositCreated is emitted when checker results justify a hold.
type WarningDepositCreated struct {
	events.BaseEvent
	OperationID uuid.UUID       `json:"operation_id"`
	Checks      map[string]bool `json:"checks"`
}

// NewWarningDepositCreated creates a WarningDepositCreated event.
func NewWarningDepositCreated(warningDepositID, operationID uuid.UUID, checks map[string]bool) WarningDepositCreated {
	return WarningDepositCreated{
		BaseEvent:   events.NewBaseEvent(TypeWarningDepositCreated, warningDepositID, "WarningDeposit"),
		OperationID: operationID,
		Checks:      checks,
	}
}

// WarningDepositApproved is emitted when a hold is confirmed as fraud.
type WarningDepositApproved struct {
	events.BaseEvent
	OperationID uuid.UUID `json:"operation_id"`
}

// NewWarningDepositApproved creates a WarningDepositApproved event.
func NewWarningDepositApproved(warningDepositID, operationID uuid.UUID) WarningDepositApproved {
	return WarningDepositApproved{
		BaseEvent:   events.NewBaseEvent(TypeWarningDepositApproved, warningDepositID, "WarningDeposit"),
		OperationID: operationID,
	}
}

// WarningDepositRejected is emitted when review releases a hold.
type WarningDepositRejected struct {
	events.BaseEvent
	OperationID uuid.UUID `json:"operation_id"`
	Reason      string    `json:"reason"`
}

// NewWarningDepositRejected creates a WarningDepositRejected event.
func NewWarningDepositRejected(warningDepositID, operationID uuid.UUID, reason string) WarningDepositRejected {
	return WarningDepositRejected{
		BaseEvent:   events.NewBaseEvent(TypeWarningDepositRejected, warningDepositID, "WarningDeposit"),
		OperationID: operationID,
		Reason:      reason,
	}
}

// InfractionEvent carries the fields shared by every infraction transition.
type InfractionEvent struct {
	events.BaseEvent
	InfractionPspID string `json:"infraction_psp_id"`
	IssueID         string `json:"issue_id"`
	Status          string `json:"status"`
	State           string `json:"state"`
	AnalysisResult  string `json:"analysis_result,omitempty"`
	AnalysisDetails string `json:"analysis_details,omitempty"`
}

// NewInfractionEvent creates an infraction event of the given type.
func NewInfractionEvent(eventType string, infractionID uuid.UUID, infractionPspID, issueID, status, state, analysisResult, analysisDetails string) InfractionEvent {
	return InfractionEvent{
		BaseEvent:       events.NewBaseEvent(eventType, infractionID, "Infraction"),
		InfractionPspID: infractionPspID,
		IssueID:         issueID,
		Status:          status,
		State:           state,
		AnalysisResult:  analysisResult,
		AnalysisDetails: analysisDetails,
	}
}

// RefundEvent carries the fields shared by every refund transition.
type RefundEvent struct {
	events.BaseEvent
	TransactionType string          `json:"transaction_type"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
	State           string          `json:"state"`
}

// NewRefundEvent creates a refund event of the given type.
func NewRefundEvent(eventType string, refundID uuid.UUID, transactionType string, transactionID uuid.UUID, amount decimal.Decimal, state string) RefundEvent {
	return RefundEvent{
		BaseEvent:       events.NewBaseEvent(eventType, refundID, "Refund"),
		TransactionType: transactionType,
		TransactionID:   transactionID,
		Amount:          amount,
		State:           state,
	}
}

// WarningDevolutionCreateRequested asks the devolution lifecycle to build a
// new record. The devolution id is generated by the requester so the create
// handler stays idempotent under redelivery.
type WarningDevolutionCreateRequested struct {
	events.BaseEvent
	WarningDepositID uuid.UUID `json:"warning_deposit_id"`
}

// NewWarningDevolutionCreateRequested creates a create-request event for the
// given (pre-generated) devolution id.
func NewWarningDevolutionCreateRequested(devolutionID, warningDepositID uuid.UUID) WarningDevolutionCreateRequested {
	return WarningDevolutionCreateRequested{
		BaseEvent:        events.NewBaseEvent(TypeWarningDevolutionCreateRequested, devolutionID, "WarningDevolution"),
		WarningDepositID: warningDepositID,
	}
}

// WarningDevolutionEvent carries the fields shared by devolution transitions.
type WarningDevolutionEvent struct {
	events.BaseEvent
	WarningDepositID uuid.UUID       `json:"warning_deposit_id"`
	Amount           decimal.Decimal `json:"amount"`
	DevolutionCode   string          `json:"devolution_code"`
	State            string          `json:"state"`
	FailureReason    string          `json:"failure_reason,omitempty"`
}

// NewWarningDevolutionEvent creates a devolution event of the given type.
func NewWarningDevolutionEvent(eventType string, devolutionID, warningDepositID uuid.UUID, amount decimal.Decimal, devolutionCode, state, failureReason string) WarningDevolutionEvent {
	return WarningDevolutionEvent{
		BaseEvent:        events.NewBaseEvent(eventType, devolutionID, "WarningDevolution"),
		WarningDepositID: warningDepositID,
		Amount:           amount,
		DevolutionCode:   devolutionCode,
		State:            state,
		FailureReason:    failureReason,
	}
}
