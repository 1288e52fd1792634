// Package dto defines the inbound event payloads and their validation.
// Validation runs at the top of every handler, before any repository access.
package dto

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

// ReceiveDepositRequest records an inbound pix credit.
type ReceiveDepositRequest struct {
	OperationID       uuid.UUID       `json:"operation_id"`
	EndToEndID        string          `json:"end_to_end_id"`
	Amount            decimal.Decimal `json:"amount"`
	ClientName        string          `json:"client_name"`
	ClientDocument    string          `json:"client_document"`
	ThirdPartName     string          `json:"third_part_name"`
	ThirdPartDocument string          `json:"third_part_document"`
	ThirdPartBankISPB string          `json:"third_part_bank_ispb"`
}

// Validate checks required fields.
func (r ReceiveDepositRequest) Validate() error {
	if r.OperationID == uuid.Nil {
		return fmt.Errorf("%w: operation_id", model.ErrMissingData)
	}
	if r.EndToEndID == "" {
		return fmt.Errorf("%w: end_to_end_id", model.ErrMissingData)
	}
	if r.Amount.IsNegative() || r.Amount.IsZero() {
		return fmt.Errorf("%w: amount must be positive", model.ErrInvalidDataFormat)
	}
	return nil
}

// BlockDepositRequest blocks the deposit behind a ledger operation.
type BlockDepositRequest struct {
	OperationID uuid.UUID `json:"operation_id"`
}

// Validate checks required fields.
func (r BlockDepositRequest) Validate() error {
	if r.OperationID == uuid.Nil {
		return fmt.Errorf("%w: operation_id", model.ErrMissingData)
	}
	return nil
}

// EvaluateDepositCheckRequest runs one named checker against a deposit.
type EvaluateDepositCheckRequest struct {
	OperationID uuid.UUID `json:"operation_id"`
	CheckerName string    `json:"checker_name"`
}

// Validate checks required fields.
func (r EvaluateDepositCheckRequest) Validate() error {
	if r.OperationID == uuid.Nil {
		return fmt.Errorf("%w: operation_id", model.ErrMissingData)
	}
	if r.CheckerName == "" {
		return fmt.Errorf("%w: checker_name", model.ErrMissingData)
	}
	return nil
}

// RejectWarningRequest releases a hold after review.
type RejectWarningRequest struct {
	WarningDepositID uuid.UUID `json:"warning_deposit_id"`
	Reason           string    `json:"reason"`
}

// Validate checks required fields.
func (r RejectWarningRequest) Validate() error {
	if r.WarningDepositID == uuid.Nil {
		return fmt.Errorf("%w: warning_deposit_id", model.ErrMissingData)
	}
	if r.Reason == "" {
		return fmt.Errorf("%w: reason", model.ErrMissingData)
	}
	return nil
}

// OpenInfractionRequest reports a new dispute to the PSP.
type OpenInfractionRequest struct {
	IssueID        string    `json:"issue_id"`
	InfractionType string    `json:"infraction_type"`
	Description    string    `json:"description"`
	OperationID    uuid.UUID `json:"operation_id"`
}

// Validate checks required fields. Missing issue id or description is a
// format error, matching the contract of the open transition.
func (r OpenInfractionRequest) Validate() error {
	if r.IssueID == "" {
		return fmt.Errorf("%w: issue_id", model.ErrInvalidDataFormat)
	}
	if r.Description == "" {
		return fmt.Errorf("%w: description", model.ErrInvalidDataFormat)
	}
	if r.InfractionType == "" {
		return fmt.Errorf("%w: infraction_type", model.ErrMissingData)
	}
	return nil
}

// MoveInfractionToAnalysisRequest moves an open dispute into analysis.
type MoveInfractionToAnalysisRequest struct {
	InfractionPspID string `json:"infraction_psp_id"`
}

// Validate checks required fields.
func (r MoveInfractionToAnalysisRequest) Validate() error {
	if r.InfractionPspID == "" {
		return fmt.Errorf("%w: infraction_psp_id", model.ErrMissingData)
	}
	return nil
}

// CloseInfractionRequest records the analysis outcome of a dispute.
type CloseInfractionRequest struct {
	IssueID         string               `json:"issue_id"`
	AnalysisResult  model.AnalysisResult `json:"analysis_result"`
	AnalysisDetails string               `json:"analysis_details"`
}

// Validate checks required fields.
func (r CloseInfractionRequest) Validate() error {
	if r.IssueID == "" {
		return fmt.Errorf("%w: issue_id", model.ErrMissingData)
	}
	if r.AnalysisResult != model.AnalysisResultApproved && r.AnalysisResult != model.AnalysisResultRejected {
		return fmt.Errorf("%w: analysis_result %q", model.ErrInvalidDataFormat, r.AnalysisResult)
	}
	return nil
}

// ConfirmInfractionRequest applies a PSP acknowledgement. RefundOperationID
// is set on close confirmations that settled a refund through the ledger.
type ConfirmInfractionRequest struct {
	InfractionPspID   string                `json:"infraction_psp_id"`
	Stage             model.InfractionStage `json:"stage"`
	RefundOperationID uuid.UUID             `json:"refund_operation_id,omitempty"`
}

// Validate checks required fields.
func (r ConfirmInfractionRequest) Validate() error {
	if r.InfractionPspID == "" {
		return fmt.Errorf("%w: infraction_psp_id", model.ErrMissingData)
	}
	switch r.Stage {
	case model.InfractionStageOpen, model.InfractionStageAnalysis, model.InfractionStageClosed, model.InfractionStageCancel:
		return nil
	default:
		return fmt.Errorf("%w: stage %q", model.ErrInvalidDataFormat, r.Stage)
	}
}

// CancelInfractionReceivedRequest applies a PSP-side cancellation.
type CancelInfractionReceivedRequest struct {
	InfractionPspID string               `json:"infraction_psp_id"`
	AnalysisResult  model.AnalysisResult `json:"analysis_result"`
	AnalysisDetails string               `json:"analysis_details"`
}

// Validate checks required fields.
func (r CancelInfractionReceivedRequest) Validate() error {
	if r.InfractionPspID == "" {
		return fmt.Errorf("%w: infraction_psp_id", model.ErrMissingData)
	}
	return nil
}

// RegisterRefundRequest records a refund solicitation received from the PSP.
type RegisterRefundRequest struct {
	TransactionType   model.RefundTransactionType `json:"transaction_type"`
	TransactionID     uuid.UUID                   `json:"transaction_id"`
	SolicitationPspID string                      `json:"solicitation_psp_id"`
	Amount            decimal.Decimal             `json:"amount"`
	Description       string                      `json:"description"`
}

// Validate checks required fields.
func (r RegisterRefundRequest) Validate() error {
	if r.TransactionType != model.RefundTransactionDeposit && r.TransactionType != model.RefundTransactionDevolutionReceived {
		return fmt.Errorf("%w: transaction_type %q", model.ErrInvalidDataFormat, r.TransactionType)
	}
	if r.TransactionID == uuid.Nil {
		return fmt.Errorf("%w: transaction_id", model.ErrMissingData)
	}
	if r.SolicitationPspID == "" {
		return fmt.Errorf("%w: solicitation_psp_id", model.ErrMissingData)
	}
	if r.Amount.IsNegative() || r.Amount.IsZero() {
		return fmt.Errorf("%w: amount must be positive", model.ErrInvalidDataFormat)
	}
	return nil
}

// RefundRequest addresses an existing refund by id.
type RefundRequest struct {
	RefundID uuid.UUID `json:"refund_id"`
}

// Validate checks required fields.
func (r RefundRequest) Validate() error {
	if r.RefundID == uuid.Nil {
		return fmt.Errorf("%w: refund_id", model.ErrMissingData)
	}
	return nil
}

// ClosePendingRefundRequest closes a refund with optional analysis details.
type ClosePendingRefundRequest struct {
	RefundID        uuid.UUID `json:"refund_id"`
	AnalysisDetails string    `json:"analysis_details"`
}

// Validate checks required fields.
func (r ClosePendingRefundRequest) Validate() error {
	if r.RefundID == uuid.Nil {
		return fmt.Errorf("%w: refund_id", model.ErrMissingData)
	}
	return nil
}

// CreateWarningDevolutionRequest builds a devolution under a requester-assigned id.
type CreateWarningDevolutionRequest struct {
	DevolutionID     uuid.UUID `json:"devolution_id"`
	WarningDepositID uuid.UUID `json:"warning_deposit_id"`
}

// Validate checks required fields.
func (r CreateWarningDevolutionRequest) Validate() error {
	if r.DevolutionID == uuid.Nil {
		return fmt.Errorf("%w: devolution_id", model.ErrMissingData)
	}
	if r.WarningDepositID == uuid.Nil {
		return fmt.Errorf("%w: warning_deposit_id", model.ErrMissingData)
	}
	return nil
}

// SubmitWarningDevolutionRequest submits a pending devolution to the PSP.
type SubmitWarningDevolutionRequest struct {
	DevolutionID uuid.UUID `json:"devolution_id"`
}

// Validate checks required fields.
func (r SubmitWarningDevolutionRequest) Validate() error {
	if r.DevolutionID == uuid.Nil {
		return fmt.Errorf("%w: devolution_id", model.ErrMissingData)
	}
	return nil
}
