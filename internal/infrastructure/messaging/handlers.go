package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/application/usecase"
	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/pkg/kafka"
)

// Inbound command topics. External systems (PSP webhook relay, ledger,
// ticketing) produce command envelopes here.
const (
	DepositCommandsTopic    = "pix.deposit.commands"
	WarningCommandsTopic    = "pix.warning.commands"
	InfractionCommandsTopic = "pix.infraction.commands"
	RefundCommandsTopic     = "pix.refund.commands"
)

// Command type names accepted on the command topics.
const (
	CmdReceiveDeposit           = "pix.deposit.receive"
	CmdBlockDeposit             = "pix.deposit.block"
	CmdRejectWarning            = "pix.warning.reject"
	CmdOpenInfraction           = "pix.infraction.open"
	CmdMoveInfractionToAnalysis = "pix.infraction.move_to_analysis"
	CmdCloseInfraction          = "pix.infraction.close"
	CmdConfirmInfraction        = "pix.infraction.confirm"
	CmdCancelInfractionReceived = "pix.infraction.cancel_received"
	CmdRegisterRefund           = "pix.refund.register"
	CmdReceivePendingRefund     = "pix.refund.receive_pending"
	CmdClosePendingRefund       = "pix.refund.close_pending"
	CmdCancelPendingRefund      = "pix.refund.cancel_pending"
	CmdMarkRefundError          = "pix.refund.mark_error"
)

// envelope is the wire format of command messages.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UseCases bundles every handler-reachable use case.
type UseCases struct {
	ReceiveDeposit           *usecase.ReceiveDeposit
	BlockDeposit             *usecase.BlockDeposit
	EvaluateDepositCheck     *usecase.EvaluateDepositCheck
	RejectWarning            *usecase.RejectWarning
	OpenInfraction           *usecase.OpenInfraction
	MoveInfractionToAnalysis *usecase.MoveInfractionToAnalysis
	CloseInfraction          *usecase.CloseInfraction
	ConfirmInfraction        *usecase.ConfirmInfraction
	CancelInfractionReceived *usecase.CancelInfractionReceived
	RegisterRefund           *usecase.RegisterRefund
	ReceivePendingRefund     *usecase.ReceivePendingRefund
	ClosePendingRefund       *usecase.ClosePendingRefund
	CancelPendingRefund      *usecase.CancelPendingRefund
	MarkRefundError          *usecase.MarkRefundError
	CreateWarningDevolution  *usecase.CreateWarningDevolution
	SubmitWarningDevolution  *usecase.SubmitWarningDevolution
}

// Handlers dispatches consumed messages to use cases. Rejected messages
// (malformed payloads, unknown types, invalid transitions) are logged and
// committed: redelivering them cannot succeed. Infrastructure failures are
// returned so the offset stays uncommitted and the message comes back.
type Handlers struct {
	uc           UseCases
	checkerNames []string
	logger       *slog.Logger
}

// NewHandlers creates the message dispatcher. checkerNames lists the
// registered warning checkers fanned out on every received deposit.
func NewHandlers(uc UseCases, checkerNames []string, logger *slog.Logger) *Handlers {
	return &Handlers{uc: uc, checkerNames: checkerNames, logger: logger}
}

// DepositCommands handles the deposit command topic.
func (h *Handlers) DepositCommands(ctx context.Context, msg kafka.Message) error {
	return h.dispatch(ctx, DepositCommandsTopic, msg, func(ctx context.Context, env envelope) error {
		switch env.Type {
		case CmdReceiveDeposit:
			var req dto.ReceiveDepositRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.ReceiveDeposit.Execute(ctx, req)
			return err
		case CmdBlockDeposit:
			var req dto.BlockDepositRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.BlockDeposit.Execute(ctx, req)
			return err
		default:
			return rejectedf("unknown command type %q", env.Type)
		}
	})
}

// WarningCommands handles the warning command topic.
func (h *Handlers) WarningCommands(ctx context.Context, msg kafka.Message) error {
	return h.dispatch(ctx, WarningCommandsTopic, msg, func(ctx context.Context, env envelope) error {
		switch env.Type {
		case CmdRejectWarning:
			var req dto.RejectWarningRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.RejectWarning.Execute(ctx, req)
			return err
		default:
			return rejectedf("unknown command type %q", env.Type)
		}
	})
}

// InfractionCommands handles the infraction command topic.
func (h *Handlers) InfractionCommands(ctx context.Context, msg kafka.Message) error {
	return h.dispatch(ctx, InfractionCommandsTopic, msg, func(ctx context.Context, env envelope) error {
		switch env.Type {
		case CmdOpenInfraction:
			var req dto.OpenInfractionRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.OpenInfraction.Execute(ctx, req)
			return err
		case CmdMoveInfractionToAnalysis:
			var req dto.MoveInfractionToAnalysisRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.MoveInfractionToAnalysis.Execute(ctx, req)
			return err
		case CmdCloseInfraction:
			var req dto.CloseInfractionRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.CloseInfraction.Execute(ctx, req)
			return err
		case CmdConfirmInfraction:
			var req dto.ConfirmInfractionRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.ConfirmInfraction.Execute(ctx, req)
			return err
		case CmdCancelInfractionReceived:
			var req dto.CancelInfractionReceivedRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.CancelInfractionReceived.Execute(ctx, req)
			return err
		default:
			return rejectedf("unknown command type %q", env.Type)
		}
	})
}

// RefundCommands handles the refund command topic.
func (h *Handlers) RefundCommands(ctx context.Context, msg kafka.Message) error {
	return h.dispatch(ctx, RefundCommandsTopic, msg, func(ctx context.Context, env envelope) error {
		switch env.Type {
		case CmdRegisterRefund:
			var req dto.RegisterRefundRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.RegisterRefund.Execute(ctx, req)
			return err
		case CmdReceivePendingRefund:
			var req dto.RefundRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.ReceivePendingRefund.Execute(ctx, req)
			return err
		case CmdClosePendingRefund:
			var req dto.ClosePendingRefundRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.ClosePendingRefund.Execute(ctx, req)
			return err
		case CmdCancelPendingRefund:
			var req dto.RefundRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.CancelPendingRefund.Execute(ctx, req)
			return err
		case CmdMarkRefundError:
			var req dto.RefundRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return rejectedf("decode %s: %v", env.Type, err)
			}
			_, err := h.uc.MarkRefundError.Execute(ctx, req)
			return err
		default:
			return rejectedf("unknown command type %q", env.Type)
		}
	})
}

// depositEvent is the slice of a deposit event the consumer needs.
type depositEvent struct {
	Type        string    `json:"event_type"`
	OperationID uuid.UUID `json:"operation_id"`
}

// DepositEvents consumes the deposit event stream and fans a received deposit
// out to every registered checker. A single checker failing is returned for
// redelivery; reruns of the others are idempotent overwrites.
func (h *Handlers) DepositEvents(ctx context.Context, msg kafka.Message) error {
	var evt depositEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.reject(DepositEventsConsumerTopic, fmt.Errorf("decode deposit event: %w", err))
		return nil
	}
	if evt.Type != event.TypeDepositReceived {
		messagesHandledTotal.WithLabelValues(DepositEventsConsumerTopic, resultOK).Inc()
		return nil
	}

	for _, name := range h.checkerNames {
		_, err := h.uc.EvaluateDepositCheck.Execute(ctx, dto.EvaluateDepositCheckRequest{
			OperationID: evt.OperationID,
			CheckerName: name,
		})
		if err := h.classify(DepositEventsConsumerTopic, err); err != nil {
			return err
		}
	}
	messagesHandledTotal.WithLabelValues(DepositEventsConsumerTopic, resultOK).Inc()
	return nil
}

// devolutionEvent is the slice of a devolution event the consumer needs.
type devolutionEvent struct {
	Type             string    `json:"event_type"`
	AggregateID      uuid.UUID `json:"aggregate_id"`
	WarningDepositID uuid.UUID `json:"warning_deposit_id"`
}

// DevolutionEvents consumes the devolution event stream: create requests
// materialize a record, pending records are submitted to the PSP.
func (h *Handlers) DevolutionEvents(ctx context.Context, msg kafka.Message) error {
	var evt devolutionEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.reject(DevolutionEventsConsumerTopic, fmt.Errorf("decode devolution event: %w", err))
		return nil
	}

	switch evt.Type {
	case event.TypeWarningDevolutionCreateRequested:
		_, err := h.uc.CreateWarningDevolution.Execute(ctx, dto.CreateWarningDevolutionRequest{
			DevolutionID:     evt.AggregateID,
			WarningDepositID: evt.WarningDepositID,
		})
		if err := h.classify(DevolutionEventsConsumerTopic, err); err != nil {
			return err
		}
	case event.TypeWarningDevolutionPending:
		_, err := h.uc.SubmitWarningDevolution.Execute(ctx, dto.SubmitWarningDevolutionRequest{
			DevolutionID: evt.AggregateID,
		})
		if err := h.classify(DevolutionEventsConsumerTopic, err); err != nil {
			return err
		}
	}
	messagesHandledTotal.WithLabelValues(DevolutionEventsConsumerTopic, resultOK).Inc()
	return nil
}

// Consumer-side aliases for the event topics this service itself produces.
const (
	DepositEventsConsumerTopic    = usecase.DepositEventsTopic
	DevolutionEventsConsumerTopic = usecase.DevolutionEventsTopic
)

func (h *Handlers) dispatch(ctx context.Context, topic string, msg kafka.Message, fn func(context.Context, envelope) error) error {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		h.reject(topic, fmt.Errorf("decode envelope: %w", err))
		return nil
	}

	if err := h.classify(topic, fn(ctx, env)); err != nil {
		return err
	}
	messagesHandledTotal.WithLabelValues(topic, resultOK).Inc()
	return nil
}

// classify splits handler errors into rejected (committed, logged) and
// retryable (returned, redelivered). Domain validation errors, unknown
// records and invalid transitions cannot be repaired by redelivery.
func (h *Handlers) classify(topic string, err error) error {
	if err == nil {
		return nil
	}

	var rej rejectedError
	var invalid *model.InvalidStateError
	switch {
	case errors.As(err, &rej),
		errors.Is(err, model.ErrMissingData),
		errors.Is(err, model.ErrInvalidDataFormat),
		errors.Is(err, model.ErrOperationNotFound),
		errors.Is(err, model.ErrDepositNotFound),
		errors.Is(err, model.ErrWarningDepositNotFound),
		errors.Is(err, model.ErrInfractionNotFound),
		errors.Is(err, model.ErrRefundNotFound),
		errors.Is(err, model.ErrTransactionNotFound),
		errors.Is(err, model.ErrWarningDevolutionNotFound),
		errors.As(err, &invalid):
		h.reject(topic, err)
		return nil
	default:
		messagesHandledTotal.WithLabelValues(topic, resultRetryable).Inc()
		return err
	}
}

func (h *Handlers) reject(topic string, err error) {
	messagesHandledTotal.WithLabelValues(topic, resultRejected).Inc()
	h.logger.Warn("message rejected", "topic", topic, "error", err)
}

// rejectedError marks a message that can never be processed successfully.
type rejectedError struct {
	msg string
}

func (e rejectedError) Error() string { return e.msg }

func rejectedf(format string, args ...any) error {
	return rejectedError{msg: fmt.Sprintf(format, args...)}
}
